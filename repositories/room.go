//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"quiz-lab/domain"
	"quiz-lab/errors"
)

// IRoomStore is the persistence collaborator for room records: durable
// upsert keyed by code, point lookup by code and by host connection, and
// deletion when the host leaves. The session coordinator treats it as the
// record of truth it writes after every mutation, but the state machine
// never depends on which implementation backs it.
type IRoomStore interface {
	Save(record RoomRecord) error
	GetByCode(code string) (RoomRecord, error)
	GetByHost(hostID string) (RoomRecord, error)
	Delete(code string) error
}

// PlayerRecord mirrors domain.Player for storage.
type PlayerRecord struct {
	ConnID   string `json:"connId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Answered bool   `json:"answered"`
}

// RoomRecord is the stored shape of a room.
type RoomRecord struct {
	Code          string         `json:"code"`
	HostID        string         `json:"hostId"`
	Status        string         `json:"status"`
	QuestionIndex int            `json:"questionIndex"`
	Accepting     bool           `json:"acceptingAnswers"`
	Players       []PlayerRecord `json:"players"`
}

// FromRoom snapshots a live room into its stored shape.
func FromRoom(room *domain.Room) RoomRecord {
	return RoomRecord{
		Code:          room.Code,
		HostID:        room.HostID,
		Status:        string(room.Status),
		QuestionIndex: room.QuestionIndex,
		Accepting:     room.Accepting,
		Players: lo.Map(room.Players, func(p domain.Player, _ int) PlayerRecord {
			return PlayerRecord{ConnID: p.ConnID, Name: p.Name, Score: p.Score, Answered: p.Answered}
		}),
	}
}

type BadgerRoomStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerRoomStore(db *badger.DB, log *slog.Logger) BadgerRoomStore {
	return BadgerRoomStore{db: db, log: log}
}

// Keys are "room:{code}" for the record itself and "host:{connID}" as a
// secondary index pointing back at the code, so a host disconnect resolves
// to its room with a single point lookup.
func roomKey(code string) []byte { return []byte(fmt.Sprintf("room:%s", code)) }

func hostKey(hostID string) []byte { return []byte(fmt.Sprintf("host:%s", hostID)) }

func (s BadgerRoomStore) Save(record RoomRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", record.Code, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(roomKey(record.Code), payload); err != nil {
			return err
		}
		return txn.Set(hostKey(record.HostID), []byte(record.Code))
	})
}

func (s BadgerRoomStore) GetByCode(code string) (RoomRecord, error) {
	var record RoomRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(code))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return RoomRecord{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return RoomRecord{}, err
	}
	return record, nil
}

func (s BadgerRoomStore) GetByHost(hostID string) (RoomRecord, error) {
	var code string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hostKey(hostID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			code = string(value)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return RoomRecord{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return RoomRecord{}, err
	}
	return s.GetByCode(code)
}

func (s BadgerRoomStore) Delete(code string) error {
	record, err := s.GetByCode(code)
	if err == errors.ErrRoomNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(roomKey(code)); err != nil {
			return err
		}
		return txn.Delete(hostKey(record.HostID))
	})
}
