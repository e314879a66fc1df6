package repositories

import (
	"sync"

	"quiz-lab/errors"
)

// MemoryRoomStore is a map-backed IRoomStore. The coordinator's invariants
// are independent of the storage technology, so tests and single-node
// deployments can run without Badger on disk.
type MemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[string]RoomRecord
	hosts map[string]string // hostID -> code
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{
		rooms: make(map[string]RoomRecord),
		hosts: make(map[string]string),
	}
}

func (s *MemoryRoomStore) Save(record RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[record.Code] = record
	s.hosts[record.HostID] = record.Code
	return nil
}

func (s *MemoryRoomStore) GetByCode(code string) (RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.rooms[code]
	if !ok {
		return RoomRecord{}, errors.ErrRoomNotFound
	}
	return record, nil
}

func (s *MemoryRoomStore) GetByHost(hostID string) (RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.hosts[hostID]
	if !ok {
		return RoomRecord{}, errors.ErrRoomNotFound
	}
	record, ok := s.rooms[code]
	if !ok {
		return RoomRecord{}, errors.ErrRoomNotFound
	}
	return record, nil
}

func (s *MemoryRoomStore) Delete(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.rooms[code]
	if !ok {
		return nil
	}
	delete(s.rooms, code)
	delete(s.hosts, record.HostID)
	return nil
}
