package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"quiz-lab/internal"
	"quiz-lab/repositories"
)

// Inspector opens the room store read-only and prints the active rooms as
// a table. Useful to peek at a running server's state without attaching a
// debugger.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	records, err := listRooms(db)
	if err != nil {
		log.Fatalf("Failed to list rooms: %v", err)
	}

	if len(records) == 0 {
		color.Gray.Println("No active rooms")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Code", "Status", "Question", "Accepting", "Players"})
	for _, record := range records {
		table.Append([]string{
			record.Code,
			colorStatus(record.Status),
			strconv.Itoa(record.QuestionIndex),
			strconv.FormatBool(record.Accepting),
			playerSummary(record),
		})
	}
	table.Render()
}

func listRooms(db *badger.DB) ([]repositories.RoomRecord, error) {
	var records []repositories.RoomRecord
	err := db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("room:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var record repositories.RoomRecord
				if err := json.Unmarshal(value, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

func colorStatus(status string) string {
	switch status {
	case "lobby":
		return color.Yellow.Sprint(status)
	case "question":
		return color.Green.Sprint(status)
	case "reveal":
		return color.Cyan.Sprint(status)
	default:
		return color.Red.Sprint(status)
	}
}

func playerSummary(record repositories.RoomRecord) string {
	summary := ""
	for i, p := range record.Players {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%s:%d", p.Name, p.Score)
	}
	return summary
}
