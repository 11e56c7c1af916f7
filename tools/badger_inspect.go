package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"stream-lab/repositories"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	resource := flag.String("resource", "", "Only show the history of this resource")
	flag.Parse()

	prefix := "stream:"
	if *resource != "" {
		prefix = repositories.StreamPrefix(*resource)
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Resource", "Outcome", "Status", "Range", "Sent", "Duration", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				record, err := repositories.DecodeStreamRecord(v)
				if err != nil {
					// Keep going, one bad record should not hide the others
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append(toRow(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func toRow(record repositories.StreamRecord) []string {
	window := "-"
	if record.FileSize > 0 && record.Outcome != repositories.OutcomeRejected {
		window = fmt.Sprintf("%d-%d/%d", record.Start, record.End, record.FileSize)
	}
	return []string{
		record.At.Format("2006-01-02 15:04:05"),
		record.Resource,
		record.Outcome.String(),
		strconv.Itoa(record.Status),
		window,
		strconv.FormatInt(record.BytesSent, 10),
		record.Duration.String(),
		strings.TrimSpace(record.Detail),
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		// A dirty shutdown leaves a value log to truncate, read-only mode cannot do it
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}
			_ = db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
