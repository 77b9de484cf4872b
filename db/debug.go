package db

import (
	"encoding/json"
	"io"
	"time"
)

func PrintRecentReadingsCLI(dbPath string, limit int, out io.Writer) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	readings, err := GetRecentReadings(conn, limit)
	if err != nil {
		return err
	}
	return printJSON(out, readings)
}

func PrintWateringEventsCLI(dbPath string, since time.Duration, out io.Writer) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, err := GetWateringEvents(conn, time.Now().Add(-since))
	if err != nil {
		return err
	}
	return printJSON(out, events)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
