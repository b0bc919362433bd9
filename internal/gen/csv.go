package gen

import (
	"encoding/csv"
	"fmt"
	"os"
)

/*
CSVSource replays the first 25 columns of a CSV export as record bases, in
file order.  Empty cells become null values.
*/
type CSVSource struct {
	header []string
	rows   [][]string
	next   int
	loop   bool
}

/*
LoadCSV reads the whole file up front and validates the column count.  With
loop set, Next wraps around instead of running out.
*/
func LoadCSV(path string, loop bool) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if len(records[0]) < BaseColumns {
		return nil, fmt.Errorf("%s has %d columns; at least %d required",
			path, len(records[0]), BaseColumns)
	}

	return &CSVSource{
		header: records[0][:BaseColumns],
		rows:   records[1:],
		loop:   loop,
	}, nil
}

// Len reports the number of data rows.
func (s *CSVSource) Len() int {
	return len(s.rows)
}

/*
Next returns the base document for the next row, or false when the file is
exhausted and looping is off.
*/
func (s *CSVSource) Next() (map[string]any, bool) {
	if s.next >= len(s.rows) {
		if !s.loop || len(s.rows) == 0 {
			return nil, false
		}
		s.next = 0
	}

	row := s.rows[s.next]
	s.next++

	doc := make(map[string]any, BaseColumns)
	for i, key := range s.header {
		if row[i] == "" {
			doc[key] = nil
		} else {
			doc[key] = row[i]
		}
	}
	return doc, true
}
