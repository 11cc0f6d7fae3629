package statement

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadRecords reads a header-keyed CSV export into raw records. Extra
// columns are carried through untouched (Parse ignores ones it does not
// recognize), rows shorter than the header leave the missing cells unset,
// and fully empty rows are skipped.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading statement header: %w", err)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading statement row %d: %w", line, err)
		}

		rec := make(Record, len(header))
		empty := true
		for i, name := range header {
			if i >= len(row) {
				break
			}
			rec[name] = row[i]
			if row[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
