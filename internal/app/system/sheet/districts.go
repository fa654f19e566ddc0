package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
)

// Limits for operator-supplied csv files.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// RowError describes one rejected line. Line is 1-based in the file.
type RowError struct {
	Line   int
	Value  string
	Reason string
}

func (e RowError) String() string {
	v := e.Value
	if v == "" {
		v = "(empty)"
	}
	return fmt.Sprintf("line %d: %s -> %s", e.Line, v, e.Reason)
}

// ParseDistrictCSV reads district names from the first column. A first row
// reading "name" or "district" is taken as a header. Blank lines are
// skipped; case-insensitive repeats are reported and dropped.
func ParseDistrictCSV(r io.Reader) (names []string, rowErrs []RowError, err error) {
	reader := csv.NewReader(io.LimitReader(r, MaxUploadSize))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	seen := map[string]int{}
	count := 0
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		count++
		if e != nil {
			return nil, nil, fmt.Errorf("read csv record %d: %w", count, e)
		}
		if count > MaxRows+1 {
			return nil, nil, fmt.Errorf("csv has more than %d rows", MaxRows)
		}
		if len(rec) == 0 {
			continue
		}
		line, _ := reader.FieldPos(0)
		name := normalize.Name(rec[0])
		if count == 1 && (strings.EqualFold(name, "name") || strings.EqualFold(name, "district")) {
			continue
		}
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if first, dup := seen[key]; dup {
			rowErrs = append(rowErrs, RowError{Line: line, Value: name, Reason: fmt.Sprintf("repeats line %d", first)})
			continue
		}
		seen[key] = line
		names = append(names, name)
	}
	return names, rowErrs, nil
}
