package history

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"worldinfo/internal/models"
)

// WriteTable writes the header and one line per row in the current
// fifteen column layout.
func WriteTable(w io.Writer, rows []models.MetricsRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.TableHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SkippedRowsError lists the table lines ReadTable could not use. The rows
// returned next to it are still valid.
type SkippedRowsError struct {
	Errs []error
}

func (e *SkippedRowsError) Error() string {
	return errors.Join(e.Errs...).Error()
}

func (e *SkippedRowsError) Unwrap() []error {
	return e.Errs
}

// ReadTable parses a stored table. The first line is a header and is skipped.
// Both the current layout and the legacy layout without the fetch date column
// are accepted. Lines of any other width are skipped and reported through a
// *SkippedRowsError wrapping models.ErrColumnCount.
func ReadTable(r io.Reader) ([]models.MetricsRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var rows []models.MetricsRow
	var skipped []error
	for line := 1; ; line++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped = append(skipped, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if line == 1 {
			continue
		}
		row, err := models.ParseMetricsCells(cells)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		rows = append(rows, row)
	}
	if len(skipped) > 0 {
		return rows, &SkippedRowsError{Errs: skipped}
	}
	return rows, nil
}

func SaveTableFile(fileName string, rows []models.MetricsRow) error {
	var buf bytes.Buffer
	if err := WriteTable(&buf, rows); err != nil {
		return err
	}
	return writeAtomic(fileName, buf.Bytes())
}

// LoadTableFile reads a stored table. A missing file yields no rows.
func LoadTableFile(fileName string) ([]models.MetricsRow, error) {
	f, err := os.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}
