package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/timezone"
)

const bom = "\ufeff"

// WriteCSV writes courses with a UTF-8 BOM so spreadsheet tools pick up the
// Persian text correctly. Rows follow the order given.
func WriteCSV(w io.Writer, courses []domain.Course, clock timezone.Clock) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, c := range courses {
		if err := cw.Write(ToRecord(c, clock).row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV maps columns by header name, so reordered or partial files still
// load. Missing columns read as blank, rows without an id are skipped.
func ReadCSV(r io.Reader, clock timezone.Clock) ([]domain.Course, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && string(head) == bom {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("export: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["id"]; !ok {
		return nil, errors.New("export: csv has no id column")
	}

	var out []domain.Course
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, err)
		}

		col := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		active, err := ParseFlag(col("is_active"))
		if err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, err)
		}
		rec := Record{
			ID:            col("id"),
			Title:         col("title"),
			Department:    col("department"),
			Center:        col("center"),
			Teacher:       col("teacher"),
			StartDate:     col("start_date"),
			EndDate:       col("end_date"),
			Capacity:      col("capacity"),
			DurationHours: col("duration_hours"),
			Days:          col("days"),
			MinPrice:      col("min_price"),
			MaxPrice:      col("max_price"),
			CourseURL:     col("course_url"),
			Cover:         col("cover"),
			IsActive:      active,
			ChangedAt:     col("changed_at"),
			UpdatedAt:     col("updated_at"),
		}
		if strings.TrimSpace(rec.ID) == "" {
			continue
		}
		c, err := rec.Course(clock)
		if err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, err)
		}
		out = append(out, c)
	}
	return out, nil
}
