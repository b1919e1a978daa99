package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/timezone"
)

// WriteJSON writes the snapshot mirror: an indented array of records with
// the same fields as the CSV.
func WriteJSON(w io.Writer, courses []domain.Course, clock timezone.Clock) error {
	recs := make([]Record, 0, len(courses))
	for _, c := range courses {
		recs = append(recs, ToRecord(c, clock))
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

func ReadJSON(r io.Reader, clock timezone.Clock) ([]domain.Course, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("export: decode json: %w", err)
	}
	out := make([]domain.Course, 0, len(recs))
	for _, rec := range recs {
		if strings.TrimSpace(rec.ID) == "" {
			continue
		}
		c, err := rec.Course(clock)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
