package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/timezone"
)

// Header is the persisted column order. Keep it EXACT, downstream
// spreadsheets index by position.
var Header = []string{
	"id",
	"title",
	"department",
	"center",
	"teacher",
	"start_date",
	"end_date",
	"capacity",
	"duration_hours",
	"days",
	"min_price",
	"max_price",
	"course_url",
	"cover",
	"is_active",
	"changed_at",
	"updated_at",
}

// Record is the flat, string-typed form of a domain.Course shared by the
// CSV and JSON codecs.
type Record struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Department    string `json:"department"`
	Center        string `json:"center"`
	Teacher       string `json:"teacher"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Capacity      string `json:"capacity"`
	DurationHours string `json:"duration_hours"`
	Days          string `json:"days"`
	MinPrice      string `json:"min_price"`
	MaxPrice      string `json:"max_price"`
	CourseURL     string `json:"course_url"`
	Cover         string `json:"cover"`
	IsActive      Flag   `json:"is_active"`
	ChangedAt     string `json:"changed_at"`
	UpdatedAt     string `json:"updated_at"`
}

func ToRecord(c domain.Course, clock timezone.Clock) Record {
	return Record{
		ID:            c.ID,
		Title:         c.Title,
		Department:    c.Department,
		Center:        c.Center,
		Teacher:       c.Teacher,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		Capacity:      c.Capacity,
		DurationHours: c.DurationHours,
		Days:          c.Days,
		MinPrice:      c.MinPrice,
		MaxPrice:      c.MaxPrice,
		CourseURL:     c.CourseURL,
		Cover:         c.Cover,
		IsActive:      Flag(c.IsActive),
		ChangedAt:     clock.Format(c.ChangedAt),
		UpdatedAt:     clock.Format(c.UpdatedAt),
	}
}

// Course parses the timestamps back in the clock's zone.
func (r Record) Course(clock timezone.Clock) (domain.Course, error) {
	changed, err := clock.Parse(r.ChangedAt)
	if err != nil {
		return domain.Course{}, fmt.Errorf("export: id %s: changed_at: %w", r.ID, err)
	}
	updated, err := clock.Parse(r.UpdatedAt)
	if err != nil {
		return domain.Course{}, fmt.Errorf("export: id %s: updated_at: %w", r.ID, err)
	}
	return domain.Course{
		ID:            strings.TrimSpace(r.ID),
		Title:         r.Title,
		Department:    r.Department,
		Center:        r.Center,
		Teacher:       r.Teacher,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Capacity:      r.Capacity,
		DurationHours: r.DurationHours,
		Days:          r.Days,
		MinPrice:      r.MinPrice,
		MaxPrice:      r.MaxPrice,
		CourseURL:     r.CourseURL,
		Cover:         r.Cover,
		IsActive:      bool(r.IsActive),
		ChangedAt:     changed,
		UpdatedAt:     updated,
	}, nil
}

func (r Record) row() []string {
	return []string{
		r.ID,
		r.Title,
		r.Department,
		r.Center,
		r.Teacher,
		r.StartDate,
		r.EndDate,
		r.Capacity,
		r.DurationHours,
		r.Days,
		r.MinPrice,
		r.MaxPrice,
		r.CourseURL,
		r.Cover,
		r.IsActive.String(),
		r.ChangedAt,
		r.UpdatedAt,
	}
}

// Flag is is_active as persisted: written as 1/0, read leniently since older
// snapshots went through spreadsheet tools that rewrote it.
type Flag bool

func (f Flag) String() string {
	if f {
		return "1"
	}
	return "0"
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	v, err := ParseFlag(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFlag accepts 1/0, true/false, yes/no and numeric forms like 1.0.
// Blank is false.
func ParseFlag(s string) (Flag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "0", "false", "no", "f", "n":
		return false, nil
	case "1", "true", "yes", "t", "y":
		return true, nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("export: invalid is_active value %q", s)
}
