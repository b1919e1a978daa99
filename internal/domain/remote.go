package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RemoteCourse is one course as returned by the catalog search endpoint.
// It only lives for the duration of a fetch.
//
// Only the id can make a record undecodable. Optional fields with an
// unexpected shape decode to "" and are listed in Placeholders.
type RemoteCourse struct {
	ID         ObjectID   `json:"id"`
	Title      FlexString `json:"title"`
	Department FlexString `json:"dep"`
	Center     FlexString `json:"center"`
	Author     FlexString `json:"author"`
	Start      FlexString `json:"start"`
	End        FlexString `json:"end"`
	Capacity   FlexString `json:"capacity"`
	Time       FlexString `json:"time"`
	Days       []string   `json:"days"`
	MinCost    FlexString `json:"minCost"`
	MaxCost    FlexString `json:"maxCost"`
	LessonID   FlexString `json:"lessonId"`
	LessonURL  FlexString `json:"lessonUrl"`
	Cover      FlexString `json:"cover"`

	Placeholders []string `json:"-"`
}

func (rc *RemoteCourse) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("remote course: %w", err)
	}

	var out RemoteCourse
	if v, ok := raw["id"]; ok {
		if err := out.ID.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("remote course: %w", err)
		}
	}

	for _, f := range []struct {
		key string
		dst *FlexString
	}{
		{"title", &out.Title},
		{"dep", &out.Department},
		{"center", &out.Center},
		{"author", &out.Author},
		{"start", &out.Start},
		{"end", &out.End},
		{"capacity", &out.Capacity},
		{"time", &out.Time},
		{"minCost", &out.MinCost},
		{"maxCost", &out.MaxCost},
		{"lessonId", &out.LessonID},
		{"lessonUrl", &out.LessonURL},
		{"cover", &out.Cover},
	} {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		if err := f.dst.UnmarshalJSON(v); err != nil {
			*f.dst = ""
			out.Placeholders = append(out.Placeholders, f.key)
		}
	}

	if v, ok := raw["days"]; ok {
		days, clean := decodeDays(v)
		out.Days = days
		if !clean {
			out.Placeholders = append(out.Placeholders, "days")
		}
	}

	*rc = out
	return nil
}

// decodeDays accepts a list of scalars, a single scalar or null.
// Non-scalar entries are dropped and reported through clean=false.
func decodeDays(b []byte) (days []string, clean bool) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, false
		}
		clean = true
		for _, item := range items {
			var s FlexString
			if err := s.UnmarshalJSON(item); err != nil {
				clean = false
				continue
			}
			if s != "" {
				days = append(days, string(s))
			}
		}
		return days, clean
	}

	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, false
	}
	if s == "" {
		return nil, true
	}
	return []string{string(s)}, true
}

// ObjectID accepts both {"$oid": "..."} and a bare scalar.
type ObjectID string

func (o *ObjectID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var wrapped struct {
			OID FlexString `json:"$oid"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return fmt.Errorf("object id: %w", err)
		}
		*o = ObjectID(strings.TrimSpace(string(wrapped.OID)))
		return nil
	}
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("object id: %w", err)
	}
	*o = ObjectID(strings.TrimSpace(string(s)))
	return nil
}

// FlexString decodes strings, numbers, booleans and null into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '{', '[':
		return fmt.Errorf("flex string: unexpected %s", string(b[:1]))
	default:
		// numbers and booleans keep their literal form
		*f = FlexString(string(b))
	}
	return nil
}

func (f FlexString) String() string { return string(f) }
