package domain

import (
	"sort"
	"time"
)

// Snapshot maps course id to the last known record, inactive ones included.
// Identities are never removed.
type Snapshot map[string]Course

// Clone returns a shallow copy that can be mutated without touching s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, c := range s {
		out[id] = c
	}
	return out
}

// Stamp applies Course.Observe against the prior record with the same id.
func (s Snapshot) Stamp(c Course, now time.Time) Course {
	prev, ok := s[c.ID]
	return c.Observe(prev, ok, now)
}

// Counts returns the number of active and inactive records.
func (s Snapshot) Counts() (active, inactive int) {
	for _, c := range s {
		if c.IsActive {
			active++
		} else {
			inactive++
		}
	}
	return active, inactive
}

// Sorted returns the records ordered by id, for deterministic output.
func (s Snapshot) Sorted() []Course {
	out := make([]Course, 0, len(s))
	for _, c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FromCourses builds a Snapshot; later duplicates win.
func FromCourses(courses []Course) Snapshot {
	out := make(Snapshot, len(courses))
	for _, c := range courses {
		out[c.ID] = c
	}
	return out
}
