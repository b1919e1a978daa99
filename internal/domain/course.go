package domain

import "time"

// Course is the canonical representation of a catalog course inside this service.
// Remote records are mapped into this model by the mappers package and every
// store persists exactly this shape.
type Course struct {
	ID         string // stable identity, unique within a Snapshot
	Title      string
	Department string
	Center     string
	Teacher    string

	StartDate     string
	EndDate       string
	Capacity      string
	DurationHours string
	Days          string // schedule days joined with " | "

	MinPrice  string
	MaxPrice  string
	CourseURL string
	Cover     string

	IsActive  bool
	ChangedAt time.Time // last status transition (new / expired / revived)
	UpdatedAt time.Time // last write
}

// Expire returns a copy of c marked inactive at now.
func (c Course) Expire(now time.Time) Course {
	c.IsActive = false
	c.ChangedAt = latest(c.ChangedAt, now)
	c.UpdatedAt = now
	return c
}

// Observe stamps c as seen in the current fetch.
// changed_at only moves when prev is missing or inactive.
func (c Course) Observe(prev Course, known bool, now time.Time) Course {
	c.IsActive = true
	c.UpdatedAt = now
	switch {
	case !known:
		c.ChangedAt = now
	case !prev.IsActive:
		c.ChangedAt = latest(prev.ChangedAt, now)
	default:
		c.ChangedAt = prev.ChangedAt
	}
	return c
}

// latest keeps changed_at from moving backwards on clock skew.
func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
