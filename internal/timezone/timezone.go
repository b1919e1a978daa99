package timezone

import (
	"strings"
	"time"
	_ "time/tzdata" // hosts without a zoneinfo database
)

// Layout is the timestamp format used in every persisted artifact.
const Layout = "2006-01-02 15:04:05"

// DefaultZone is the catalog's local zone.
const DefaultZone = "Asia/Tehran"

// Clock produces run timestamps in a fixed location so that persisted
// values do not depend on where the job happens to run.
type Clock struct {
	Location *time.Location
}

// Load resolves name (empty means DefaultZone).
func Load(name string) (Clock, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Clock{}, err
	}
	return Clock{Location: loc}, nil
}

// Now is truncated to whole seconds, matching Layout's precision.
func (c Clock) Now() time.Time {
	return time.Now().In(c.location()).Truncate(time.Second)
}

func (c Clock) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(c.location()).Format(Layout)
}

// Parse reads a Layout timestamp in the clock's location.
// Empty input yields the zero time.
func (c Clock) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(Layout, s, c.location())
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}
