package mappers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-sync/internal/domain"
)

// ErrMissingID marks a remote record that cannot be merged.
var ErrMissingID = errors.New("course has no id")

// CourseFromRemote maps display and scheduling fields.
// Missing optional fields become empty strings; only the id is mandatory.
func CourseFromRemote(rc domain.RemoteCourse, siteURL string) (domain.Course, error) {
	id := strings.TrimSpace(string(rc.ID))
	if id == "" {
		return domain.Course{}, fmt.Errorf("mappers: %w (title=%q)", ErrMissingID, rc.Title)
	}

	return domain.Course{
		ID:            id,
		Title:         clean(rc.Title),
		Department:    clean(rc.Department),
		Center:        clean(rc.Center),
		Teacher:       clean(rc.Author),
		StartDate:     clean(rc.Start),
		EndDate:       clean(rc.End),
		Capacity:      clean(rc.Capacity),
		DurationHours: clean(rc.Time),
		Days:          joinDays(rc.Days),
		MinPrice:      clean(rc.MinCost),
		MaxPrice:      clean(rc.MaxCost),
		CourseURL:     CourseLink(siteURL, rc),
		Cover:         clean(rc.Cover),
	}, nil
}

// Normalize maps rc and stamps it as present in the fetch at now.
func Normalize(rc domain.RemoteCourse, siteURL string, prior domain.Snapshot, now time.Time) (domain.Course, error) {
	c, err := CourseFromRemote(rc, siteURL)
	if err != nil {
		return domain.Course{}, err
	}
	return prior.Stamp(c, now), nil
}

// CourseLink builds {site}/lesson/{lessonId}/{lessonUrl}?refp={center}.
func CourseLink(siteURL string, rc domain.RemoteCourse) string {
	return fmt.Sprintf("%s/lesson/%s/%s?refp=%s",
		strings.TrimRight(siteURL, "/"),
		clean(rc.LessonID),
		clean(rc.LessonURL),
		quote(clean(rc.Center)),
	)
}

func clean(s domain.FlexString) string {
	return strings.TrimSpace(string(s))
}

func joinDays(days []string) string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return strings.Join(out, " | ")
}

// quote percent-encodes everything except unreserved characters and '/'.
func quote(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '_', c == '.', c == '~', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String()
}
