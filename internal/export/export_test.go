package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClock(t *testing.T) timezone.Clock {
	t.Helper()
	clock, err := timezone.Load("Asia/Tehran")
	require.NoError(t, err)
	return clock
}

func sampleCourses(clock timezone.Clock) []domain.Course {
	changed := time.Date(2025, 2, 1, 10, 30, 0, 0, clock.Location)
	updated := changed.Add(36 * time.Hour)
	return []domain.Course{
		{
			ID:         "65a1",
			Title:      "برنامه‌نویسی Go, مقدماتی",
			Department: "IT",
			Center:     "مرکز ونک",
			Teacher:    "Sara",
			Days:       "شنبه | دوشنبه",
			MinPrice:   "12000000",
			CourseURL:  "https://mftplus.com/lesson/12/go?refp=x",
			IsActive:   true,
			ChangedAt:  changed,
			UpdatedAt:  updated,
		},
		{
			ID:        "65a2",
			Title:     "Docker \"in\" practice",
			IsActive:  false,
			ChangedAt: changed,
			UpdatedAt: changed,
		},
	}
}

func TestWriteCSVLayout(t *testing.T) {
	clock := testClock(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleCourses(clock), clock))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "missing BOM")

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,title,department,center,teacher,start_date,end_date,capacity,duration_hours,days,min_price,max_price,course_url,cover,is_active,changed_at,updated_at", lines[0])
	assert.Contains(t, lines[1], ",1,2025-02-01 10:30:00,2025-02-02 22:30:00")
	assert.Contains(t, lines[2], ",0,2025-02-01 10:30:00,2025-02-01 10:30:00")
}

func TestCSVRoundTrip(t *testing.T) {
	clock := testClock(t)
	in := sampleCourses(clock)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in, clock))
	got, err := ReadCSV(&buf, clock)
	require.NoError(t, err)

	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVLenient(t *testing.T) {
	clock := testClock(t)
	src := "id,is_active,title,changed_at\n" +
		"a,true,Alpha,2025-01-01 00:00:00\n" +
		"b,1.0,Beta,\n" +
		",1,orphan,\n" +
		"c,False,Gamma,\n" +
		"d\n"

	got, err := ReadCSV(strings.NewReader(src), clock)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.True(t, got[0].IsActive)
	assert.Equal(t, "Alpha", got[0].Title)
	assert.Equal(t, "2025-01-01 00:00:00", clock.Format(got[0].ChangedAt))
	assert.True(t, got[1].IsActive)
	assert.True(t, got[1].ChangedAt.IsZero())
	assert.False(t, got[2].IsActive)
	assert.Equal(t, "d", got[3].ID)
	assert.False(t, got[3].IsActive)
}

func TestReadCSVRejectsBadInput(t *testing.T) {
	clock := testClock(t)
	testCases := []struct {
		name string
		src  string
	}{
		{"no id column", "title,is_active\nx,1\n"},
		{"bad flag", "id,is_active\na,maybe\n"},
		{"bad timestamp", "id,changed_at\na,yesterday\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.src), clock)
			assert.Error(t, err)
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	got, err := ReadCSV(strings.NewReader(""), testClock(t))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONRoundTrip(t *testing.T) {
	clock := testClock(t)
	in := sampleCourses(clock)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, in, clock))
	assert.Contains(t, buf.String(), `"is_active": 1`)
	assert.Contains(t, buf.String(), `"changed_at": "2025-02-01 10:30:00"`)

	got, err := ReadJSON(&buf, clock)
	require.NoError(t, err)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONLenientFlag(t *testing.T) {
	src := `[{"id":"a","is_active":true},{"id":"b","is_active":"0"},{"id":"c","is_active":1.0},{"id":"d","is_active":null}]`
	got, err := ReadJSON(strings.NewReader(src), testClock(t))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].IsActive)
	assert.False(t, got[1].IsActive)
	assert.True(t, got[2].IsActive)
	assert.False(t, got[3].IsActive)
}

func TestParseFlag(t *testing.T) {
	testCases := []struct {
		in   string
		want Flag
	}{
		{"1", true},
		{"0", false},
		{"", false},
		{" TRUE ", true},
		{"false", false},
		{"1.0", true},
		{"0.0", false},
	}
	for _, tc := range testCases {
		got, err := ParseFlag(tc.in)
		if err != nil {
			t.Errorf("ParseFlag(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFlag(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
