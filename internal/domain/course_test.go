package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestCourseObserve(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	now := earlier.Add(48 * time.Hour)

	testCases := []struct {
		name        string
		prev        Course
		known       bool
		wantChanged time.Time
	}{
		{"unseen", Course{}, false, now},
		{"previously inactive", Course{ID: "a", IsActive: false, ChangedAt: earlier}, true, now},
		{"previously active", Course{ID: "a", IsActive: true, ChangedAt: earlier}, true, earlier},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Course{ID: "a", Title: "Go"}.Observe(tc.prev, tc.known, now)
			if !got.IsActive {
				t.Error("Expected observed course to be active")
			}
			if !got.ChangedAt.Equal(tc.wantChanged) {
				t.Errorf("ChangedAt = %v, want %v", got.ChangedAt, tc.wantChanged)
			}
			if !got.UpdatedAt.Equal(now) {
				t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
			}
		})
	}
}

func TestCourseExpire(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	orig := Course{ID: "a", IsActive: true, ChangedAt: now.Add(-time.Hour)}

	got := orig.Expire(now)
	if got.IsActive {
		t.Error("Expected expired course to be inactive")
	}
	if !got.ChangedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("Expected timestamps to be %v, got changed=%v updated=%v", now, got.ChangedAt, got.UpdatedAt)
	}
	if !orig.IsActive {
		t.Error("Expire must not modify the receiver's caller copy")
	}
}

func TestSnapshotCountsAndClone(t *testing.T) {
	s := Snapshot{
		"a": {ID: "a", IsActive: true},
		"b": {ID: "b", IsActive: false},
		"c": {ID: "c", IsActive: true},
	}

	active, inactive := s.Counts()
	if active != 2 || inactive != 1 {
		t.Errorf("Counts() = (%d, %d), want (2, 1)", active, inactive)
	}

	cp := s.Clone()
	delete(cp, "a")
	if _, ok := s["a"]; !ok {
		t.Error("Clone must not share the underlying map")
	}

	sorted := s.Sorted()
	if len(sorted) != 3 || sorted[0].ID != "a" || sorted[2].ID != "c" {
		t.Errorf("Sorted() returned unexpected order: %+v", sorted)
	}
}

func TestRemoteCourseDecode(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantID   string
		wantCap  string
		wantDays int
	}{
		{"oid object", `{"id":{"$oid":"65f0a1"},"capacity":"20","days":["sat","mon"]}`, "65f0a1", "20", 2},
		{"bare string id", `{"id":"abc","capacity":15}`, "abc", "15", 0},
		{"numeric id", `{"id":42,"capacity":null}`, "42", "", 0},
		{"missing id", `{"title":"x"}`, "", "", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rc RemoteCourse
			if err := json.Unmarshal([]byte(tc.input), &rc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(rc.ID) != tc.wantID {
				t.Errorf("ID = %q, want %q", rc.ID, tc.wantID)
			}
			if rc.Capacity.String() != tc.wantCap {
				t.Errorf("Capacity = %q, want %q", rc.Capacity, tc.wantCap)
			}
			if len(rc.Days) != tc.wantDays {
				t.Errorf("len(Days) = %d, want %d", len(rc.Days), tc.wantDays)
			}
		})
	}
}

func TestRemoteCourseDecodeOddOptionalFields(t *testing.T) {
	testCases := []struct {
		name             string
		input            string
		wantTitle        string
		wantDays         []string
		wantPlaceholders []string
	}{
		{"days as string", `{"id":{"$oid":"a1"},"title":"Go","days":"sat"}`, "Go", []string{"sat"}, nil},
		{"days as numbers", `{"id":{"$oid":"a1"},"days":[1,2]}`, "", []string{"1", "2"}, nil},
		{"days null", `{"id":{"$oid":"a1"},"days":null}`, "", nil, nil},
		{"days with nested entry", `{"id":{"$oid":"a1"},"days":["sat",{"x":1}]}`, "", []string{"sat"}, []string{"days"}},
		{"days as object", `{"id":{"$oid":"a1"},"days":{"x":1}}`, "", nil, []string{"days"}},
		{"nested title", `{"id":"a1","title":{"fa":"x"}}`, "", nil, []string{"title"}},
		{"nested cover", `{"id":"a1","title":"Go","cover":{"src":"x.png"}}`, "Go", nil, []string{"cover"}},
		{"array title and cover", `{"id":"a1","title":["x"],"cover":[1]}`, "", nil, []string{"title", "cover"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var rc RemoteCourse
			if err := json.Unmarshal([]byte(tc.input), &rc); err != nil {
				t.Fatalf("record with a usable id must decode, got %v", err)
			}
			if rc.ID != "a1" {
				t.Errorf("ID = %q, want a1", rc.ID)
			}
			if rc.Title.String() != tc.wantTitle {
				t.Errorf("Title = %q, want %q", rc.Title, tc.wantTitle)
			}
			if !reflect.DeepEqual(rc.Days, tc.wantDays) {
				t.Errorf("Days = %#v, want %#v", rc.Days, tc.wantDays)
			}
			if !reflect.DeepEqual(rc.Placeholders, tc.wantPlaceholders) {
				t.Errorf("Placeholders = %#v, want %#v", rc.Placeholders, tc.wantPlaceholders)
			}
		})
	}
}

func TestRemoteCourseDecodeUnusableID(t *testing.T) {
	for _, input := range []string{`{"id":["a"]}`, `{"id":{"$oid":{"x":1}}}`, `"just a string"`} {
		var rc RemoteCourse
		if err := json.Unmarshal([]byte(input), &rc); err == nil {
			t.Errorf("Expected error for %s", input)
		}
	}
}

func TestFilterIsEmpty(t *testing.T) {
	if !(Filter{Sort: "date"}).IsEmpty() {
		t.Error("Expected filter without categories to be empty")
	}
	if (Filter{Months: []string{"1"}}).IsEmpty() {
		t.Error("Expected filter with months to be non-empty")
	}
}

func TestChangedAtNeverMovesBackwards(t *testing.T) {
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	expired := Course{ID: "a", IsActive: true, ChangedAt: future}.Expire(now)
	if !expired.ChangedAt.Equal(future) {
		t.Errorf("Expire moved ChangedAt back to %v", expired.ChangedAt)
	}

	revived := Course{ID: "a"}.Observe(Course{ID: "a", IsActive: false, ChangedAt: future}, true, now)
	if !revived.ChangedAt.Equal(future) {
		t.Errorf("Observe moved ChangedAt back to %v", revived.ChangedAt)
	}
}
