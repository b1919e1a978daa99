package domain

// Transitions holds the status changes detected in one run.
// The three sets are disjoint by id.
type Transitions struct {
	New     []Course
	Expired []Course
	Revived []Course
}

func (t Transitions) Empty() bool {
	return len(t.New) == 0 && len(t.Expired) == 0 && len(t.Revived) == 0
}
