package sync

import (
	"fmt"
	"sort"
	"time"

	"catalog-sync/internal/domain"
)

// Result is the outcome of one reconciliation: the next snapshot plus the
// status transitions that produced it.
type Result struct {
	Next domain.Snapshot
	domain.Transitions
}

// Reconcile diffs the current fetch against prior and merges them.
//
//   - new:     id not in prior
//   - revived: id inactive in prior, present now
//   - expired: id active in prior, absent now (cloned with is_active=false)
//
// Every current record overwrites its prior entry, expired clones overwrite
// the rest of the previously active ones, and everything else carries over.
// prior is not modified. Duplicate ids in current collapse to the last one.
func Reconcile(prior domain.Snapshot, current []domain.Course, now time.Time) Result {
	seen := make(map[string]domain.Course, len(current))
	order := make([]string, 0, len(current))
	for _, c := range current {
		if c.ID == "" {
			continue
		}
		if _, dup := seen[c.ID]; !dup {
			order = append(order, c.ID)
		}
		seen[c.ID] = prior.Stamp(c, now)
	}

	res := Result{Next: prior.Clone()}

	for _, id := range order {
		c := seen[id]
		prev, known := prior[id]
		switch {
		case !known:
			res.New = append(res.New, c)
		case !prev.IsActive:
			res.Revived = append(res.Revived, c)
		}
		res.Next[id] = c
	}

	for id, prev := range prior {
		if !prev.IsActive {
			continue
		}
		if _, present := seen[id]; present {
			continue
		}
		res.Expired = append(res.Expired, prev.Expire(now))
	}
	sort.Slice(res.Expired, func(i, j int) bool { return res.Expired[i].ID < res.Expired[j].ID })

	for _, c := range res.Expired {
		res.Next[c.ID] = c
	}

	return res
}

// Verify checks the invariants a reconciliation must keep before its
// result may be persisted.
func Verify(prior domain.Snapshot, res Result) error {
	if got, want := len(res.Next), len(prior)+len(res.New); got != want {
		return fmt.Errorf("reconcile: snapshot has %d records, expected %d (prior %d + new %d)", got, want, len(prior), len(res.New))
	}
	for id := range prior {
		if _, ok := res.Next[id]; !ok {
			return fmt.Errorf("reconcile: id %s dropped from snapshot", id)
		}
	}

	owner := map[string]string{}
	for _, set := range []struct {
		name    string
		courses []domain.Course
	}{
		{"new", res.New},
		{"expired", res.Expired},
		{"revived", res.Revived},
	} {
		for _, c := range set.courses {
			if other, ok := owner[c.ID]; ok {
				return fmt.Errorf("reconcile: id %s is both %s and %s", c.ID, other, set.name)
			}
			owner[c.ID] = set.name
		}
	}

	for id, c := range res.Next {
		if c.ID != id {
			return fmt.Errorf("reconcile: key %s holds record %s", id, c.ID)
		}
		if prev, ok := prior[id]; ok && c.ChangedAt.Before(prev.ChangedAt) {
			return fmt.Errorf("reconcile: changed_at of %s moved backwards", id)
		}
	}
	return nil
}
