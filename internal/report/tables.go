package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/sync"
	"catalog-sync/internal/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// RenderSummary prints the counts of a finished sync run.
func RenderSummary(w io.Writer, s sync.Summary, clock timezone.Clock) {
	t := newTable(w)
	t.SetTitle("Sync %s", clock.Format(s.StartedAt))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Run", s.RunID},
		{"Pages", s.Fetch.Pages},
		{"Failed pages", s.Fetch.Failures},
		{"Fetched", s.Fetched()},
		{"Skipped records", s.Invalid},
		{"📈 New", len(s.New)},
		{"📉 Expired", len(s.Expired)},
		{"♻️ Revived", len(s.Revived)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Active", s.Active},
		{"Inactive", s.Inactive},
		{"Total", s.Total},
	})
	if !s.Filter.IsEmpty() {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Filter", describeFilter(s.Filter)})
	}
	if !s.Committed {
		t.AppendRow(table.Row{"Committed", "no"})
	}
	if s.ReportFailed {
		t.AppendRow(table.Row{"Change log", "not written"})
	}
	t.Render()
}

// RenderStatus prints snapshot totals followed by the most recent status
// transitions, newest first.
func RenderStatus(w io.Writer, snap domain.Snapshot, clock timezone.Clock, recent int) {
	active, inactive := snap.Counts()

	totals := newTable(w)
	totals.AppendHeader(table.Row{"Active", "Inactive", "Total"})
	totals.AppendRow(table.Row{active, inactive, len(snap)})
	totals.Render()

	if recent <= 0 || len(snap) == 0 {
		return
	}

	courses := snap.Sorted()
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].ChangedAt.After(courses[j].ChangedAt)
	})
	if len(courses) > recent {
		courses = courses[:recent]
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Changed", "State", "ID", "Title", "Center"})
	for _, c := range courses {
		state := "active"
		if !c.IsActive {
			state = "inactive"
		}
		t.AppendRow(table.Row{clock.Format(c.ChangedAt), state, c.ID, c.Title, c.Center})
	}
	t.Render()
}

func describeFilter(f domain.Filter) string {
	var parts []string
	add := func(name string, vals []string) {
		if len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(vals, ",")))
		}
	}
	add("place", f.Places)
	add("department", f.Departments)
	add("group", f.Groups)
	add("course", f.Courses)
	add("month", f.Months)
	if f.Sort != "" {
		parts = append(parts, "sort="+f.Sort)
	}
	if f.Type != "" {
		parts = append(parts, "type="+f.Type)
	}
	return strings.Join(parts, " ")
}
