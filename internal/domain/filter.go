package domain

// Filter is the search payload sent with every page request.
// The zero value matches the whole catalog.
type Filter struct {
	Places      []string `json:"places,omitempty"`
	Departments []string `json:"departments,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Courses     []string `json:"courses,omitempty"`
	Months      []string `json:"months,omitempty"`
	Sort        string   `json:"sort,omitempty"`
	Type        string   `json:"type,omitempty"` // "all" when empty
}

// IsEmpty reports whether no category restriction is selected.
func (f Filter) IsEmpty() bool {
	return len(f.Places) == 0 && len(f.Departments) == 0 && len(f.Groups) == 0 &&
		len(f.Courses) == 0 && len(f.Months) == 0
}
