package domain

import "time"

// Filter narrows an impression set before session grouping. Empty string
// fields and zero times match everything.
type Filter struct {
	Surface  string
	Segment  string
	Category string
	From     time.Time
	To       time.Time
}

func (f Filter) Match(imp Impression) bool {
	if f.Surface != "" && imp.Surface != f.Surface {
		return false
	}
	if f.Segment != "" && imp.Segment != f.Segment {
		return false
	}
	if f.Category != "" && imp.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && imp.EventTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !imp.EventTime.Before(f.To) {
		return false
	}
	return true
}

// FilterOptions lists the distinct label values present in recent data,
// used by serving layers to populate filter dropdowns.
type FilterOptions struct {
	Surfaces   []string
	Segments   []string
	Categories []string
	Sources    []string
}
