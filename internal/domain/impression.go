package domain

import (
	"fmt"
	"time"
)

// AttributionWindow selects which conversion-attribution flag counts as a
// purchase when grading an impression.
type AttributionWindow string

const (
	Window1D AttributionWindow = "1d"
	Window7D AttributionWindow = "7d"
)

func ParseAttributionWindow(s string) (AttributionWindow, error) {
	switch AttributionWindow(s) {
	case Window1D, Window7D:
		return AttributionWindow(s), nil
	default:
		return "", fmt.Errorf("unsupported attribution window: %q", s)
	}
}

// Impression is one logged row of a recommendation feed: a single item shown
// at one position of one session, with the interaction flags observed for it.
type Impression struct {
	SessionID string
	UserID    string
	EntityID  string

	// Position is the 1-indexed feed slot; position 1 is the top of the feed.
	Position int

	// Sources lists the candidate generators that proposed this item. An item
	// may carry zero, one, or several source labels.
	Sources []string

	Viewed      bool
	Clicked     bool
	AddedToCart bool
	Purchased1D bool
	Purchased7D bool

	Surface  string
	Segment  string
	Category string

	// Revenue is the attributed revenue in USD; zero when unknown.
	Revenue float64

	EventTime time.Time
}

// Purchased reports whether the impression converted within the given window.
func (i Impression) Purchased(w AttributionWindow) bool {
	if w == Window7D {
		return i.Purchased7D
	}
	return i.Purchased1D
}

// Malformed reports whether the row cannot contribute a feed slot. Such rows
// are counted and dropped, never fatal.
func (i Impression) Malformed() bool {
	return i.SessionID == "" || i.Position <= 0
}
