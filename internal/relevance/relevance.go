// Package relevance maps interaction records to integer relevance grades.
// The grade policy is a small closed set of variants selected by
// configuration so that grading logic lives in one place.
package relevance

import (
	"fmt"

	"github.com/ranklens/ranklens/internal/domain"
)

type Policy string

const (
	// PolicyBinary grades 1 for a purchase within the attribution window,
	// 0 otherwise.
	PolicyBinary Policy = "binary"
	// PolicyGraded grades by the strongest interaction observed:
	// purchase > add-to-cart > click > view > nothing.
	PolicyGraded Policy = "graded"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyBinary, PolicyGraded:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unsupported relevance policy: %q", s)
	}
}

const (
	GradeNone      = 0
	GradeViewed    = 1
	GradeClicked   = 2
	GradeCarted    = 3
	GradePurchased = 4
)

// Grade returns the relevance grade for one impression under the given
// policy and attribution window. It is total: unknown or missing flags
// grade as 0, never an error.
func Grade(imp domain.Impression, p Policy, w domain.AttributionWindow) int {
	purchased := imp.Purchased(w)

	if p == PolicyBinary {
		if purchased {
			return 1
		}
		return GradeNone
	}

	switch {
	case purchased:
		return GradePurchased
	case imp.AddedToCart:
		return GradeCarted
	case imp.Clicked:
		return GradeClicked
	case imp.Viewed:
		return GradeViewed
	default:
		return GradeNone
	}
}
