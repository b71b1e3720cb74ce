// Package grade converts raw NEA and exam marks into percentages and 1-9 grades.
//
// Two lookup policies coexist on purpose:
//   - FromPercentage is used for blended predictions and never returns U (floor is grade 1).
//   - FromRawMark is used for direct marks and returns U below the grade 1 threshold.
//
// Everything in this package is a pure function of its inputs.
package grade

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Grade is a GCSE style grade: 1 (lowest) to 9 (highest), or U (0) for unclassified.
type Grade int

const (
	U   Grade = 0
	Min Grade = 1
	Max Grade = 9
)

func (g Grade) String() string {
	if g == U {
		return "U"
	}
	return strconv.Itoa(int(g))
}

func (g Grade) Valid() bool { return g >= U && g <= Max }

// ParseGrade accepts "U" (any case) or "0".."9".
func ParseGrade(s string) (Grade, error) {
	if s == "U" || s == "u" {
		return U, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Grade(n).Valid() {
		return U, errors.Errorf("invalid grade %q", s)
	}
	return Grade(n), nil
}

// Round rounds half up, matching the rounding the stored expectations were computed with.
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Percent returns round(100 * total / max), or 0 when max is not positive.
func Percent(total, max int) int {
	if max <= 0 {
		return 0
	}
	return Round(100 * float64(total) / float64(max))
}

// Target statuses
const (
	StatusAbove = "above"
	StatusOn    = "on"
	StatusBelow = "below"
)

// TargetStatus compares a predicted grade with a target grade.
func TargetStatus(predicted, target Grade) string {
	switch {
	case predicted > target:
		return StatusAbove
	case predicted == target:
		return StatusOn
	default:
		return StatusBelow
	}
}
