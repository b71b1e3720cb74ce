package grade

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Table maps each grade to its minimum threshold. Index 0 (U) is unused.
//
// Thresholds are marks out of 200 when used with FromPercentage and raw marks
// when used with FromRawMark. A well formed table strictly decreases from 9 to 1;
// this is checked by Validate but never enforced on edit.
type Table [10]int

// Boundary is one grade/threshold pair.
type Boundary struct {
	Grade     Grade `json:"grade"`
	Threshold int   `json:"threshold"`
}

// DefaultTable is the boundary table applied until a teacher edits it.
var DefaultTable = Table{0, 21, 46, 71, 96, 112, 129, 145, 159, 174}

func (t Table) Threshold(g Grade) int {
	if g < Min || g > Max {
		return 0
	}
	return t[g]
}

// Entries returns the table ordered from grade 9 down to grade 1.
func (t Table) Entries() []Boundary {
	entries := make([]Boundary, 0, int(Max))
	for g := Max; g >= Min; g-- {
		entries = append(entries, Boundary{Grade: g, Threshold: t[g]})
	}
	return entries
}

// Validate reports the first grade whose threshold does not exceed the one below it.
func (t Table) Validate() error {
	for g := Max; g > Min; g-- {
		if t[g] <= t[g-1] {
			return errors.Errorf("grade %d threshold (%d) must be greater than grade %d threshold (%d)", g, t[g], g-1, t[g-1])
		}
	}
	for g := Min; g <= Max; g++ {
		if t[g] < 0 {
			return errors.Errorf("grade %d threshold cannot be negative", g)
		}
	}
	return nil
}

// FromPercentage returns the highest grade g (9 down to 1) with pct >= threshold[g]/2.
// Below every threshold the result is grade 1, never U.
func (t Table) FromPercentage(pct int) Grade {
	for g := Max; g >= Min; g-- {
		if 2*pct >= t[g] {
			return g
		}
	}
	return Min
}

// FromRawMark returns the highest grade g (9 down to 1) with mark >= threshold[g].
// Below the grade 1 threshold the result is U.
func (t Table) FromRawMark(mark int) Grade {
	for g := Max; g >= Min; g-- {
		if mark >= t[g] {
			return g
		}
	}
	return U
}

// MarshalJSON encodes the table as {"9":174,...,"1":21}, the layout of exported gradebooks.
func (t Table) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, int(Max))
	for g := Min; g <= Max; g++ {
		m[strconv.Itoa(int(g))] = t[g]
	}
	return json.Marshal(m)
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "decoding boundary table")
	}
	for k, v := range m {
		g, err := ParseGrade(k)
		if err != nil || g == U {
			return errors.Errorf("invalid boundary grade %q", k)
		}
		t[g] = v
	}
	return nil
}

// Table names
const (
	TableCoursework = "coursework"
	TableExam       = "exam"
	TableOverall    = "overall"
)

// Boundaries holds the three conceptually independent boundary tables.
type Boundaries struct {
	Coursework Table `json:"coursework"`
	Exam       Table `json:"exam"`
	Overall    Table `json:"overall"`
}

func DefaultBoundaries() Boundaries {
	return Boundaries{Coursework: DefaultTable, Exam: DefaultTable, Overall: DefaultTable}
}

// Table returns the named table.
func (b Boundaries) Table(name string) (Table, error) {
	switch name {
	case TableCoursework:
		return b.Coursework, nil
	case TableExam:
		return b.Exam, nil
	case TableOverall:
		return b.Overall, nil
	}
	return Table{}, errors.Errorf("unknown boundary table %q", name)
}

// Set updates the threshold of grade g in the named table.
// Editing the overall table cascades the same value into the coursework and exam tables.
func (b *Boundaries) Set(table string, g Grade, threshold int) error {
	if g < Min || g > Max {
		return errors.Errorf("invalid grade %d", g)
	}
	if threshold < 0 {
		return errors.New("threshold cannot be negative")
	}

	switch table {
	case TableOverall:
		b.Overall[g] = threshold
		b.Coursework[g] = threshold
		b.Exam[g] = threshold
	case TableCoursework:
		b.Coursework[g] = threshold
	case TableExam:
		b.Exam[g] = threshold
	default:
		return errors.Errorf("unknown boundary table %q", table)
	}
	return nil
}

// Validate returns one warning per malformed table.
func (b Boundaries) Validate() []string {
	var warnings []string
	for _, nt := range []struct {
		name  string
		table Table
	}{{TableCoursework, b.Coursework}, {TableExam, b.Exam}, {TableOverall, b.Overall}} {
		if err := nt.table.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", nt.name, err))
		}
	}
	return warnings
}
