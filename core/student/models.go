package student

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
)

// DefaultGroup is used when a student is imported without a class/group.
const DefaultGroup = "Unassigned"

// DefaultTargetGrade is used when an import row has no target grade.
const DefaultTargetGrade grade.Grade = 4

// Student is one roster entry. Context fields are optional and unused by grade prediction.
type Student struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Group           string      `json:"group"`
	TargetGrade     grade.Grade `json:"target_grade"`
	CandidateNumber *string     `json:"candidate_number,omitempty"`
	Gender          *string     `json:"gender,omitempty"`
	SEN             *string     `json:"sen,omitempty"`
	PupilPremium    *bool       `json:"pupil_premium,omitempty"`
	EAL             *bool       `json:"eal,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
	UpdatedAt       time.Time   `json:"updated_at"` // UTC
}

// SameAs reports whether s has the same name and group as another student, ignoring case.
func (s Student) SameAs(name, group string) bool {
	return strings.EqualFold(s.Name, name) && strings.EqualFold(s.Group, group)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name            string      `json:"name" validate:"required,notblank"`
	Group           string      `json:"group" validate:"required,notblank"`
	TargetGrade     grade.Grade `json:"target_grade" validate:"grade"`
	CandidateNumber *string     `json:"candidate_number"`
	Gender          *string     `json:"gender"`
	SEN             *string     `json:"sen"`
	PupilPremium    *bool       `json:"pupil_premium"`
	EAL             *bool       `json:"eal"`
	Notes           *string     `json:"notes"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service, excluded ...Student) error {
	ns.Name = CleanName(ns.Name)
	ns.Group = CleanName(ns.Group)
	ns.CandidateNumber = cleanOptional(ns.CandidateNumber)
	ns.Gender = cleanOptional(ns.Gender)
	ns.SEN = cleanOptional(ns.SEN)
	ns.Notes = cleanOptional(ns.Notes)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	return svc.CheckUniqueness(ctx, ns.Name, ns.Group, excluded...)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Blank name, group and target keep the current value; optional fields are replaced as given.
type UpdateStudent struct {
	Name            string      `json:"name"`
	Group           string      `json:"group"`
	TargetGrade     grade.Grade `json:"target_grade" validate:"omitempty,grade"`
	CandidateNumber *string     `json:"candidate_number"`
	Gender          *string     `json:"gender"`
	SEN             *string     `json:"sen"`
	PupilPremium    *bool       `json:"pupil_premium"`
	EAL             *bool       `json:"eal"`
	Notes           *string     `json:"notes"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, validate *validator.Validate, svc Service) error {
	if name := CleanName(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if group := CleanName(us.Group); group != "" {
		us.Group = group
	} else {
		us.Group = orig.Group
	}
	if us.TargetGrade == grade.U {
		us.TargetGrade = orig.TargetGrade
	}
	us.CandidateNumber = cleanOptional(us.CandidateNumber)
	us.Gender = cleanOptional(us.Gender)
	us.SEN = cleanOptional(us.SEN)
	us.Notes = cleanOptional(us.Notes)

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.Name, us.Group, orig)
}

type QueryFilter struct {
	Search string `query:"search"`
	Group  string `query:"group"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Group == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Group = core.CleanString(qf.Group)
}

// Match reports whether s passes the filter. Search is a case-insensitive match on name or candidate number.
func (qf QueryFilter) Match(s Student) bool {
	if qf.Group != "" && !strings.EqualFold(s.Group, qf.Group) {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if strings.Contains(strings.ToLower(s.Name), search) {
			return true
		}
		return s.CandidateNumber != nil && strings.Contains(strings.ToLower(*s.CandidateNumber), search)
	}
	return true
}

// CleanName trims s and collapses inner runs of whitespace to one space.
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := core.CleanString(*s)
	if v == "" {
		return nil
	}
	return &v
}
