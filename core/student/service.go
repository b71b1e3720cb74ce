package student

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("student")
	ErrDuplicate = errors.New("a student with this name already exists in this group")
)

// Orderable fields
var OrderingFields = []string{"name", "group", "target_grade", "created_at"}

type (
	Repository interface {
		// CheckUniqueness returns ErrDuplicate when another student has the same name and group (case-insensitive).
		CheckUniqueness(ctx context.Context, name, group string, excluded ...Student) error
		CreateStudents(ctx context.Context, students ...Student) ([]Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		// Filter applies QueryFilter.Match then sorts by ordering, falling back to name.
		Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		Update(ctx context.Context, s Student) (Student, error)
		DeleteByID(ctx context.Context, ids ...string) error
	}

	// Dependent owns per-student records that must go when a student is deleted.
	Dependent interface {
		DeleteStudents(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name, group string, excluded ...Student) error
		Create(ctx context.Context, ns NewStudent) (Student, error)
		CreateMany(ctx context.Context, nss ...NewStudent) ([]Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		Groups(ctx context.Context) ([]string, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo       Repository
		dependents []Dependent
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, dependents ...Dependent) Service {
	return &service{repo: repo, dependents: dependents}
}

func (svc *service) CheckUniqueness(ctx context.Context, name, group string, excluded ...Student) error {
	if err := svc.repo.CheckUniqueness(ctx, name, group, excluded...); err != nil {
		if err == ErrDuplicate {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) newStudent(ns NewStudent) Student {
	now := core.NowFunc().UTC()
	return Student{
		ID:              uuid.NewString(),
		Name:            ns.Name,
		Group:           ns.Group,
		TargetGrade:     ns.TargetGrade,
		CandidateNumber: ns.CandidateNumber,
		Gender:          ns.Gender,
		SEN:             ns.SEN,
		PupilPremium:    ns.PupilPremium,
		EAL:             ns.EAL,
		Notes:           ns.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	students, err := svc.repo.CreateStudents(ctx, svc.newStudent(ns))
	if err != nil {
		return Student{}, err
	}
	return students[0], nil
}

// CreateMany saves already validated students in a single write.
func (svc *service) CreateMany(ctx context.Context, nss ...NewStudent) ([]Student, error) {
	if len(nss) == 0 {
		return []Student{}, nil
	}
	students := make([]Student, 0, len(nss))
	for _, ns := range nss {
		students = append(students, svc.newStudent(ns))
	}
	return svc.repo.CreateStudents(ctx, students...)
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAll(ctx)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	var qf QueryFilter
	if filter != nil {
		qf = *filter
		qf.Clean()
	}
	return svc.repo.Filter(ctx, qf, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetByID(ctx, id)
}

// Groups returns the distinct groups of the roster, sorted.
func (svc *service) Groups(ctx context.Context) ([]string, error) {
	students, err := svc.repo.Filter(ctx, QueryFilter{}, []core.DBOrdering{{Field: "group", Ascending: true}})
	if err != nil {
		return nil, err
	}
	groups := make([]string, 0)
	seen := make(map[string]bool)
	for _, s := range students {
		if !seen[s.Group] {
			seen[s.Group] = true
			groups = append(groups, s.Group)
		}
	}
	return groups, nil
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	return svc.repo.Update(ctx, Student{
		ID:              id,
		Name:            us.Name,
		Group:           us.Group,
		TargetGrade:     us.TargetGrade,
		CandidateNumber: us.CandidateNumber,
		Gender:          us.Gender,
		SEN:             us.SEN,
		PupilPremium:    us.PupilPremium,
		EAL:             us.EAL,
		Notes:           us.Notes,
		UpdatedAt:       core.NowFunc().UTC(),
	})
}

// Delete removes students along with their score sets and log entries.
func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := svc.repo.DeleteByID(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	for _, dep := range svc.dependents {
		if err := dep.DeleteStudents(ctx, ids...); err != nil {
			return errors.Wrap(err, "deleting student records")
		}
	}
	return nil
}
