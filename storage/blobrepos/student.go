// Package blobrepos implements the domain repositories on top of named JSON blobs.
package blobrepos

import (
	"context"
	"sort"
	"strings"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

type studentRepository struct {
	bucket *core.Bucket[[]student.Student]
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(store core.BlobStore, hub *core.Hub) student.Repository {
	return &studentRepository{
		bucket: core.NewBucket(store, hub, core.KeyStudents, func() []student.Student { return []student.Student{} }),
	}
}

func checkUniqueness(students []student.Student, name, group string, excluded []student.Student) error {
	for _, s := range students {
		if !s.SameAs(name, group) {
			continue
		}
		var skip bool
		for _, ex := range excluded {
			if ex.ID == s.ID {
				skip = true
				break
			}
		}
		if !skip {
			return student.ErrDuplicate
		}
	}
	return nil
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, name, group string, excluded ...student.Student) error {
	students, err := repo.bucket.Load(ctx)
	if err != nil {
		return err
	}
	return checkUniqueness(students, name, group, excluded)
}

func (repo *studentRepository) CreateStudents(ctx context.Context, students ...student.Student) ([]student.Student, error) {
	if _, err := repo.bucket.Update(ctx, func(all *[]student.Student) error {
		*all = append(*all, students...)
		return nil
	}); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo *studentRepository) QueryAll(ctx context.Context) ([]student.Student, error) {
	return repo.bucket.Load(ctx)
}

func (repo *studentRepository) GetByID(ctx context.Context, id string) (student.Student, error) {
	students, err := repo.bucket.Load(ctx)
	if err != nil {
		return student.Student{}, err
	}
	for _, s := range students {
		if s.ID == id {
			return s, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) Filter(ctx context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	students, err := repo.bucket.Load(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]student.Student, 0, len(students))
	for _, s := range students {
		if filter.Match(s) {
			filtered = append(filtered, s)
		}
	}
	sortStudents(filtered, ordering)
	return filtered, nil
}

// sortStudents applies ordering then falls back to name and id. Unknown fields are ignored.
func sortStudents(students []student.Student, ordering []core.DBOrdering) {
	ordering = append(ordering[:len(ordering):len(ordering)], core.DBOrdering{Field: "name", Ascending: true}, core.DBOrdering{Field: "id", Ascending: true})
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		for _, ord := range ordering {
			var c int
			switch ord.Field {
			case "name":
				c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			case "group":
				c = strings.Compare(strings.ToLower(a.Group), strings.ToLower(b.Group))
			case "target_grade":
				c = int(a.TargetGrade) - int(b.TargetGrade)
			case "created_at":
				c = a.CreatedAt.Compare(b.CreatedAt)
			case "id":
				c = strings.Compare(a.ID, b.ID)
			}
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func (repo *studentRepository) Update(ctx context.Context, s student.Student) (student.Student, error) {
	var updated student.Student
	_, err := repo.bucket.Update(ctx, func(all *[]student.Student) error {
		for i := range *all {
			orig := &(*all)[i]
			if orig.ID != s.ID {
				continue
			}
			orig.Name = s.Name
			orig.Group = s.Group
			orig.TargetGrade = s.TargetGrade
			orig.CandidateNumber = s.CandidateNumber
			orig.Gender = s.Gender
			orig.SEN = s.SEN
			orig.PupilPremium = s.PupilPremium
			orig.EAL = s.EAL
			orig.Notes = s.Notes
			orig.UpdatedAt = s.UpdatedAt
			updated = *orig
			return nil
		}
		return student.ErrNotFound
	})
	if err != nil {
		return student.Student{}, err
	}
	return updated, nil
}

func (repo *studentRepository) DeleteByID(ctx context.Context, ids ...string) error {
	remove := toSet(ids)
	_, err := repo.bucket.Update(ctx, func(all *[]student.Student) error {
		kept := make([]student.Student, 0, len(*all))
		for _, s := range *all {
			if !remove[s.ID] {
				kept = append(kept, s)
			}
		}
		*all = kept
		return nil
	})
	return err
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
