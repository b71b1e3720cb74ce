package blobrepos

import (
	"context"
	"sort"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
)

type logbookRepository struct {
	bucket *core.Bucket[[]logbook.Entry]
}

var _ logbook.Repository = (*logbookRepository)(nil)

func NewLogbookRepository(store core.BlobStore, hub *core.Hub) logbook.Repository {
	return &logbookRepository{
		bucket: core.NewBucket(store, hub, core.KeyLogEntries, func() []logbook.Entry { return []logbook.Entry{} }),
	}
}

func (repo *logbookRepository) Create(ctx context.Context, e logbook.Entry) (logbook.Entry, error) {
	if _, err := repo.bucket.Update(ctx, func(all *[]logbook.Entry) error {
		*all = append(*all, e)
		return nil
	}); err != nil {
		return logbook.Entry{}, err
	}
	return e, nil
}

func (repo *logbookRepository) QueryAll(ctx context.Context) ([]logbook.Entry, error) {
	return repo.bucket.Load(ctx)
}

func (repo *logbookRepository) QueryByStudent(ctx context.Context, studentID string) ([]logbook.Entry, error) {
	all, err := repo.bucket.Load(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]logbook.Entry, 0)
	for _, e := range all {
		if e.StudentID == studentID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (repo *logbookRepository) Delete(ctx context.Context, id string) error {
	_, err := repo.bucket.Update(ctx, func(all *[]logbook.Entry) error {
		for i, e := range *all {
			if e.ID == id {
				*all = append((*all)[:i], (*all)[i+1:]...)
				return nil
			}
		}
		return logbook.ErrNotFound
	})
	return err
}

func (repo *logbookRepository) DeleteStudents(ctx context.Context, ids ...string) error {
	remove := toSet(ids)
	_, err := repo.bucket.Update(ctx, func(all *[]logbook.Entry) error {
		kept := make([]logbook.Entry, 0, len(*all))
		for _, e := range *all {
			if !remove[e.StudentID] {
				kept = append(kept, e)
			}
		}
		*all = kept
		return nil
	})
	return err
}
