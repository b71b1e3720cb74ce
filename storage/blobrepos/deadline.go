package blobrepos

import (
	"context"
	"sort"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
)

type deadlineRepository struct {
	bucket *core.Bucket[[]deadline.Deadline]
}

var _ deadline.Repository = (*deadlineRepository)(nil)

func NewDeadlineRepository(store core.BlobStore, hub *core.Hub) deadline.Repository {
	return &deadlineRepository{
		bucket: core.NewBucket(store, hub, core.KeyDeadlines, func() []deadline.Deadline { return []deadline.Deadline{} }),
	}
}

func (repo *deadlineRepository) Create(ctx context.Context, d deadline.Deadline) (deadline.Deadline, error) {
	if _, err := repo.bucket.Update(ctx, func(all *[]deadline.Deadline) error {
		*all = append(*all, d)
		return nil
	}); err != nil {
		return deadline.Deadline{}, err
	}
	return d, nil
}

func (repo *deadlineRepository) QueryAll(ctx context.Context) ([]deadline.Deadline, error) {
	all, err := repo.bucket.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].DueDate.Equal(all[j].DueDate) {
			return all[i].DueDate.Before(all[j].DueDate)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (repo *deadlineRepository) GetByID(ctx context.Context, id string) (deadline.Deadline, error) {
	all, err := repo.bucket.Load(ctx)
	if err != nil {
		return deadline.Deadline{}, err
	}
	for _, d := range all {
		if d.ID == id {
			return d, nil
		}
	}
	return deadline.Deadline{}, deadline.ErrNotFound
}

func (repo *deadlineRepository) Update(ctx context.Context, id string, fn func(d *deadline.Deadline)) (deadline.Deadline, error) {
	var updated deadline.Deadline
	_, err := repo.bucket.Update(ctx, func(all *[]deadline.Deadline) error {
		for i := range *all {
			if (*all)[i].ID == id {
				fn(&(*all)[i])
				updated = (*all)[i]
				return nil
			}
		}
		return deadline.ErrNotFound
	})
	if err != nil {
		return deadline.Deadline{}, err
	}
	return updated, nil
}

func (repo *deadlineRepository) Delete(ctx context.Context, id string) error {
	_, err := repo.bucket.Update(ctx, func(all *[]deadline.Deadline) error {
		for i, d := range *all {
			if d.ID == id {
				*all = append((*all)[:i], (*all)[i+1:]...)
				return nil
			}
		}
		return deadline.ErrNotFound
	})
	return err
}
