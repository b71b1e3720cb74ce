package blobrepos

import (
	"context"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
)

type scoreRepository struct {
	bucket *core.Bucket[score.Scores]
}

var _ score.Repository = (*scoreRepository)(nil)

func NewScoreRepository(store core.BlobStore, hub *core.Hub) score.Repository {
	return &scoreRepository{
		bucket: core.NewBucket(store, hub, core.KeyScores, func() score.Scores { return score.Scores{} }),
	}
}

func (repo *scoreRepository) All(ctx context.Context) (score.Scores, error) {
	return repo.bucket.Load(ctx)
}

func (repo *scoreRepository) Get(ctx context.Context, studentID string) (score.ScoreSet, error) {
	all, err := repo.bucket.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ss, ok := all[studentID]; ok && ss != nil {
		return ss, nil
	}
	return score.ScoreSet{}, nil
}

func (repo *scoreRepository) SetMark(ctx context.Context, studentID, categoryID string, mark int) (score.ScoreSet, error) {
	all, err := repo.bucket.Update(ctx, func(all *score.Scores) error {
		if *all == nil {
			*all = score.Scores{}
		}
		if (*all)[studentID] == nil {
			(*all)[studentID] = score.ScoreSet{}
		}
		(*all)[studentID][categoryID] = mark
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all[studentID], nil
}

func (repo *scoreRepository) ClearMark(ctx context.Context, studentID, categoryID string) (score.ScoreSet, error) {
	all, err := repo.bucket.Update(ctx, func(all *score.Scores) error {
		if ss, ok := (*all)[studentID]; ok {
			delete(ss, categoryID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ss, ok := all[studentID]; ok {
		return ss, nil
	}
	return score.ScoreSet{}, nil
}

func (repo *scoreRepository) DeleteStudents(ctx context.Context, ids ...string) error {
	_, err := repo.bucket.Update(ctx, func(all *score.Scores) error {
		for _, id := range ids {
			delete(*all, id)
		}
		return nil
	})
	return err
}
