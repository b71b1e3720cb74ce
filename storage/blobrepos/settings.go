package blobrepos

import (
	"context"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
)

type settingsRepository struct {
	bucket *core.Bucket[settings.Settings]
}

var _ settings.Repository = (*settingsRepository)(nil)

func NewSettingsRepository(store core.BlobStore, hub *core.Hub) settings.Repository {
	return &settingsRepository{
		bucket: core.NewBucket(store, hub, core.KeySettings, settings.Default),
	}
}

// Get repairs weights that do not sum to 100, which can only come from hand edited blobs.
func (repo *settingsRepository) Get(ctx context.Context) (settings.Settings, error) {
	s, err := repo.bucket.Load(ctx)
	if err != nil {
		return settings.Settings{}, err
	}
	s.Weights.Normalize()
	return s, nil
}

func (repo *settingsRepository) Update(ctx context.Context, fn func(s *settings.Settings) error) (settings.Settings, error) {
	return repo.bucket.Update(ctx, fn)
}
