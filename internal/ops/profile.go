package ops

import (
	"context"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/profile"
)

// SaveProfile validates and stores the user's profile.
func SaveProfile(ctx context.Context, d *Deps, p profile.Profile) (*profile.Profile, error) {
	saved, err := profile.Save(ctx, d.DB, p)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ShowProfile returns the saved profile, or NOT_FOUND when none is saved.
func ShowProfile(ctx context.Context, d *Deps) (*profile.Profile, error) {
	p, ok, err := profile.Load(ctx, d.DB)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewNotFound("saved profile")
	}
	return &p, nil
}
