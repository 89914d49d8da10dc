package rates

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"parkingfee/parking"
)

// Source tells where a resolved profile came from.
type Source string

const (
	SourceStored  Source = "stored"
	SourceDefault Source = "default"
)

// Resolver picks the profile to price with for a category.
type Resolver struct {
	store Store
	log   *zap.Logger
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve returns the stored profile for category. When nothing usable is
// stored, or the store cannot be read, the built-in preset is returned for
// the weekday and holiday categories. Other categories fail with
// parking.ErrProfileNotFound, or with the store error if the load failed.
func (r *Resolver) Resolve(ctx context.Context, category string) (parking.Profile, Source, error) {
	p, found, err := r.store.Load(ctx, category)
	switch {
	case err != nil:
		r.log.Warn("load rates failed, trying defaults", zap.String("category", category), zap.Error(err))
	case found:
		verr := p.Validate()
		if verr == nil {
			return p, SourceStored, nil
		}
		r.log.Warn("stored rates are invalid, trying defaults", zap.String("category", category), zap.Error(verr))
	}

	if def, ok := parking.DefaultProfile(parking.Category(category)); ok {
		return def, SourceDefault, nil
	}
	if err != nil {
		return parking.Profile{}, "", fmt.Errorf("resolve rates %q: %w", category, err)
	}
	return parking.Profile{}, "", fmt.Errorf("%w: %s", parking.ErrProfileNotFound, category)
}

// SeedDefaults stores each built-in preset whose category is not stored
// yet. It returns the categories it wrote.
func SeedDefaults(ctx context.Context, store Store) ([]parking.Category, error) {
	var seeded []parking.Category
	for _, c := range parking.Presets() {
		ok, err := store.Exists(ctx, string(c))
		if err != nil {
			return seeded, err
		}
		if ok {
			continue
		}
		p, _ := parking.DefaultProfile(c)
		if err := store.Save(ctx, string(c), p); err != nil {
			return seeded, err
		}
		seeded = append(seeded, c)
	}
	return seeded, nil
}
