package main

import (
	"context"
	"strings"

	"github.com/meikuraledutech/roadmap"
	"github.com/meikuraledutech/roadmap/config"
	"github.com/meikuraledutech/roadmap/postgres"
	"github.com/meikuraledutech/roadmap/sqlite"
)

type closableStore interface {
	roadmap.Store
	Close() error
}

// openStore opens the backend the database URL selects.
func openStore(ctx context.Context, dsn string) (closableStore, error) {
	if config.DetectDriver(dsn) == config.DriverPostgres {
		s, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	if err != nil {
		return nil, err
	}
	return s, nil
}
