// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package services

import (
	"context"
	"time"

	"github.com/sdss/valis/internal/logging"
)

// Pinger matches the database health-check method.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBPingService periodically verifies catalog database connectivity so a
// broken connection shows up in the logs before a request hits it.
type DBPingService struct {
	db       Pinger
	interval time.Duration
	name     string
}

// NewDBPingService creates a keepalive service for the catalog database.
func NewDBPingService(db Pinger, interval time.Duration) *DBPingService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DBPingService{
		db:       db,
		interval: interval,
		name:     "db-ping",
	}
}

// Serve implements suture.Service.
func (s *DBPingService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := s.db.Ping(pingCtx)
			cancel()
			if err != nil {
				logging.Warn().Err(err).Msg("Catalog database ping failed")
			}
		}
	}
}

// String identifies the service in supervisor log messages.
func (s *DBPingService) String() string {
	return s.name
}
