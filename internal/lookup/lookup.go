// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

// Package lookup resolves astronomical object names to sky coordinates via
// the CDS Sesame service. Calls go through a circuit breaker so an
// unavailable upstream fails fast instead of stalling every request, and
// resolved names are cached.
package lookup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sdss/valis/internal/cache"
	"github.com/sdss/valis/internal/config"
	"github.com/sdss/valis/internal/logging"
	"github.com/sdss/valis/internal/metrics"
)

// ErrNameNotFound indicates Sesame resolved the request but knows no object
// by that name. Not counted as a breaker failure.
var ErrNameNotFound = errors.New("object name not found")

// Coordinates is a resolved ICRS position in decimal degrees.
type Coordinates struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

type resolveResult struct {
	coords Coordinates
	found  bool
}

// Resolver queries the Sesame name resolution service.
type Resolver struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[resolveResult]
	cache   *cache.Cache
	name    string
}

// NewResolver builds a resolver from the lookup configuration. The cache may
// be nil to disable result caching.
func NewResolver(cfg config.LookupConfig, c *cache.Cache) *Resolver {
	cbName := "sesame"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	cb := gobreaker.NewCircuitBreaker[resolveResult](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Name resolver circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Resolver{
		baseURL: strings.TrimRight(cfg.SesameURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
		cache:   c,
		name:    cbName,
	}
}

// Resolve looks up an object name and returns its coordinates.
func (r *Resolver) Resolve(ctx context.Context, name string) (Coordinates, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Coordinates{}, fmt.Errorf("empty object name")
	}

	key := cache.GenerateKey("sesame", name)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if coords, ok := cached.(Coordinates); ok {
				return coords, nil
			}
		}
	}

	result, err := r.cb.Execute(func() (resolveResult, error) {
		return r.fetch(ctx, name)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(r.name, "rejected").Inc()
			logging.Warn().Str("object", name).Msg("Name resolution rejected, circuit open")
			return Coordinates{}, fmt.Errorf("name resolver unavailable: %w", err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "failure").Inc()
		return Coordinates{}, fmt.Errorf("resolving %q: %w", name, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(r.name, "success").Inc()

	if !result.found {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrNameNotFound, name)
	}

	if r.cache != nil {
		r.cache.Set(key, result.coords)
	}
	return result.coords, nil
}

// IsUnavailable reports whether an error came from an open circuit breaker.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// fetch queries Sesame in plain-text mode and parses the decimal J2000
// position line. A name Sesame does not know is not an upstream failure.
func (r *Resolver) fetch(ctx context.Context, name string) (resolveResult, error) {
	u := fmt.Sprintf("%s/-oI/A?%s", r.baseURL, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return resolveResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return resolveResult{}, fmt.Errorf("querying sesame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resolveResult{}, fmt.Errorf("sesame returned status %d", resp.StatusCode)
	}

	coords, found, err := parseSesame(resp.Body)
	if err != nil {
		return resolveResult{}, err
	}
	return resolveResult{coords: coords, found: found}, nil
}

// parseSesame scans Sesame plain-text output for the "%J <ra> <dec>" line.
func parseSesame(body io.Reader) (Coordinates, bool, error) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "%J ") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return Coordinates{}, false, fmt.Errorf("malformed sesame position line %q", line)
		}
		ra, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Coordinates{}, false, fmt.Errorf("parsing sesame ra %q: %w", fields[1], err)
		}
		dec, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Coordinates{}, false, fmt.Errorf("parsing sesame dec %q: %w", fields[2], err)
		}
		return Coordinates{RA: ra, Dec: dec}, true, nil
	}
	if err := scanner.Err(); err != nil {
		return Coordinates{}, false, fmt.Errorf("reading sesame response: %w", err)
	}
	return Coordinates{}, false, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
