// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package searchengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// BreakerClient wraps Client with a circuit breaker, grounded directly on
// internal/sync/circuit_breaker.go's CircuitBreakerClient: same settings
// (3 half-open requests, 1 minute measurement window, 2 minute open
// timeout, trip at >=60% failures with >=10 requests), same state-change
// metrics wiring, generalized from one Tautulli client method set to
// this engine's method set.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient wraps client with the standard engine circuit breaker.
func NewBreakerClient(client *Client) *BreakerClient {
	name := "search-engine"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).
				Msg("search engine circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{client: client, cb: cb, name: name}
}

func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, unavailable("circuit breaker open", err)
		}
		return nil, err
	}
	return result, nil
}

func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("search engine: unexpected result type %T", result)
	}
	return typed, nil
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

func (bc *BreakerClient) CreateIndex(ctx context.Context, uid, primaryKey string) (*Task, error) {
	return castResult[Task](bc.execute(func() (interface{}, error) { return bc.client.CreateIndex(ctx, uid, primaryKey) }))
}

func (bc *BreakerClient) UpdateSettings(ctx context.Context, indexUID string, settings IndexSettings) (*Task, error) {
	return castResult[Task](bc.execute(func() (interface{}, error) { return bc.client.UpdateSettings(ctx, indexUID, settings) }))
}

func (bc *BreakerClient) BulkUpsertDocuments(ctx context.Context, indexUID string, documents interface{}) (*Task, error) {
	return castResult[Task](bc.execute(func() (interface{}, error) { return bc.client.BulkUpsertDocuments(ctx, indexUID, documents) }))
}

func (bc *BreakerClient) GetTask(ctx context.Context, uid int64) (*Task, error) {
	return castResult[Task](bc.execute(func() (interface{}, error) { return bc.client.GetTask(ctx, uid) }))
}

func (bc *BreakerClient) WaitForTask(ctx context.Context, uid int64, timeout time.Duration) (*Task, error) {
	return castResult[Task](bc.execute(func() (interface{}, error) { return bc.client.WaitForTask(ctx, uid, timeout) }))
}

func (bc *BreakerClient) Search(ctx context.Context, indexUID string, req SearchRequest) (*SearchResponse, error) {
	return castResult[SearchResponse](bc.execute(func() (interface{}, error) { return bc.client.Search(ctx, indexUID, req) }))
}

func (bc *BreakerClient) SimilarDocuments(ctx context.Context, indexUID, documentID string, limit int) (*SearchResponse, error) {
	return castResult[SearchResponse](bc.execute(func() (interface{}, error) {
		return bc.client.SimilarDocuments(ctx, indexUID, documentID, limit)
	}))
}
