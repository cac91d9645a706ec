// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package progressbus is the Progress Bus (C8): a single process-wide
// structure holding the status record of the most recent ingest or sync
// job, with push notifications to subscribers (spec §4.8). Writers are
// the Ingest Orchestrator and the Sync Engine; readers use Snapshot
// (poll), Subscribe (push), and RecoverOnStartup.
package progressbus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
)

// Status is the terminal/non-terminal state of a job (spec §4.4
// "terminal status is one of completed, failed, cancelled").
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// maxErrors bounds the errors slice to the last 10 (spec §4.4, §7
// "truncated (last 10) error messages").
const maxErrors = 10

// Snapshot is an immutable copy of a job's current state, safe to hand
// to a subscriber or serialize to JSON.
type Snapshot struct {
	JobID       string    `json:"job_id"`
	Operation   string    `json:"operation"` // "ingest_html", "ingest_xml", "sync_init", "sync_incremental"
	Status      Status    `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	CurrentFile string    `json:"current_file,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type subscriber struct {
	id int64
	ch chan Snapshot
}

// Bus holds the single most recent job's state and broadcasts updates.
// Its Run loop mirrors the teacher's websocket.Hub: client lifecycle
// events are drained at higher priority than broadcasts so subscriber
// bookkeeping never races a dropped-message decision (grounded on
// internal/websocket/hub.go's deterministic priority-select pattern).
type Bus struct {
	mu       sync.RWMutex
	current  Snapshot
	subs     map[int64]chan Snapshot
	nextSub  int64
	register chan *subscriber
	unregReq chan int64
	broadcast chan Snapshot
}

// NewBus creates an idle Progress Bus.
func NewBus() *Bus {
	return &Bus{
		subs:      make(map[int64]chan Snapshot),
		register:  make(chan *subscriber),
		unregReq:  make(chan int64),
		broadcast: make(chan Snapshot, 64),
	}
}

// Run drains lifecycle and broadcast events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case s := <-b.register:
			b.mu.Lock()
			b.subs[s.id] = s.ch
			b.mu.Unlock()
			continue
		case id := <-b.unregReq:
			b.mu.Lock()
			if ch, ok := b.subs[id]; ok {
				close(ch)
				delete(b.subs, id)
			}
			b.mu.Unlock()
			continue
		default:
		}

		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case s := <-b.register:
			b.mu.Lock()
			b.subs[s.id] = s.ch
			b.mu.Unlock()
		case id := <-b.unregReq:
			b.mu.Lock()
			if ch, ok := b.subs[id]; ok {
				close(ch)
				delete(b.subs, id)
			}
			b.mu.Unlock()
		case snap := <-b.broadcast:
			b.deliverToSubscribers(snap)
		}
	}
}

func (b *Bus) deliverToSubscribers(snap Snapshot) {
	b.mu.RLock()
	ids := make([]int64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	b.mu.RUnlock()

	for _, id := range ids {
		b.mu.RLock()
		ch, ok := b.subs[id]
		b.mu.RUnlock()
		if !ok {
			continue
		}
		select {
		case ch <- snap:
		default:
			logging.Warn().Int64("subscriber", id).Msg("progress bus subscriber channel full, dropping snapshot")
		}
	}
	metrics.ProgressBusBroadcastsTotal.Inc()
}

func (b *Bus) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

// Subscribe registers a new listener and returns a channel of snapshots
// plus an unsubscribe function. The push endpoint (spec §4.8 "snapshot
// plus an update every ~1s") adapts this to frame-by-frame delivery.
func (b *Bus) Subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.mu.Unlock()

	ch := make(chan Snapshot, 8)
	b.register <- &subscriber{id: id, ch: ch}
	metrics.ProgressBusClients.Inc()

	cancel := func() {
		metrics.ProgressBusClients.Dec()
		b.unregReq <- id
	}
	return ch, cancel
}

// Snapshot returns a copy of the current job state (the polling endpoint).
func (b *Bus) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// publish updates the current snapshot and fans it out to subscribers.
func (b *Bus) publish(s Snapshot) {
	b.mu.Lock()
	b.current = s
	b.mu.Unlock()

	select {
	case b.broadcast <- s:
	default:
		logging.Warn().Msg("progress bus broadcast channel full, dropping snapshot")
	}
}

// RecoverOnStartup cancels any job left in "running" state by an
// abnormal shutdown (spec §4.8 "the startup path ... cancels any job
// left in running state"). Called once, before the bus accepts writers.
func (b *Bus) RecoverOnStartup(last *Snapshot) {
	if last == nil {
		return
	}
	recovered := *last
	if recovered.Status == StatusRunning {
		recovered.Status = StatusCancelled
		logging.Warn().Str("job_id", last.JobID).Str("operation", last.Operation).
			Msg("progress bus recovered a job left running across a restart; marking cancelled")
	}
	b.mu.Lock()
	b.current = recovered
	b.mu.Unlock()
}
