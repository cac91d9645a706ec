// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package progressbus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is the writer-side handle a caller (Ingest Orchestrator or Sync
// Engine) uses to report progress against a Bus. Only one Job may be
// active on a Bus at a time, matching spec §4.8's "status record of the
// most recent ingest job" (a single process-wide slot, not a queue).
type Job struct {
	bus *Bus
	mu  sync.Mutex
	s   Snapshot

	persist func(Snapshot)
}

// StartJob begins a new job on the bus, replacing whatever snapshot was
// there before, and returns a handle for reporting progress.
func (b *Bus) StartJob(operation string, total int, persist func(Snapshot)) *Job {
	now := time.Now()
	s := Snapshot{
		JobID:     uuid.NewString(),
		Operation: operation,
		Status:    StatusRunning,
		Total:     total,
		StartedAt: now,
		UpdatedAt: now,
	}
	j := &Job{bus: b, s: s, persist: persist}
	b.publish(s)
	j.maybePersist()
	return j
}

// Update records one file's completion (spec §4.4 "After each file
// completes, update {processed_files, failed_files, current_file, last
// 10 errors}").
func (j *Job) Update(currentFile string, ok bool, skipped bool, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.s.CurrentFile = currentFile
	switch {
	case skipped:
		j.s.Skipped++
	case ok:
		j.s.Processed++
	default:
		j.s.Failed++
		j.s.Errors = append(j.s.Errors, errMsg)
		if len(j.s.Errors) > maxErrors {
			j.s.Errors = j.s.Errors[len(j.s.Errors)-maxErrors:]
		}
	}
	j.s.UpdatedAt = time.Now()
	snap := j.s
	j.bus.publish(snap)
	j.maybePersist()
}

// Finish marks the job terminal (spec §4.4 "terminal status is one of
// completed, failed, cancelled").
func (j *Job) Finish(status Status) Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.s.Status = status
	j.s.UpdatedAt = time.Now()
	snap := j.s
	j.bus.publish(snap)
	j.persistNow()
	return snap
}

// Snapshot returns the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.s
}

// maybePersist writes the current snapshot through the persist callback
// whenever one is set. There is no first-file or time-based throttling
// here or in any caller. The Ingest Orchestrator and the Sync Engine
// start their jobs with a nil callback, so their progress is not
// written through it.
func (j *Job) maybePersist() {
	if j.persist != nil {
		j.persist(j.s)
	}
}

func (j *Job) persistNow() {
	if j.persist != nil {
		j.persist(j.s)
	}
}
