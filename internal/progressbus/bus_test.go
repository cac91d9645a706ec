// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package progressbus

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/cartographus/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func setupBus(t *testing.T) (*Bus, context.CancelFunc) {
	t.Helper()
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx)
	time.Sleep(10 * time.Millisecond)
	return bus, cancel
}

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus.subs == nil {
		t.Fatal("subs map not initialized")
	}
	if bus.register == nil || bus.unregReq == nil || bus.broadcast == nil {
		t.Fatal("channels not initialized")
	}
}

func TestBusSubscribeReceivesSnapshot(t *testing.T) {
	bus, cancel := setupBus(t)
	defer cancel()

	ch, unsub := bus.Subscribe()
	defer unsub()
	time.Sleep(10 * time.Millisecond)

	job := bus.StartJob("ingest_html", 10, nil)
	job.Update("a.html", true, false, "")

	select {
	case s := <-ch:
		if s.Operation != "ingest_html" {
			t.Fatalf("expected operation ingest_html, got %q", s.Operation)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
}

func TestJobUpdateCapsErrors(t *testing.T) {
	bus, cancel := setupBus(t)
	defer cancel()

	job := bus.StartJob("ingest_xml", 0, nil)
	for i := 0; i < maxErrors+5; i++ {
		job.Update("bad.xml", false, false, "boom")
	}

	snap := job.Snapshot()
	if len(snap.Errors) != maxErrors {
		t.Fatalf("expected %d errors retained, got %d", maxErrors, len(snap.Errors))
	}
	if snap.Failed != maxErrors+5 {
		t.Fatalf("expected failed count %d, got %d", maxErrors+5, snap.Failed)
	}
}

func TestJobFinishSetsTerminalStatus(t *testing.T) {
	bus, cancel := setupBus(t)
	defer cancel()

	job := bus.StartJob("sync_incremental", 1, nil)
	snap := job.Finish(StatusCompleted)

	if !snap.Status.Terminal() {
		t.Fatalf("expected terminal status, got %q", snap.Status)
	}
	if bus.Snapshot().Status != StatusCompleted {
		t.Fatalf("bus snapshot status = %q, want completed", bus.Snapshot().Status)
	}
}

func TestRecoverOnStartupCancelsRunningJob(t *testing.T) {
	bus := NewBus()
	last := &Snapshot{JobID: "abc", Operation: "ingest_html", Status: StatusRunning}
	bus.RecoverOnStartup(last)

	if got := bus.Snapshot().Status; got != StatusCancelled {
		t.Fatalf("expected recovered status cancelled, got %q", got)
	}
}

func TestRecoverOnStartupNilIsNoop(t *testing.T) {
	bus := NewBus()
	bus.RecoverOnStartup(nil)

	if got := bus.Snapshot(); got.JobID != "" {
		t.Fatalf("expected zero-value snapshot, got %+v", got)
	}
}
