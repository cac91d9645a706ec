// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package searchengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBulkUpsertDocumentsDeclaresPrimaryKey(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("primaryKey")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Task{UID: 1, Status: "enqueued"})
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL})
	task, err := c.BulkUpsertDocuments(context.Background(), "segments", []map[string]string{{"id": "s1"}})
	if err != nil {
		t.Fatalf("BulkUpsertDocuments: %v", err)
	}
	if gotQuery != "id" {
		t.Fatalf("expected primaryKey=id query param, got %q", gotQuery)
	}
	if task.UID != 1 {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestWaitForTaskSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := "processing"
		if calls >= 2 {
			status = "succeeded"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Task{UID: 7, Status: status})
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL})
	task, err := c.WaitForTask(context.Background(), 7, 5*time.Second)
	if err != nil {
		t.Fatalf("WaitForTask: %v", err)
	}
	if task.Status != "succeeded" {
		t.Fatalf("expected succeeded, got %q", task.Status)
	}
}

func TestWaitForTaskSurfacesFailureMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Task{
			UID:    9,
			Status: "failed",
			Error: &struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			}{Message: "index does not exist", Code: "index_not_found"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL})
	_, err := c.WaitForTask(context.Background(), 9, 5*time.Second)
	if err == nil {
		t.Fatal("expected error for failed task")
	}
	var engineErr *Error
	if !asEngineError(err, &engineErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if engineErr.Kind != KindBadRequest || engineErr.Message != "index does not exist" {
		t.Fatalf("unexpected error: %+v", engineErr)
	}
}

func TestDoRequestMaps5xxToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{Host: srv.URL})
	_, err := c.CreateIndex(context.Background(), "segments", "id")
	var engineErr *Error
	if !asEngineError(err, &engineErr) || engineErr.Kind != KindUnavailable {
		t.Fatalf("expected EngineUnavailable, got %v", err)
	}
}

func asEngineError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
