// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package searchengine is a thin REST client for a Meilisearch-compatible
// search engine: index/settings management, bulk document upserts, task
// polling, and search. No Meilisearch Go client exists in the retrieved
// corpus, so this client is hand-written on the teacher's generic
// HTTP-request idiom (internal/sync/plex_request.go's requestConfig/
// doRequest shape) and wrapped in the teacher's circuit breaker
// (internal/sync/circuit_breaker.go).
package searchengine

import "fmt"

// ErrorKind classifies an engine failure per spec §7.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "EngineUnavailable"
	KindBadRequest  ErrorKind = "EngineBadRequest"
	KindTaskTimeout ErrorKind = "TaskTimeout"
)

// Error is the typed error the Sync Engine (C6) and Query Translator (C7)
// classify by Kind (spec §7).
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func unavailable(msg string, cause error) error {
	return &Error{Kind: KindUnavailable, Message: msg, Cause: cause}
}

func badRequest(msg string, cause error) error {
	return &Error{Kind: KindBadRequest, Message: msg, Cause: cause}
}

func taskTimeout(msg string) error {
	return &Error{Kind: KindTaskTimeout, Message: msg}
}
