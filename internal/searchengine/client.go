// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package searchengine

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// Client is a bare HTTP client for a Meilisearch-compatible engine.
// Circuit breaking is applied one layer up, by BreakerClient.
type Client struct {
	baseURL    string
	masterKey  string
	httpClient *http.Client
}

// Config configures a Client (spec §6 "engine host, engine master key";
// §9 "engine timeout").
type Config struct {
	Host      string
	MasterKey string
	Timeout   time.Duration
}

// NewClient creates a Client against the configured engine host.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.Host,
		masterKey:  cfg.MasterKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// requestConfig mirrors the teacher's internal/sync/plex_request.go shape:
// method/path/query plus expected-status handling, generalized to also
// carry a JSON request body for POST/PUT/PATCH calls.
type requestConfig struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	// timeout overrides the client's default for this one call (spec §9:
	// "120s for bulk document POST").
	timeout time.Duration
}

func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := c.baseURL + cfg.path
	if len(cfg.query) > 0 {
		reqURL += "?" + cfg.query.Encode()
	}

	var bodyReader *bytes.Reader
	if cfg.body != nil {
		data, err := json.Marshal(cfg.body)
		if err != nil {
			return badRequest("marshal request body", err)
		}
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, bodyReader)
	if err != nil {
		return unavailable("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.masterKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.masterKey)
	}

	client := c.httpClient
	if cfg.timeout > 0 && cfg.timeout != client.Timeout {
		clientCopy := *client
		clientCopy.Timeout = cfg.timeout
		client = &clientCopy
	}

	resp, err := client.Do(req)
	if err != nil {
		return unavailable(fmt.Sprintf("%s %s", cfg.method, cfg.path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return unavailable(fmt.Sprintf("engine returned %d for %s %s", resp.StatusCode, cfg.method, cfg.path), nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return unavailable("engine rate limited the request", nil)
	}
	if resp.StatusCode >= 400 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		msg := body.Message
		if msg == "" {
			msg = resp.Status
		}
		return badRequest(msg, nil)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return unavailable("decode engine response", err)
		}
	}
	return nil
}

// Task is the engine's asynchronous-operation handle.
type Task struct {
	UID       int64  `json:"taskUid"`
	IndexUID  string `json:"indexUid,omitempty"`
	Status    string `json:"status"` // enqueued, processing, succeeded, failed
	Type      string `json:"type,omitempty"`
	Error     *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// IndexSettings declares one index's searchable/filterable/sortable
// attributes, typo tolerance, pagination caps, synonyms, stopwords, and
// optional semantic embedder configuration (spec §4.6 "Init").
type IndexSettings struct {
	SearchableAttributes []string            `json:"searchableAttributes,omitempty"`
	FilterableAttributes []string            `json:"filterableAttributes,omitempty"`
	SortableAttributes   []string            `json:"sortableAttributes,omitempty"`
	DisplayedAttributes  []string            `json:"displayedAttributes,omitempty"`
	TypoTolerance        *TypoTolerance      `json:"typoTolerance,omitempty"`
	Pagination           *PaginationSettings `json:"pagination,omitempty"`
	Synonyms             map[string][]string `json:"synonyms,omitempty"`
	StopWords            []string            `json:"stopWords,omitempty"`
	Embedders            map[string]Embedder `json:"embedders,omitempty"`
}

// TypoTolerance configures the engine's fuzzy-match leniency.
type TypoTolerance struct {
	Enabled bool `json:"enabled"`
}

// PaginationSettings caps the maximum total hits a single query returns.
type PaginationSettings struct {
	MaxTotalHits int `json:"maxTotalHits"`
}

// Embedder configures an optional semantic embedding provider (spec §4.6
// "optional semantic embedder configuration (provider, model, document
// template)").
type Embedder struct {
	Source          string `json:"source"`
	Model           string `json:"model,omitempty"`
	DocumentTemplate string `json:"documentTemplate,omitempty"`
	APIKey          string `json:"apiKey,omitempty"`
}

// CreateIndex declares an index with the given primary key, idempotently
// (spec §4.6 "create it with a declared primary key").
func (c *Client) CreateIndex(ctx context.Context, uid, primaryKey string) (*Task, error) {
	var task Task
	err := c.doRequest(ctx, requestConfig{
		method: http.MethodPost,
		path:   "/indexes",
		body:   map[string]string{"uid": uid, "primaryKey": primaryKey},
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateSettings applies settings to an index (spec §4.6 "Settings
// application is idempotent").
func (c *Client) UpdateSettings(ctx context.Context, indexUID string, settings IndexSettings) (*Task, error) {
	var task Task
	err := c.doRequest(ctx, requestConfig{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/indexes/%s/settings", indexUID),
		body:   settings,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// BulkUpsertDocuments POSTs documents with primaryKey=id declared
// explicitly (spec §4.6 "always declares primaryKey=id to avoid
// engine-side inference errors"), using the longer bulk-write timeout.
func (c *Client) BulkUpsertDocuments(ctx context.Context, indexUID string, documents interface{}) (*Task, error) {
	var task Task
	q := url.Values{"primaryKey": []string{"id"}}
	err := c.doRequest(ctx, requestConfig{
		method:  http.MethodPost,
		path:    fmt.Sprintf("/indexes/%s/documents", indexUID),
		query:   q,
		body:    documents,
		timeout: 120 * time.Second,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask retrieves one task's current status.
func (c *Client) GetTask(ctx context.Context, uid int64) (*Task, error) {
	var task Task
	err := c.doRequest(ctx, requestConfig{
		method: http.MethodGet,
		path:   fmt.Sprintf("/tasks/%d", uid),
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// WaitForTask polls GetTask until the task reaches a terminal state or
// timeout elapses (spec §4.6 "Task tracking", default 300s, 2s backoff).
func (c *Client) WaitForTask(ctx context.Context, uid int64, timeout time.Duration) (*Task, error) {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	deadline := time.Now().Add(timeout)
	const backoff = 2 * time.Second

	for {
		task, err := c.GetTask(ctx, uid)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case "succeeded":
			return task, nil
		case "failed":
			msg := "task failed"
			if task.Error != nil {
				msg = task.Error.Message
			}
			return task, badRequest(msg, nil)
		}
		if time.Now().After(deadline) {
			return task, taskTimeout(fmt.Sprintf("task %d did not complete within %s", uid, timeout))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// SearchRequest is the engine's search parameter set (spec §4.7 "Mode
// dispatch").
type SearchRequest struct {
	Query           string   `json:"q"`
	Filter          string   `json:"filter,omitempty"`
	Page            int      `json:"page,omitempty"`
	HitsPerPage     int      `json:"hitsPerPage,omitempty"`
	Locales         []string `json:"locales,omitempty"`
	HybridEmbedder  string   `json:"hybridEmbedder,omitempty"`
	HybridSemanticRatio *float64 `json:"hybridSemanticRatio,omitempty"`
}

// SearchResponse is the engine's raw search result.
type SearchResponse struct {
	Hits           []map[string]interface{} `json:"hits"`
	Page           int                       `json:"page"`
	TotalHits      int                       `json:"totalHits"`
	TotalPages     int                       `json:"totalPages"`
	ProcessingTime int                       `json:"processingTimeMs"`
}

// Search performs a search against one index.
func (c *Client) Search(ctx context.Context, indexUID string, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	err := c.doRequest(ctx, requestConfig{
		method: http.MethodPost,
		path:   fmt.Sprintf("/indexes/%s/search", indexUID),
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SimilarDocuments calls the engine's native similar-documents endpoint
// (spec §4.7 "first attempts the engine's native similar-documents
// endpoint").
func (c *Client) SimilarDocuments(ctx context.Context, indexUID, documentID string, limit int) (*SearchResponse, error) {
	var resp SearchResponse
	err := c.doRequest(ctx, requestConfig{
		method: http.MethodPost,
		path:   fmt.Sprintf("/indexes/%s/similar", indexUID),
		body:   map[string]interface{}{"id": documentID, "limit": limit},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
