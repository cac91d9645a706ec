// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "fmt"

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateMeili(); err != nil {
		return err
	}
	if err := c.validatePaging(); err != nil {
		return err
	}
	return c.validateIngest()
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	return nil
}

func (c *Config) validateMeili() error {
	if c.MeiliHost == "" {
		return fmt.Errorf("meili_host is required (or legacy MEILISEARCH_URL)")
	}
	if c.MeiliMasterKey == "" {
		return fmt.Errorf("meili_master_key is required (or legacy MEILISEARCH_MASTER_KEY)")
	}
	if c.MeiliTimeout <= 0 {
		return fmt.Errorf("meili_timeout must be positive")
	}
	return nil
}

func (c *Config) validatePaging() error {
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("max_search_results must be positive")
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxSearchResults {
		return fmt.Errorf("default_page_size must be positive and at most max_search_results")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.SyncBatchSize <= 0 {
		return fmt.Errorf("sync_batch_size must be positive")
	}
	return nil
}
