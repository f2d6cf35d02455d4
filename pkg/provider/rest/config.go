// Package rest implements the provider contract over the signing service's
// HTTP API.
package rest

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds each provider call when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Config configures a REST signing provider client.
type Config struct {
	// BaseURL is the provider's API root, e.g. https://api.example-sign.com
	// (required).
	BaseURL string

	// APIKey is the bearer credential for every call (required).
	APIKey string

	// SignatureProfileID selects the provider-side signing profile applied
	// to new workflows (required).
	SignatureProfileID string

	// UserID is the provider account that owns created workflows. Optional;
	// omitted from requests when empty.
	UserID string

	// Timeout bounds each HTTP call. Zero uses DefaultTimeout.
	Timeout time.Duration
}

// Validate checks that the required fields are present.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("provider base URL is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("provider API key is required")
	}
	if strings.TrimSpace(c.SignatureProfileID) == "" {
		return fmt.Errorf("signature profile id is required")
	}
	return nil
}
