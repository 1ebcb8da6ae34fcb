package ecommerce

import (
	"errors"
	"strings"
)

// TrendyolConfig holds configuration for the Trendyol supplier API
type TrendyolConfig struct {
	// SupplierID is the seller account id
	SupplierID string
	// APIKey is the integration key from the seller panel
	APIKey string
	// APISecret is the integration secret from the seller panel
	APISecret string
	// APIBaseURL is the suppliers endpoint root
	APIBaseURL string
	// PageSize is the number of orders requested per sync
	PageSize int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// TrendyolProductionAPIURL is the production suppliers endpoint
const TrendyolProductionAPIURL = "https://api.trendyol.com/sapigw/suppliers"

// Errors for Trendyol configuration
var (
	ErrTrendyolConfigMissingSupplierID = errors.New("trendyol: supplier id is required")
	ErrTrendyolConfigMissingAPIKey     = errors.New("trendyol: api key is required")
	ErrTrendyolConfigMissingAPISecret  = errors.New("trendyol: api secret is required")
)

// NewTrendyolConfig creates a new Trendyol configuration with defaults
func NewTrendyolConfig(supplierID, apiKey, apiSecret string) *TrendyolConfig {
	return &TrendyolConfig{
		SupplierID:     supplierID,
		APIKey:         apiKey,
		APISecret:      apiSecret,
		APIBaseURL:     TrendyolProductionAPIURL,
		PageSize:       200,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Trendyol configuration and fills defaults
func (c *TrendyolConfig) Validate() error {
	if c.SupplierID == "" {
		return ErrTrendyolConfigMissingSupplierID
	}
	if c.APIKey == "" {
		return ErrTrendyolConfigMissingAPIKey
	}
	if c.APISecret == "" {
		return ErrTrendyolConfigMissingAPISecret
	}
	c.applyDefaults()
	return nil
}

func (c *TrendyolConfig) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = TrendyolProductionAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = 200
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// IsConfigured reports whether all credentials are present
func (c *TrendyolConfig) IsConfigured() bool {
	return c != nil && c.SupplierID != "" && c.APIKey != "" && c.APISecret != ""
}
