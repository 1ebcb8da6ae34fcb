package ecommerce

import (
	"errors"
	"strings"
)

// IkasConfig holds configuration for the Ikas admin API
type IkasConfig struct {
	// ClientID is the OAuth client id of the private app
	ClientID string
	// ClientSecret is the OAuth client secret of the private app
	ClientSecret string
	// APIBaseURL is the API root; token and GraphQL paths are appended
	APIBaseURL string
	// PageLimit is the number of orders requested per sync
	PageLimit int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// IkasProductionAPIURL is the production API root
const IkasProductionAPIURL = "https://api.myikas.com"

const (
	ikasTokenPath   = "/api/admin/oauth/token"
	ikasGraphQLPath = "/api/v1/admin/graphql"
)

// Errors for Ikas configuration
var (
	ErrIkasConfigMissingClientID     = errors.New("ikas: client id is required")
	ErrIkasConfigMissingClientSecret = errors.New("ikas: client secret is required")
)

// NewIkasConfig creates a new Ikas configuration with defaults
func NewIkasConfig(clientID, clientSecret string) *IkasConfig {
	return &IkasConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		APIBaseURL:     IkasProductionAPIURL,
		PageLimit:      100,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Ikas configuration and fills defaults
func (c *IkasConfig) Validate() error {
	if c.ClientID == "" {
		return ErrIkasConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrIkasConfigMissingClientSecret
	}
	c.applyDefaults()
	return nil
}

func (c *IkasConfig) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = IkasProductionAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.PageLimit <= 0 {
		c.PageLimit = 100
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// IsConfigured reports whether both client credentials are present
func (c *IkasConfig) IsConfigured() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}

// TokenURL returns the OAuth token endpoint
func (c *IkasConfig) TokenURL() string {
	return c.APIBaseURL + ikasTokenPath
}

// GraphQLURL returns the admin GraphQL endpoint
func (c *IkasConfig) GraphQLURL() string {
	return c.APIBaseURL + ikasGraphQLPath
}
