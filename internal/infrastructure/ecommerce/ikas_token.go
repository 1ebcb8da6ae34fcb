package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/integration"
)

const (
	defaultTokenLifetime = 3600 * time.Second
	tokenExpiryMargin    = 60 * time.Second
)

// IkasTokenSource fetches and caches client-credentials access tokens.
// A token is refreshed one minute before it expires.
type IkasTokenSource struct {
	config *IkasConfig
	opts   *clientOptions

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type ikasTokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
	TokenType   string      `json:"token_type"`
}

func newIkasTokenSource(config *IkasConfig, opts *clientOptions) *IkasTokenSource {
	return &IkasTokenSource{config: config, opts: opts}
}

// Token returns a valid access token, requesting a new one when needed
func (s *IkasTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.opts.now().Before(s.expiry) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.config.ClientID)
	form.Set("client_secret", s.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ikas: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := s.opts.do(req)
	if err != nil {
		return "", err
	}

	var resp ikasTokenResponse
	if err := decodeJSON(body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: token response without access_token", integration.ErrPlatformAuthFailed)
	}

	lifetime := defaultTokenLifetime
	if secs, err := resp.ExpiresIn.Int64(); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}
	s.token = resp.AccessToken
	s.expiry = s.opts.now().Add(lifetime - tokenExpiryMargin)

	s.opts.logger.Info("Ikas access token obtained", zap.Time("expires_at", s.expiry))
	return s.token, nil
}

// Invalidate drops the cached token
func (s *IkasTokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()
}
