package integration

import "errors"

var (
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")
	ErrUnsupportedPlatform     = errors.New("integration: unsupported platform")

	// Webhook errors
	ErrWebhookMalformed = errors.New("integration: malformed webhook payload")
	ErrWebhookIgnored   = errors.New("integration: webhook event type not handled")
)
