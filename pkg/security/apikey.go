// Package security validates and masks third-party API keys.
package security

import (
	"crypto/subtle"
	"regexp"
	"strings"
)

var (
	validKeyPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	invalidKeyPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// APIKeyValidator provides secure validation and handling of API keys
type APIKeyValidator struct {
	minLength int
	maxLength int
}

// NewAPIKeyValidator creates a new API key validator with reasonable defaults
func NewAPIKeyValidator() *APIKeyValidator {
	return &APIKeyValidator{
		minLength: 8,
		maxLength: 128,
	}
}

// ValidateAPIKey validates API key format and length
func (v *APIKeyValidator) ValidateAPIKey(apiKey string) bool {
	if len(apiKey) < v.minLength || len(apiKey) > v.maxLength {
		return false
	}
	return validKeyPattern.MatchString(apiKey)
}

// SanitizeAPIKey trims whitespace and drops characters that could be used
// for URL or header injection.
func (v *APIKeyValidator) SanitizeAPIKey(apiKey string) string {
	return invalidKeyPattern.ReplaceAllString(strings.TrimSpace(apiKey), "")
}

// MaskAPIKey creates a masked version for logging (shows only first/last few chars)
func (v *APIKeyValidator) MaskAPIKey(apiKey string) string {
	if len(apiKey) == 0 {
		return "[empty]"
	}
	if len(apiKey) <= 8 {
		return "[***]"
	}
	return apiKey[:3] + "..." + apiKey[len(apiKey)-3:]
}

// SecureCompare performs constant-time comparison of API keys
func (v *APIKeyValidator) SecureCompare(key1, key2 string) bool {
	return subtle.ConstantTimeCompare([]byte(key1), []byte(key2)) == 1
}

// IsValidAllDebridKey validates AllDebrid API key format specifically
func (v *APIKeyValidator) IsValidAllDebridKey(apiKey string) bool {
	return v.ValidateAPIKey(apiKey) && len(apiKey) >= 16 && len(apiKey) <= 40
}

// IsValidRealDebridKey validates RealDebrid private token format
func (v *APIKeyValidator) IsValidRealDebridKey(apiKey string) bool {
	return v.ValidateAPIKey(apiKey) && len(apiKey) >= 32 && len(apiKey) <= 64
}
