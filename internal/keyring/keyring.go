// Package keyring provides access to the system keychain for storing API keys.
package keyring

import (
	"fmt"
	"log/slog"

	"github.com/alkime/screentalk/internal/config"
	"github.com/zalando/go-keyring"
)

const serviceName = "screentalk"

// APIKey represents a named API key stored in the keychain.
type APIKey string

const (
	// OpenAI is the keychain entry for the OpenAI API key.
	OpenAI APIKey = "openai-api-key"
	// Vapi is the keychain entry for the Vapi API key.
	Vapi APIKey = "vapi-api-key"
)

// AllAPIKeys returns all known API key types for iteration.
func AllAPIKeys() []APIKey {
	return []APIKey{OpenAI, Vapi}
}

// DisplayName returns a human-readable name for the API key.
func (k APIKey) DisplayName() string {
	switch k {
	case OpenAI:
		return "openai"
	case Vapi:
		return "vapi"
	default:
		return string(k)
	}
}

// EnvVar returns the environment variable that takes priority over the
// keychain entry.
func (k APIKey) EnvVar() string {
	switch k {
	case OpenAI:
		return config.OpenAIKeyVar
	case Vapi:
		return config.VapiKeyVar
	default:
		return ""
	}
}

// Get retrieves an API key value from the system keychain.
func Get(apiKey APIKey) (string, error) {
	value, err := keyring.Get(serviceName, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return value, nil
}

// Set stores an API key value in the system keychain.
func Set(apiKey APIKey, value string) error {
	if err := keyring.Set(serviceName, string(apiKey), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// Delete removes an API key from the system keychain.
func Delete(apiKey APIKey) error {
	if err := keyring.Delete(serviceName, string(apiKey)); err != nil {
		return fmt.Errorf("failed to delete %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// IsSet checks if an API key exists in the keychain.
func IsSet(apiKey APIKey) bool {
	_, err := keyring.Get(serviceName, string(apiKey))

	return err == nil
}

// APIKeyFromServiceName maps a service name (e.g., "openai") to an APIKey.
func APIKeyFromServiceName(name string) (APIKey, error) {
	switch name {
	case "openai":
		return OpenAI, nil
	case "vapi":
		return Vapi, nil
	default:
		return "", fmt.Errorf("unknown service: %s", name)
	}
}

// Lookup resolves a credential by its environment variable name. It is the
// keychain fallback handed to config.LoadConfig.
func Lookup(envVar string) string {
	for _, apiKey := range AllAPIKeys() {
		if apiKey.EnvVar() != envVar {
			continue
		}

		secret, err := Get(apiKey)
		if err != nil {
			slog.Debug("keychain lookup failed", "key", apiKey.DisplayName(), "error", err)
			return ""
		}

		return secret
	}

	return ""
}
