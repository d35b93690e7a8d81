package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// OpenAIKeyVar names the environment variable holding the OpenAI API key.
	OpenAIKeyVar = "OPENAI_API_KEY"
	// VapiKeyVar names the environment variable holding the Vapi API key.
	VapiKeyVar = "VAPI_API_KEY"

	// DefaultAssistantID is the Vapi assistant used when VAPI_ASSISTANT_ID is unset.
	DefaultAssistantID = "ea8c30ba-4efb-4b3a-b3fa-9cd37a821300"
)

// Config holds all application configuration.
type Config struct {
	// Credentials
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	VapiAPIKey      string `envconfig:"VAPI_API_KEY"`
	VapiAssistantID string `envconfig:"VAPI_ASSISTANT_ID" default:"ea8c30ba-4efb-4b3a-b3fa-9cd37a821300"`

	// Recognition settings
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1/"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4-turbo"`
	MaxTokens     int64  `envconfig:"OCR_MAX_TOKENS" default:"300"`

	// Voice settings
	VapiBaseURL string `envconfig:"VAPI_BASE_URL" default:"https://api.vapi.ai"`

	// Applied to every outbound network call.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	// Capture settings
	ScreenshotPath string   `envconfig:"SCREENSHOT_PATH" default:"screenshot.jpg"`
	CaptureBackend string   `envconfig:"CAPTURE_BACKEND" default:"display"`
	CaptureCommand []string `envconfig:"CAPTURE_COMMAND"`

	// Input and control surfaces
	Hotkey      string `envconfig:"HOTKEY" default:"ctrl+shift+o"`
	ControlAddr string `envconfig:"CONTROL_ADDR"`

	// Logging settings
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// SecretLookup resolves a credential that was not provided through the
// environment, keyed by its environment variable name. It returns an empty
// string when no value is available.
type SecretLookup func(envVar string) string

// MissingError reports required credentials that could not be resolved.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s. Set via environment variables, .env, "+
		"or run 'screentalk config set-key'", strings.Join(e.Vars, ", "))
}

// LoadConfig loads configuration from .env file and environment variables.
// Credentials absent from the environment are resolved through lookup when
// it is non-nil. Validation of required values is left to Require so that
// subcommands can ask for only what they use.
func LoadConfig(lookup SecretLookup) (*Config, error) {
	// Try to load .env file (optional)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("error loading .env file", "error", err)
		}
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if lookup != nil {
		if config.OpenAIAPIKey == "" {
			config.OpenAIAPIKey = lookup(OpenAIKeyVar)
		}
		if config.VapiAPIKey == "" {
			config.VapiAPIKey = lookup(VapiKeyVar)
		}
	}

	config.OpenAIAPIKey = strings.TrimSpace(config.OpenAIAPIKey)
	config.VapiAPIKey = strings.TrimSpace(config.VapiAPIKey)
	if strings.TrimSpace(config.VapiAssistantID) == "" {
		config.VapiAssistantID = DefaultAssistantID
	}

	return &config, nil
}

// Require checks that every named credential variable has a value.
func (c *Config) Require(vars ...string) error {
	var missing []string
	for _, v := range vars {
		if c.value(v) == "" {
			missing = append(missing, v)
		}
	}

	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}

	return nil
}

// Validate checks the non-credential settings for values the application
// cannot run with.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("OCR_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if strings.TrimSpace(c.ScreenshotPath) == "" {
		return fmt.Errorf("SCREENSHOT_PATH cannot be empty")
	}

	switch c.CaptureBackend {
	case "display", "command":
	default:
		return fmt.Errorf("invalid CAPTURE_BACKEND %q: must be 'display' or 'command'", c.CaptureBackend)
	}

	return nil
}

func (c *Config) value(envVar string) string {
	switch envVar {
	case OpenAIKeyVar:
		return c.OpenAIAPIKey
	case VapiKeyVar:
		return c.VapiAPIKey
	case "VAPI_ASSISTANT_ID":
		return c.VapiAssistantID
	default:
		return os.Getenv(envVar)
	}
}
