package config

import (
	"fmt"
	"os"
	"strings"
)

// Validation fail modes. Open admits a document when the validation backend
// itself errors; closed rejects it.
const (
	FailModeOpen   = "open"
	FailModeClosed = "closed"
)

// Config holds everything the service reads from the environment. Values are
// captured once at startup; components receive them by injection.
type Config struct {
	// AWS / Bedrock
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string
	AWSRegion          string
	BedrockModelID     string
	EmbeddingModelID   string

	// Bedrock Guardrails (optional)
	GuardrailID      string
	GuardrailVersion string

	// Chroma
	ChromaURL        string
	ChromaCollection string

	// Server
	Port      string
	UploadDir string
	WatchDir  string

	// Content gate policy when the validation backend fails.
	ValidationFailMode string
}

// Load reads configuration from the environment, applying defaults. It does
// not validate; call Validate before first use.
func Load() *Config {
	return &Config{
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSSessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		AWSRegion:          getenv("AWS_REGION", "us-east-1"),
		BedrockModelID:     getenv("BEDROCK_MODEL_ID", "amazon.nova-lite-v1:0"),
		EmbeddingModelID:   getenv("EMBEDDING_MODEL_ID", "amazon.titan-embed-text-v2:0"),
		GuardrailID:        os.Getenv("BEDROCK_GUARDRAIL_ID"),
		GuardrailVersion:   getenv("BEDROCK_GUARDRAIL_VERSION", "DRAFT"),
		ChromaURL:          getenv("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection:   getenv("CHROMA_COLLECTION", "cloudymate_docs"),
		Port:               getenv("PORT", "8080"),
		UploadDir:          getenv("UPLOAD_DIR", "./uploads"),
		WatchDir:           os.Getenv("WATCH_DIR"),
		ValidationFailMode: getenv("VALIDATION_FAIL_MODE", FailModeOpen),
	}
}

// Validate reports every missing required variable at once so a misconfigured
// deployment fails with the full list instead of one variable per restart.
func (c *Config) Validate() error {
	var missing []string
	if c.AWSAccessKeyID == "" {
		missing = append(missing, "AWS_ACCESS_KEY_ID")
	}
	if c.AWSSecretAccessKey == "" {
		missing = append(missing, "AWS_SECRET_ACCESS_KEY")
	}
	if c.AWSRegion == "" {
		missing = append(missing, "AWS_REGION")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.ValidationFailMode != FailModeOpen && c.ValidationFailMode != FailModeClosed {
		return fmt.Errorf("VALIDATION_FAIL_MODE must be %q or %q, got %q",
			FailModeOpen, FailModeClosed, c.ValidationFailMode)
	}
	return nil
}

// FailClosed reports whether the content gate should reject documents when
// its validation backend is unavailable.
func (c *Config) FailClosed() bool {
	return c.ValidationFailMode == FailModeClosed
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
