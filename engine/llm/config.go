// Package llm resolves per-role model configuration and dispatches prompts to
// registered model providers. Configuration is layered: compiled defaults,
// then static per-role overrides, then AGENT_<ROLE>_<PARAM> environment
// variables, with later layers winning per field.
package llm

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jobbooster/jobbooster/engine/domain"
)

// Role identifies a pipeline stage that talks to a model.
type Role string

const (
	RoleAnalyzer       Role = "analyzer"
	RoleEmailWriter    Role = "email_writer"
	RoleLinkedInWriter Role = "linkedin_writer"
	RoleLetterWriter   Role = "letter_writer"
)

// ModelConfig is a fully resolved model invocation configuration.
type ModelConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
}

// Parameter bounds. Values outside these fail resolution rather than being
// clamped.
const (
	maxTemperature = 2.0
	maxTokensLimit = 32768
)

// DefaultConfig is the base layer applied to every role.
func DefaultConfig() ModelConfig {
	return ModelConfig{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   2000,
		TopP:        1.0,
	}
}

// Override is a sparse per-role configuration layer. Nil fields inherit from
// the layer below.
type Override struct {
	Provider    *string
	Model       *string
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

func (o Override) apply(cfg ModelConfig) ModelConfig {
	if o.Provider != nil {
		cfg.Provider = *o.Provider
	}
	if o.Model != nil {
		cfg.Model = *o.Model
	}
	if o.Temperature != nil {
		cfg.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		cfg.MaxTokens = *o.MaxTokens
	}
	if o.TopP != nil {
		cfg.TopP = *o.TopP
	}
	return cfg
}

// envOverride reads the AGENT_<ROLE>_<PARAM> layer for a role. Unparseable
// values are logged and ignored so a typo in the environment cannot take the
// service down.
func envOverride(role Role, logger *slog.Logger) Override {
	prefix := "AGENT_" + strings.ToUpper(string(role)) + "_"
	var o Override
	if v, ok := os.LookupEnv(prefix + "PROVIDER"); ok {
		o.Provider = &v
	}
	if v, ok := os.LookupEnv(prefix + "MODEL"); ok {
		o.Model = &v
	}
	if v, ok := os.LookupEnv(prefix + "TEMPERATURE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			o.Temperature = &f
		} else {
			logger.Warn("ignoring unparseable env override", "var", prefix+"TEMPERATURE", "value", v)
		}
	}
	if v, ok := os.LookupEnv(prefix + "MAX_TOKENS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			o.MaxTokens = &n
		} else {
			logger.Warn("ignoring unparseable env override", "var", prefix+"MAX_TOKENS", "value", v)
		}
	}
	if v, ok := os.LookupEnv(prefix + "TOP_P"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			o.TopP = &f
		} else {
			logger.Warn("ignoring unparseable env override", "var", prefix+"TOP_P", "value", v)
		}
	}
	return o
}

// validate checks a resolved configuration against parameter bounds.
func validate(cfg ModelConfig) error {
	if cfg.Temperature < 0 || cfg.Temperature > maxTemperature {
		return domain.NewValidationError("temperature",
			strconv.FormatFloat(cfg.Temperature, 'f', -1, 64), domain.ErrInvalidParameter)
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		return domain.NewValidationError("top_p",
			strconv.FormatFloat(cfg.TopP, 'f', -1, 64), domain.ErrInvalidParameter)
	}
	if cfg.MaxTokens <= 0 || cfg.MaxTokens > maxTokensLimit {
		return domain.NewValidationError("max_tokens",
			strconv.Itoa(cfg.MaxTokens), domain.ErrInvalidParameter)
	}
	if cfg.Model == "" {
		return domain.NewValidationError("model", "", domain.ErrInvalidParameter)
	}
	return nil
}

// String renders the config for logs without flooding them.
func (c ModelConfig) String() string {
	return fmt.Sprintf("%s/%s t=%.2f max=%d p=%.2f", c.Provider, c.Model, c.Temperature, c.MaxTokens, c.TopP)
}
