package llm

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/jobbooster/jobbooster/engine/domain"
)

// Provider executes a single prompt against one model backend.
type Provider interface {
	Generate(ctx context.Context, cfg ModelConfig, prompt string) (string, error)
}

// Invoker is the narrow surface pipeline stages depend on.
type Invoker interface {
	Invoke(ctx context.Context, role Role, prompt string) (string, error)
}

// Registry maps provider names to implementations and resolves per-role model
// configuration. Safe for concurrent use after construction; Register must
// not be called after the registry is shared.
type Registry struct {
	providers map[string]Provider
	overrides map[Role]Override
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Options tunes registry construction.
type Options struct {
	// Overrides is the static per-role configuration layer.
	Overrides map[Role]Override
	// RequestsPerSecond caps outbound model calls across all roles.
	// Zero disables rate limiting.
	RequestsPerSecond float64
	Burst             int
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &Registry{
		providers: make(map[string]Provider),
		overrides: opts.Overrides,
		limiter:   limiter,
		logger:    logger,
	}
}

// Register adds a provider under a name. Later registrations replace earlier
// ones.
func (r *Registry) Register(name string, p Provider) {
	r.providers[name] = p
}

// Resolve layers default, static, and environment configuration for a role
// and validates the result. The environment is read on every call so
// overrides take effect without a restart.
func (r *Registry) Resolve(role Role) (ModelConfig, error) {
	cfg := DefaultConfig()
	if o, ok := r.overrides[role]; ok {
		cfg = o.apply(cfg)
	}
	cfg = envOverride(role, r.logger).apply(cfg)

	if err := validate(cfg); err != nil {
		return ModelConfig{}, fmt.Errorf("llm: resolve %s: %w", role, err)
	}
	if _, ok := r.providers[cfg.Provider]; !ok {
		return ModelConfig{}, fmt.Errorf("llm: resolve %s: %w",
			role, domain.NewValidationError("provider", cfg.Provider, domain.ErrUnsupportedProvider))
	}
	return cfg, nil
}

// Invoke resolves the role's configuration and runs the prompt through the
// matching provider, honouring the shared rate limit.
func (r *Registry) Invoke(ctx context.Context, role Role, prompt string) (string, error) {
	cfg, err := r.Resolve(role)
	if err != nil {
		return "", err
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm: invoke %s: %w", role, err)
		}
	}
	r.logger.Debug("invoking model", "role", role, "config", cfg.String())
	out, err := r.providers[cfg.Provider].Generate(ctx, cfg, prompt)
	if err != nil {
		return "", fmt.Errorf("llm: invoke %s: %w", role, err)
	}
	return out, nil
}
