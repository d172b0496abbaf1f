package inference

import (
	"golang.org/x/time/rate"

	"claimintake/internal/config"
)

// NewLimiter builds the outbound rate limiter for a service. A non-positive
// rate disables limiting.
func NewLimiter(cfg *config.InferenceConfig) *rate.Limiter {
	if cfg.RatePerSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
}
