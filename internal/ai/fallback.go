package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// fallbackPersonalizer calls primary first and, if that fails, secondary.
// Which provider is which is decided in cmd/notifier.
type fallbackPersonalizer struct {
	primary   Personalizer
	secondary Personalizer
	logger    *slog.Logger
}

// NewFallbackPersonalizer returns a Personalizer that calls primary and, on
// failure, falls back to secondary. Either argument may be nil. When both are
// nil it returns nil so the caller can skip personalization entirely.
func NewFallbackPersonalizer(primary, secondary Personalizer, logger *slog.Logger) Personalizer {
	switch {
	case primary == nil && secondary == nil:
		return nil
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	}
	return &fallbackPersonalizer{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackPersonalizer) Personalize(ctx context.Context, p Prospect) (string, error) {
	intro, err := f.primary.Personalize(ctx, p)
	if err == nil {
		return intro, nil
	}
	if ctx.Err() != nil {
		// No budget left for a second provider.
		return "", err
	}

	f.logger.Warn("ai: primary personalizer failed, trying secondary",
		"error", err,
		"industry", p.Industry,
	)

	intro, err2 := f.secondary.Personalize(ctx, p)
	if err2 != nil {
		return "", fmt.Errorf("ai: all personalizers failed: %w", errors.Join(err, err2))
	}
	return intro, nil
}
