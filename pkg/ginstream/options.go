package ginstream

import (
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/pkg/stream"
)

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger for request logs and pipeline events. A nil
// logger discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger == nil {
			logger = zap.NewNop()
		}
		h.logger = logger
	}
}

// WithStreamOptions adds options passed to every generator the handler builds
func WithStreamOptions(opts ...stream.Option) Option {
	return func(h *Handler) {
		h.streamOpts = append(h.streamOpts, opts...)
	}
}

// WithTarget registers a target at construction time
func WithTarget(name string, factory TargetFactory) Option {
	return func(h *Handler) {
		h.targets[name] = factory
	}
}
