package stream

import (
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/pkg/buffer"
)

// Option configures a generator.
type Option interface {
	apply(*config)
}

type config struct {
	sinks  MultiSink
	buffer buffer.Buffer
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) { f(cfg) }

// WithSink adds a sink receiving every pipeline event.
func WithSink(s Sink) Option {
	return optionFunc(func(cfg *config) { cfg.sinks = append(cfg.sinks, s) })
}

// WithLogger logs every pipeline event at debug level.
func WithLogger(logger *zap.Logger) Option {
	return WithSink(LogSink(logger))
}

// WithBuffer sets the empty buffer each stream or tool call starts from.
// The default is buffer.JSON{}.
func WithBuffer(b buffer.Buffer) Option {
	return optionFunc(func(cfg *config) { cfg.buffer = b })
}

// WithMode is WithBuffer(buffer.ForMode(m)).
func WithMode(m buffer.Mode) Option {
	return WithBuffer(buffer.ForMode(m))
}

func newConfig(opts []Option) config {
	cfg := config{buffer: buffer.JSON{}}
	for _, o := range opts {
		o.apply(&cfg)
	}
	return cfg
}
