// Package ginstream serves partial values over HTTP. A client posts a stream
// of deltas as NDJSON and receives every partial value as a server-sent event.
package ginstream

import (
	"iter"
	"net/http"
	"slices"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/pkg/internal/errors"
	"github.com/deepankarm/partialstream/pkg/partial"
	"github.com/deepankarm/partialstream/pkg/source"
	"github.com/deepankarm/partialstream/pkg/stream"
)

// Server-sent event names.
const (
	EventPartial  = "partial"
	EventToolCall = "tool_call"
	EventError    = "error"
	EventDone     = "done"
)

// TargetFactory builds a fresh target for one request.
type TargetFactory func() partial.Target

// Handler holds the registered targets
type Handler struct {
	mu         sync.RWMutex
	targets    map[string]TargetFactory
	streamOpts []stream.Option
	logger     *zap.Logger
}

// Partial is the data of a partial event.
type Partial struct {
	Tool  string `json:"tool,omitempty"`
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
	Stage string `json:"stage,omitempty"`
}

// Done is the data of the final event.
type Done struct {
	Value     any               `json:"value,omitempty"`
	ToolCalls []stream.ToolCall `json:"tool_calls,omitempty"`
}

type generator interface {
	Stream(in iter.Seq[stream.Delta]) iter.Seq[stream.Delta]
}

// New creates a handler
func New(opts ...Option) *Handler {
	h := &Handler{
		targets: make(map[string]TargetFactory),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds or replaces the target served under name
func (h *Handler) Register(name string, factory TargetFactory) {
	h.mu.Lock()
	h.targets[name] = factory
	h.mu.Unlock()
}

// Targets returns the registered names in order
func (h *Handler) Targets() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.targets))
	for name := range h.targets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Routes registers the handler's endpoints on r
//
// Example:
//
//	router := gin.New()
//	h := ginstream.New()
//	h.Register("plan", func() partial.Target { return partial.NewStructTarget[Plan]() })
//	h.Routes(router.Group("/v1"))
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/targets", h.ListTargets)
	r.GET("/targets/:target/schema", h.Schema)
	r.POST("/stream/:target", h.Stream)
}

// ListTargets responds with the registered target names
func (h *Handler) ListTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"targets": h.Targets()})
}

// Schema responds with the flattened JSON schema of a target
func (h *Handler) Schema(c *gin.Context) {
	factory, ok := h.lookup(c)
	if !ok {
		return
	}
	s, ok := factory().(partial.Schemer)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "target has no schema"})
		return
	}
	flat, err := partial.FlattenSchema(s.Schema())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flat)
}

// Stream reads NDJSON deltas from the request body and writes one event per
// emitted delta. mode=content (default) treats the body as one document,
// mode=tools splits it into tool calls.
func (h *Handler) Stream(c *gin.Context) {
	factory, ok := h.lookup(c)
	if !ok {
		return
	}

	opts := append(slices.Clone(h.streamOpts), stream.WithLogger(h.logger))
	var (
		gen  generator
		done func() Done
	)
	switch mode := c.DefaultQuery("mode", "content"); mode {
	case "content":
		g := stream.NewContentGenerator(factory(), opts...)
		gen, done = g, func() Done { return Done{Value: g.Value()} }
	case "tools":
		g := stream.NewToolCallGenerator(factory(), opts...)
		gen, done = g, func() Done { return Done{ToolCalls: g.Completed()} }
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mode: " + mode})
		return
	}

	src := source.NewNDJSON(c.Request.Body)
	ctx := c.Request.Context()
	emitted := 0
	for d := range gen.Stream(src.Deltas()) {
		if ctx.Err() != nil {
			h.logger.Debug("client went away", zap.Int("emitted", emitted))
			return
		}
		if d.Completed != nil {
			c.SSEvent(EventToolCall, d.Completed)
		} else {
			c.SSEvent(EventPartial, partialOf(d))
		}
		c.Writer.Flush()
		emitted++
	}

	if err := src.Err(); err != nil {
		h.logger.Warn("error reading deltas", zap.Error(err))
		c.SSEvent(EventError, gin.H{"error": err.Error()})
		return
	}
	c.SSEvent(EventDone, done())
	h.logger.Debug("stream finished", zap.String("target", c.Param("target")), zap.Int("emitted", emitted))
}

func (h *Handler) lookup(c *gin.Context) (TargetFactory, bool) {
	name := c.Param("target")
	h.mu.RLock()
	factory, ok := h.targets[name]
	h.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown target: " + name})
	}
	return factory, ok
}

func partialOf(d stream.Delta) Partial {
	p := Partial{Tool: d.ToolName, Value: d.Value}
	if d.Err != nil {
		p.Error = d.Err.Error()
		p.Stage = string(errors.StageOf(d.Err))
	}
	return p
}
