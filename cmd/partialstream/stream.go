package main

import (
	"fmt"
	"iter"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deepankarm/partialstream/pkg/buffer"
	"github.com/deepankarm/partialstream/pkg/jsonrepair"
	"github.com/deepankarm/partialstream/pkg/partial"
	"github.com/deepankarm/partialstream/pkg/source"
	"github.com/deepankarm/partialstream/pkg/stream"
)

type streamFlags struct {
	format    string
	mode      string
	buffer    string
	target    string
	chunk     int
	transform string
	diff      bool
	patch     bool
}

func newStreamCmd(a *app) *cobra.Command {
	var f streamFlags
	cmd := &cobra.Command{
		Use:   "stream [file]",
		Short: "Replay a model stream and print every partial value",
		Long: `stream feeds deltas through a generator and prints each value it emits.

Input formats:
  raw     plain text, replayed in chunks of --chunk bytes
  sse     an OpenAI-style chat completion event stream
  ndjson  one delta object per line

With --mode tools, tool-call arguments are assembled per call and each
finished call is printed.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags override the config file; unset flags take its values.
			if !cmd.Flags().Changed("format") {
				f.format = a.cfg.Format
			}
			if !cmd.Flags().Changed("mode") {
				f.mode = a.cfg.Mode
			}
			if !cmd.Flags().Changed("buffer") {
				f.buffer = a.cfg.Buffer
			}
			if !cmd.Flags().Changed("chunk") {
				f.chunk = a.cfg.Chunk
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(cmd, args, a, f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "raw", "Input format: raw, sse or ndjson")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "content", "Generator: content or tools")
	cmd.Flags().StringVarP(&f.buffer, "buffer", "b", "json", "Buffer mode: json, text or extract")
	cmd.Flags().StringVarP(&f.target, "target", "t", "object", "Target: object (JSON objects only) or any")
	cmd.Flags().IntVar(&f.chunk, "chunk", 8, "Chunk size in bytes for raw input")
	cmd.Flags().StringVar(&f.transform, "transform", "", "expr expression applied to each value, e.g. 'value.steps'")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "Print each value as a diff against the previous one")
	cmd.Flags().BoolVar(&f.patch, "patch", false, "Print each value as a JSON merge patch against the previous one")
	cmd.MarkFlagsMutuallyExclusive("diff", "patch")
	return cmd
}

type generator interface {
	Stream(in iter.Seq[stream.Delta]) iter.Seq[stream.Delta]
}

func runStream(cmd *cobra.Command, args []string, a *app, f streamFlags) error {
	mode, err := buffer.ParseMode(f.buffer)
	if err != nil {
		return err
	}
	target, err := newTarget(f.target, f.transform)
	if err != nil {
		return err
	}
	opts := []stream.Option{stream.WithMode(mode), stream.WithLogger(a.logger)}

	var gen generator
	switch f.mode {
	case "content":
		gen = stream.NewContentGenerator(target, opts...)
	case "tools":
		gen = stream.NewToolCallGenerator(target, opts...)
	default:
		return fmt.Errorf("unknown mode %q", f.mode)
	}

	deltas, errf, err := openSource(cmd, args, f)
	if err != nil {
		return err
	}

	out := &emitter{p: newPrinter(cmd.OutOrStdout()), diff: f.diff, patch: f.patch, prev: map[string]string{}}
	for d := range gen.Stream(deltas) {
		if err := out.emit(d); err != nil {
			return err
		}
	}
	if err := errf(); err != nil {
		return err
	}
	a.logger.Info("stream finished", zap.Int("emitted", out.count))
	return nil
}

func newTarget(name, transform string) (partial.Target, error) {
	var opts []partial.TargetOption
	if transform != "" {
		t, err := partial.NewExprTransform(transform)
		if err != nil {
			return nil, err
		}
		opts = append(opts, partial.WithTransform(t))
	}
	switch name {
	case "object":
		return partial.NewMapTarget(opts...), nil
	case "any":
		return partial.NewStructTarget[any](opts...), nil
	}
	return nil, fmt.Errorf("unknown target %q (want object or any)", name)
}

// openSource returns the deltas of the input and a function reporting the
// error that ended them.
func openSource(cmd *cobra.Command, args []string, f streamFlags) (iter.Seq[stream.Delta], func() error, error) {
	text, err := readInput(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	switch f.format {
	case "raw":
		return source.Chunks(text, f.chunk), func() error { return nil }, nil
	case "sse":
		src := source.NewSSE(strings.NewReader(text))
		return src.Deltas(), src.Err, nil
	case "ndjson":
		src := source.NewNDJSON(strings.NewReader(text))
		return src.Deltas(), src.Err, nil
	}
	return nil, nil, fmt.Errorf("unknown format %q", f.format)
}

// emitter prints emitted deltas, optionally relative to the previous value of
// the same tool call.
type emitter struct {
	p           *printer
	diff, patch bool
	prev        map[string]string
	count       int
}

func (e *emitter) emit(d stream.Delta) error {
	e.count++
	if c := d.Completed; c != nil {
		e.p.label(e.p.ok, "done "+c.Name, c.Arguments)
		delete(e.prev, c.Name)
		return nil
	}

	label := "partial"
	if d.ToolName != "" {
		label = d.ToolName
	}
	if d.Err != nil {
		e.p.label(e.p.bad, label, d.Err.Error())
		return nil
	}

	cur, err := jsonrepair.Encode(d.Value)
	if err != nil {
		return err
	}
	prev, seen := e.prev[d.ToolName]
	e.prev[d.ToolName] = cur

	switch {
	case e.diff && seen:
		e.p.diff(label, prev, cur)
	case e.patch && seen:
		patch, err := jsonpatch.CreateMergePatch([]byte(prev), []byte(cur))
		if err != nil {
			// Merge patches only relate objects; print anything else whole.
			e.p.label(e.p.dim, label, cur)
			return nil
		}
		e.p.label(e.p.dim, label, string(patch))
	default:
		e.p.label(e.p.dim, label, cur)
	}
	return nil
}
