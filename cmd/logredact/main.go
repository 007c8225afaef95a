package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/metricsexporter"
	"github.com/logredact/logredact/internal/redaction"
	"github.com/logredact/logredact/internal/rulefile"
	"github.com/logredact/logredact/internal/tracing"
	"github.com/logredact/logredact/internal/validation"
	"github.com/logredact/logredact/internal/zapredact"
)

const (
	outputJSON = "json"
	outputLog  = "log"
)

var (
	rulesFile           string
	noDefaultRules      bool
	replacement         string
	template            string
	lengthLimit         int
	noObjects           bool
	viewMode            string
	maxDepth            int
	maxItems            int
	maxNodes            int
	placeholder         string
	lineMode            bool
	outputFormat        string
	failOnLimit         bool
	enableMetrics       bool
	enableTracing       bool
	tracingOTLPEndpoint string
	tracingSampleRate   float64
	logLevel            string

	processorFactory func(redaction.Config) (documentRedactor, error)
	tracerFactory    func() (documentTracer, error)
	exitFunc         func(int)
)

var errLimitReached = errors.New("traversal limit reached")

type documentRedactor interface {
	TransformWithStats(v any) (any, redaction.Stats, error)
}

type documentTracer interface {
	StartDocument(ctx context.Context, source string, index int) (context.Context, trace.Span)
	Shutdown(ctx context.Context) error
}

func init() {
	processorFactory = func(cfg redaction.Config) (documentRedactor, error) {
		return redaction.New(cfg)
	}
	tracerFactory = func() (documentTracer, error) {
		return tracing.NewManager()
	}
	exitFunc = os.Exit
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		logger.Sync()
		exitFunc(1)
	}
	logger.Sync()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logredact [files...]",
		Short: "Mask sensitive fields in structured log events",
		Long: `logredact reads JSON or YAML documents (or NDJSON with --lines) from files or stdin,
masks sensitive fields by key and writes the redacted documents to stdout.`,
		RunE:          runLogredact,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&rulesFile, "rules", config.RulesFile, "YAML or JSON rule file merged over the default rules")
	flags.BoolVar(&noDefaultRules, "no-default-rules", !config.UseDefaultRules, "Do not load the built-in rule table")
	flags.StringVar(&replacement, "replacement", config.Replacement, "Masking character")
	flags.StringVar(&template, "template", config.Template, "Template wrapping the masked run; must contain one %s")
	flags.IntVar(&lengthLimit, "length-limit", config.LengthLimit, "Truncate masked values to this many characters (0 = unlimited)")
	flags.BoolVar(&noObjects, "no-objects", !config.ProcessObjects, "Pass objects through without inspecting them")
	flags.StringVar(&viewMode, "view-mode", config.ObjectViewMode, "Object rendering: copy, public_array or skip")
	flags.IntVar(&maxDepth, "max-depth", config.MaxDepth, "Maximum container depth (0 = unlimited)")
	flags.IntVar(&maxItems, "max-items", config.MaxItemsPerContainer, "Maximum entries processed per container (0 = unlimited)")
	flags.IntVar(&maxNodes, "max-nodes", config.MaxTotalNodes, "Maximum nodes visited per document (0 = unlimited)")
	flags.StringVar(&placeholder, "placeholder", config.OverflowPlaceholder, "Value written in place of anything cut off by a limit (empty keeps the original)")
	flags.BoolVar(&lineMode, "lines", false, "Treat every input line as a separate JSON document")
	flags.StringVar(&outputFormat, "output", outputJSON, "Output format: json or log (zap JSON log entries)")
	flags.BoolVar(&failOnLimit, "fail-on-limit", false, "Reject a document when any traversal limit or cycle is hit")
	flags.BoolVar(&enableMetrics, "metrics", false, "Enable Prometheus metrics server")
	flags.BoolVar(&enableTracing, "tracing", config.TracingEnabled, "Enable OpenTelemetry tracing")
	flags.StringVar(&tracingOTLPEndpoint, "tracing-otlp-endpoint", config.OTLPEndpoint, "OpenTelemetry OTLP/HTTP endpoint")
	flags.Float64Var(&tracingSampleRate, "tracing-sample-rate", config.TracingSampleRate, "Tracing sample rate (0.0-1.0)")
	flags.StringVar(&logLevel, "log-level", "", "Set log level (debug, info, warn, error, fatal). Overrides LOGREDACT_LOG_LEVEL environment variable")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logger.SetLevel(logLevel)
		}
	}
	return rootCmd
}

func validateFlags() error {
	if logLevel != "" {
		if err := validation.ValidateLogLevel(logLevel); err != nil {
			return err
		}
	}
	if err := validation.ValidateReplacement(replacement); err != nil {
		return fmt.Errorf("invalid replacement: %w", err)
	}
	if err := validation.ValidateTemplate(template); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if err := validation.ValidateObjectViewMode(viewMode); err != nil {
		return err
	}
	for _, limit := range []struct {
		name  string
		value int
	}{
		{"length-limit", lengthLimit},
		{"max-depth", maxDepth},
		{"max-items", maxItems},
		{"max-nodes", maxNodes},
	} {
		if err := validation.ValidateLimit(limit.name, limit.value); err != nil {
			return err
		}
	}
	if outputFormat != outputJSON && outputFormat != outputLog {
		return fmt.Errorf("invalid output format: %s (valid: json, log)", outputFormat)
	}
	if err := validation.ValidateSampleRate(tracingSampleRate); err != nil {
		return fmt.Errorf("invalid tracing sample rate: %w", err)
	}
	if err := validation.ValidateOTLPEndpoint(tracingOTLPEndpoint); err != nil {
		return fmt.Errorf("invalid tracing endpoint: %w", err)
	}
	return nil
}

func buildConfig() (redaction.Config, error) {
	cfg := redaction.DefaultConfig()
	if rulesFile != "" {
		rules, err := rulefile.Load(rulesFile)
		if err != nil {
			return cfg, err
		}
		cfg.Rules = rules
	}
	cfg.UseDefaultRules = !noDefaultRules
	cfg.Replacement = replacement
	cfg.Template = template
	cfg.LengthLimit = lengthLimit
	cfg.SkipObjects = noObjects
	cfg.ObjectViewMode = redaction.ObjectViewMode(viewMode)
	cfg.MaxDepth = maxDepth
	cfg.MaxItemsPerContainer = maxItems
	cfg.MaxTotalNodes = maxNodes
	if placeholder != "" {
		cfg.OverflowPlaceholder = redaction.Placeholder(placeholder)
	}
	if failOnLimit {
		cfg.OnLimit = func(ev redaction.LimitEvent) error {
			return fmt.Errorf("%w: %s at depth %d", errLimitReached, ev.Kind, ev.Depth)
		}
	}
	return cfg, nil
}

func runLogredact(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}

	if enableTracing {
		config.TracingEnabled = true
		config.OTLPEndpoint = tracingOTLPEndpoint
		config.TracingSampleRate = tracingSampleRate
	}

	if enableMetrics {
		metricsServer := metricsexporter.StartServer()
		defer metricsServer.Shutdown()
	}

	tracer, err := tracerFactory()
	if err != nil {
		return fmt.Errorf("failed to create tracing manager: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	processor, err := processorFactory(cfg)
	if err != nil {
		return fmt.Errorf("failed to build redaction processor: %w", err)
	}

	out := newOutput(cmd.OutOrStdout(), processor)
	if len(args) == 0 {
		args = []string{"-"}
	}

	var errs error
	for _, path := range args {
		errs = multierr.Append(errs, processSource(cmd, path, tracer, out))
	}
	return errs
}

func processSource(cmd *cobra.Command, path string, tracer documentTracer, out *output) error {
	source := validation.SanitizeSource(path)
	var r io.Reader
	if path == "-" {
		source = "stdin"
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			metricsexporter.RecordDocument(metricsexporter.ResultError)
			return fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	if !lineMode {
		data, err := io.ReadAll(io.LimitReader(r, config.MaxDocumentSize+1))
		if err != nil {
			return fmt.Errorf("%s: read: %w", source, err)
		}
		if int64(len(data)) > config.MaxDocumentSize {
			metricsexporter.RecordDocument(metricsexporter.ResultError)
			return fmt.Errorf("%s: document exceeds %d bytes", source, config.MaxDocumentSize)
		}
		return out.document(cmd.Context(), tracer, source, 0, data)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*config.KB), config.MaxLineSize)
	var errs error
	index := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		errs = multierr.Append(errs, out.document(cmd.Context(), tracer, source, index, line))
		index++
	}
	if err := scanner.Err(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s: read: %w", source, err))
	}
	return errs
}

// output writes redacted documents either as JSON values or as zap log
// entries produced by a redacting core.
type output struct {
	w         io.Writer
	processor documentRedactor
	logCore   zapcore.Core
	pretty    bool
}

func newOutput(w io.Writer, processor documentRedactor) *output {
	o := &output{w: w, processor: processor, pretty: !lineMode && isTerminal(w)}
	if outputFormat == outputLog {
		if p, ok := processor.(*redaction.Processor); ok {
			inner := zapcore.NewCore(zapcore.NewJSONEncoder(logger.EncoderConfig()), zapcore.AddSync(w), zapcore.DebugLevel)
			o.logCore = zapredact.NewCore(inner, p)
		}
	}
	return o
}

func (o *output) document(ctx context.Context, tracer documentTracer, source string, index int, data []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := tracer.StartDocument(ctx, source, index)

	var stats redaction.Stats
	err := o.redact(data, &stats)
	tracing.EndDocument(span, stats.NodesVisited, stats.LimitEvents, err)

	if err != nil {
		metricsexporter.RecordDocument(metricsexporter.ResultError)
		logger.Error("Failed to redact document",
			zap.String("source", source),
			zap.Int("index", index),
			zap.Error(err))
		return fmt.Errorf("%s: document %d: %w", source, index, err)
	}
	metricsexporter.RecordDocument(metricsexporter.ResultOK)
	return nil
}

func (o *output) redact(data []byte, stats *redaction.Stats) error {
	doc, err := rulefile.DecodeDocument(data)
	if err != nil {
		return err
	}

	redacted, s, err := o.processor.TransformWithStats(doc)
	*stats = s
	if err != nil {
		return err
	}

	if o.logCore != nil {
		return o.logCore.Write(zapcore.Entry{
			Level:   zapcore.InfoLevel,
			Time:    time.Now(),
			Message: "event",
		}, documentFields(doc))
	}

	var encoded []byte
	if o.pretty {
		encoded, err = json.MarshalIndent(redacted, "", "  ")
	} else {
		encoded, err = json.Marshal(redacted)
	}
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	encoded = append(encoded, '\n')
	_, err = o.w.Write(encoded)
	return err
}

// documentFields turns the top-level entries of doc into log fields in key
// order. Non-mapping documents become a single "document" field.
func documentFields(doc any) []zapcore.Field {
	m, ok := doc.(map[string]any)
	if !ok {
		return []zapcore.Field{zap.Any("document", doc)}
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	fields := make([]zapcore.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.Any(key, m[key]))
	}
	return fields
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
