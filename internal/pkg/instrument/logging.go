package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func initLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(cfg.LogLevel),
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	})

	if lp != nil {
		handler = fanout{handler, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(&contextHandler{
		Handler:     &redactHandler{next: handler, rules: newRedactRules(cfg.MaskFields, cfg.PartialMaskFields)},
		serviceName: cfg.ServiceName,
	}))
}

// replaceAttr shortens the standard keys and keeps only sources inside internal/.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("%s:%d", filepath.Join("internal", rel), src.Line))
	}
	return a
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

// fanout writes every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// redactRules maps a lower-cased field name to how its value is hidden.
type redactRules map[string]func(string) string

func newRedactRules(full, partial []string) redactRules {
	rules := redactRules{}
	for _, f := range partial {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			rules[f] = maskKeepTail
		}
	}
	for _, f := range full {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			rules[f] = func(string) string { return masked }
		}
	}
	return rules
}

func (r redactRules) lookup(key string) (func(string) string, bool) {
	fn, ok := r[strings.ToLower(key)]
	return fn, ok
}

// maskKeepTail keeps the last four characters, enough to tell phone numbers apart in logs.
func maskKeepTail(v string) string {
	const keep = 4
	if len(v) <= keep {
		return masked
	}
	return strings.Repeat("*", len(v)-keep) + v[len(v)-keep:]
}

type redactHandler struct {
	next  slog.Handler
	rules redactRules
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.rules) == 0 {
		return h.next.Handle(ctx, record)
	}

	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(h.rules.attr(attr))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.rules.attr(a)
	}
	return &redactHandler{next: h.next.WithAttrs(redacted), rules: h.rules}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), rules: h.rules}
}

func (r redactRules) attr(attr slog.Attr) slog.Attr {
	if fn, ok := r.lookup(attr.Key); ok {
		return slog.String(attr.Key, fn(attr.Value.Resolve().String()))
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = r.attr(ga)
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := r.jsonText([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any, []any:
			attr.Value = slog.AnyValue(r.value(v))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			attr.Value = slog.AnyValue(r.value(m))
		case []byte:
			if s, ok := r.jsonText(v); ok {
				attr.Value = slog.StringValue(s)
			}
		}
	}

	return attr
}

// jsonText redacts payload when it is a JSON object or array.
func (r redactRules) jsonText(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", false
	}
	b, err := json.Marshal(r.value(v))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (r redactRules) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if fn, ok := r.lookup(k); ok {
				out[k] = fn(fmt.Sprint(v2))
				continue
			}
			out[k] = r.value(v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = r.value(v2)
		}
		return out
	default:
		return v
	}
}
