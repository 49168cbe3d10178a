package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey Context 中的 trace id
const TraceIDKey = "trace_id"

// ContextHandler 从 ctx 中取出 trace_id 附加到每条日志
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if id := TraceID(ctx); id != "" {
		r.AddAttrs(log.String(TraceIDKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) log.Handler {
	return &ContextHandler{h.Handler.WithGroup(name)}
}

// TraceID 返回 ctx 中的 trace id，不存在时为空
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

// TeeHandler 同时写本地与远程
type TeeHandler struct {
	handlers []log.Handler
}

func (s *TeeHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range s.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (s *TeeHandler) Handle(ctx context.Context, r log.Record) error {
	var firstErr error
	for _, h := range s.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *TeeHandler) WithAttrs(attrs []log.Attr) log.Handler {
	next := make([]log.Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		next = append(next, h.WithAttrs(attrs))
	}
	return &TeeHandler{handlers: next}
}

func (s *TeeHandler) WithGroup(name string) log.Handler {
	next := make([]log.Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		next = append(next, h.WithGroup(name))
	}
	return &TeeHandler{handlers: next}
}

// RemoteFilterHandler 只把带 trace_id 的日志（请求、任务、消费）发往 logstash
type RemoteFilterHandler struct {
	next log.Handler
}

func (s *RemoteFilterHandler) Enabled(ctx context.Context, level log.Level) bool {
	return s.next.Enabled(ctx, level)
}

func (s *RemoteFilterHandler) Handle(ctx context.Context, r log.Record) error {
	traced := false
	r.Attrs(func(a log.Attr) bool {
		if a.Key == TraceIDKey && a.Value.String() != "" {
			traced = true
			return false
		}
		return true
	})
	if !traced {
		return nil
	}
	return s.next.Handle(ctx, r)
}

func (s *RemoteFilterHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &RemoteFilterHandler{next: s.next.WithAttrs(attrs)}
}

func (s *RemoteFilterHandler) WithGroup(name string) log.Handler {
	return &RemoteFilterHandler{next: s.next.WithGroup(name)}
}
