package logger

import (
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const (
	mongoCmdLogLimit = 1000
	slowMongoCommand = 200 * time.Millisecond
)

// 心跳类命令不记录
var quietMongoCommands = map[string]struct{}{
	"hello":       {},
	"isMaster":    {},
	"ping":        {},
	"endSessions": {},
}

func NewMongoMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			if _, ok := quietMongoCommands[evt.CommandName]; ok {
				return
			}
			detail := evt.Command.String()
			if len(detail) > mongoCmdLogLimit {
				detail = detail[:mongoCmdLogLimit] + "...[truncated]"
			}
			log.DebugContext(ctx, "MongoDB Started",
				log.String("command", evt.CommandName),
				log.String("database", evt.DatabaseName),
				log.Int64("request_id", evt.RequestID),
				log.String("cmd_detail", detail),
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if _, ok := quietMongoCommands[evt.CommandName]; ok {
				return
			}
			fields := []any{
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
			}
			if evt.Duration > slowMongoCommand {
				log.WarnContext(ctx, "MongoDB Slow", fields...)
				return
			}
			log.InfoContext(ctx, "MongoDB Success", fields...)
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.Duration("latency", evt.Duration),
				log.Int64("request_id", evt.RequestID),
				log.Any("err", evt.Failure),
			)
		},
	}
}
