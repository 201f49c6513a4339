package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/wichtelbot/pkg/gateway"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its duration and error code. Gateway commands also log the command
// name and the chat user.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"peer", req.Peer().Addr,
			}
			if msg, ok := req.Any().(*gateway.HandleCommandRequest); ok {
				attrs = append(attrs,
					"command", msg.Command.Name,
					"user_id", msg.Command.Actor.ID,
				)
			}

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			if err == nil {
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				slog.Warn("RPC error", append(attrs,
					"code", connectErr.Code(),
					"error", connectErr.Message(),
				)...)
			} else {
				slog.Error("RPC error", append(attrs, "error", err)...)
			}
			return resp, err
		}
	}
}
