package middleware

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/wichtelbot/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// GatewayIDKey is the context key for the authenticated transport.
const GatewayIDKey contextKey = "gateway_id"

// GetGatewayID extracts the gateway ID from the context.
// Returns empty string if not found.
func GetGatewayID(ctx context.Context) string {
	id, _ := ctx.Value(GatewayIDKey).(string)
	return id
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the gateway ID to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			slog.Debug("Gateway authenticated",
				"procedure", req.Spec().Procedure,
				"gateway_id", claims.GatewayID,
			)
			ctx = context.WithValue(ctx, GatewayIDKey, claims.GatewayID)
			return next(ctx, req)
		}
	}
}
