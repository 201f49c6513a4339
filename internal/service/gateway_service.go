package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/mmynk/wichtelbot/internal/middleware"
	"github.com/mmynk/wichtelbot/internal/notify"
	"github.com/mmynk/wichtelbot/internal/router"
	"github.com/mmynk/wichtelbot/internal/santa"
	"github.com/mmynk/wichtelbot/pkg/gateway"
)

var ErrMissingActor = errors.New("command actor id is required")

// GatewayService implements the Connect GatewayService.
type GatewayService struct {
	router *router.Router
}

// NewGatewayService creates a GatewayService that hands every command to r.
func NewGatewayService(r *router.Router) *GatewayService {
	return &GatewayService{router: r}
}

// HandleCommand runs one chat command and returns the reply and the private
// messages to deliver.
func (s *GatewayService) HandleCommand(ctx context.Context, req *connect.Request[gateway.HandleCommandRequest]) (*connect.Response[gateway.HandleCommandResponse], error) {
	cmd := req.Msg.Command
	slog.Info("HandleCommand request received",
		"command", cmd.Name,
		"args_count", len(cmd.Args),
		"user_id", cmd.Actor.ID,
		"gateway_id", middleware.GetGatewayID(ctx),
	)

	if cmd.Actor.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrMissingActor)
	}

	res := s.router.Handle(ctx, router.Command{
		Name: cmd.Name,
		Args: cmd.Args,
		Actor: santa.Actor{
			ID:          cmd.Actor.ID,
			DisplayName: cmd.Actor.DisplayName,
			Username:    cmd.Actor.Username,
		},
	})

	slog.Debug("HandleCommand successful",
		"command", cmd.Name,
		"user_id", cmd.Actor.ID,
		"notifications", len(res.Notifications),
	)

	return connect.NewResponse(&gateway.HandleCommandResponse{
		Text: res.Text,
		Notifications: lo.Map(res.Notifications, func(m notify.Message, _ int) gateway.Notification {
			return gateway.Notification{ID: m.ID, UserID: m.UserID, Text: m.Text}
		}),
	}), nil
}
