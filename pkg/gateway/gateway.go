// Package gateway is the RPC contract between a chat transport (for example a
// Telegram poller) and the wichtelbot server.
//
// The transport forwards every chat message as a Command and delivers the
// returned reply text plus any private notifications.
package gateway

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	// ServiceName is the fully-qualified name of the gateway service.
	ServiceName = "wichtelbot.v1.GatewayService"

	// HandleCommandProcedure is the RPC path of GatewayService.HandleCommand.
	HandleCommandProcedure = "/" + ServiceName + "/HandleCommand"
)

// Actor identifies the chat user who sent a message.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Username    string `json:"username,omitempty"`
}

// Command is one chat message. Name is the command without the leading slash;
// an empty Name marks plain text, whose words are in Args.
type Command struct {
	Name  string   `json:"name"`
	Args  []string `json:"args"`
	Actor Actor    `json:"actor"`
}

// Notification is a private message the transport must deliver. ID is stable
// per message so redeliveries can be dropped.
type Notification struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type HandleCommandRequest struct {
	Command Command `json:"command"`
}

type HandleCommandResponse struct {
	// Text is the reply to the sender of the command.
	Text          string         `json:"text"`
	Notifications []Notification `json:"notifications"`
}

// GatewayServiceHandler is implemented by the server.
type GatewayServiceHandler interface {
	HandleCommand(context.Context, *connect.Request[HandleCommandRequest]) (*connect.Response[HandleCommandResponse], error)
}

// NewGatewayServiceHandler builds an HTTP handler for svc. It returns the path
// to mount the handler on.
func NewGatewayServiceHandler(svc GatewayServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	handleCommand := connect.NewUnaryHandler(
		HandleCommandProcedure,
		svc.HandleCommand,
		opts...,
	)
	return "/" + ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case HandleCommandProcedure:
			handleCommand.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GatewayServiceClient calls the gateway service.
type GatewayServiceClient struct {
	handleCommand *connect.Client[HandleCommandRequest, HandleCommandResponse]
}

// NewGatewayServiceClient creates a client for the server at baseURL, for
// example http://localhost:8080.
func NewGatewayServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GatewayServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &GatewayServiceClient{
		handleCommand: connect.NewClient[HandleCommandRequest, HandleCommandResponse](
			httpClient,
			baseURL+HandleCommandProcedure,
			opts...,
		),
	}
}

// HandleCommand calls wichtelbot.v1.GatewayService.HandleCommand.
func (c *GatewayServiceClient) HandleCommand(ctx context.Context, req *connect.Request[HandleCommandRequest]) (*connect.Response[HandleCommandResponse], error) {
	return c.handleCommand.CallUnary(ctx, req)
}
