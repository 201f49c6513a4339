// Command gateway-token mints a bearer token for a chat transport calling the
// gateway service. The secret must match GATEWAY_SECRET of the server.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mmynk/wichtelbot/internal/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		gatewayID string
		secret    string
		ttl       time.Duration
	)

	flagSet := pflag.NewFlagSet("gateway-token", pflag.ContinueOnError)
	flagSet.StringVar(&gatewayID, "id", "", "name of the transport the token is for (required)")
	flagSet.StringVar(&secret, "secret", "", "signing secret (default: $GATEWAY_SECRET)")
	flagSet.DurationVar(&ttl, "ttl", 0, "token lifetime, 0 for no expiry")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  gateway-token --id <name> [--ttl 720h]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if gatewayID == "" {
		return errors.New("--id is required")
	}
	if secret == "" {
		_ = godotenv.Load()
		secret = os.Getenv("GATEWAY_SECRET")
	}

	jwtManager, err := auth.NewJWTManager(secret, ttl)
	if err != nil {
		return err
	}
	token, err := jwtManager.Generate(gatewayID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}
