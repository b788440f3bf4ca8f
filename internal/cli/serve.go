package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
	"github.com/rshade/planetzero/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serves the JSON API under /api/v1 until interrupted. Every API route
requires an "Authorization: Bearer <token>" header; mint tokens with
'planetzero token <user-id>' using the same server.jwt_secret.`,
		Example: `  PLANETZERO_JWT_SECRET=change-me planetzero serve --addr :8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			period, err := engine.ParsePeriod(cfg.Leaderboard.DefaultPeriod)
			if err != nil {
				return err
			}
			tokens, err := server.NewTokenService(cfg.Server.JWTSecret, cfg.Server.Issuer, cfg.Server.TokenTTL)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			debug, _ := cmd.Flags().GetBool("debug")
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			return withEngine(cmd, func(_ context.Context, eng *engine.Engine) error {
				srv, err := server.New(server.Options{
					Addr:              cfg.Server.Addr,
					Engine:            eng,
					Tokens:            tokens,
					Logger:            logging.ComponentLogger(*logging.FromContext(ctx), "server"),
					LeaderboardLimit:  cfg.Leaderboard.DefaultLimit,
					LeaderboardPeriod: period,
				})
				if err != nil {
					return err
				}
				cmd.PrintErrf("Listening on %s\n", cfg.Server.Addr)
				return srv.Run(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultServerAddr, "listen address (default server.addr)")

	return cmd
}

// NewTokenCmd creates the token command.
func NewTokenCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for the HTTP API",
		Long: `Prints a signed token whose subject is user-id, valid for server.token_ttl.
The optional --name becomes the user's display name the first time the token
is used.`,
		Example: `  TOKEN=$(planetzero token alice --name "Alice")
  curl -H "Authorization: Bearer $TOKEN" localhost:8080/api/v1/dashboard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetGlobalConfig()
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			tokens, err := server.NewTokenService(cfg.Server.JWTSecret, cfg.Server.Issuer, cfg.Server.TokenTTL)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(args[0], name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")

	return cmd
}
