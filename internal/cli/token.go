package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "linkage/internal/jwt_token"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	ClientID   string
	SigningKey string
	TTL        time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a service token from the signing key",
		Long:  "Mint a service token for local use. The signing key defaults to JWT_SIGNING_KEY.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.SigningKey == "" {
				return Fail(ExitCommandError, "signing key is required (--signing-key or JWT_SIGNING_KEY)", nil)
			}
			token, err := jwttoken.NewJWTService(opts.SigningKey, jwttoken.ServiceIssuer, jwttoken.ServiceAudience).
				GenerateServiceToken(opts.ClientID, opts.TTL)
			if err != nil {
				return Fail(ExitCommandError, "mint token", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "client id recorded as the audit actor")
	cmd.Flags().StringVar(&opts.SigningKey, "signing-key", os.Getenv("JWT_SIGNING_KEY"), "HS256 signing key")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}
