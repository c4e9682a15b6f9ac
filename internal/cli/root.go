package cli

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Token   string
	Output  string // "json" | "yaml"
	Timeout time.Duration
}

// ValidOutputs defines the allowed output formats.
var ValidOutputs = []string{"json", "yaml"}

// NewRootCommand creates the root command for linkagectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "linkagectl",
		Short: "Client for the Aadhaar linkage service",
		Long: `Client for the Aadhaar linkage service.

Field values are sent in plaintext to the server, which stores only their
digests. Results print the server response in the chosen format.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidOutputs, opts.Output) {
				return Fail(ExitCommandError,
					fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, ValidOutputs), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("LINKAGE_SERVER", "http://localhost:8080"), "linkage service base URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("LINKAGE_TOKEN"), "bearer token for the linkage service")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "json", "output format (json|yaml)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewRawCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
