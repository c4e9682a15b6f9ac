package cli

import (
	"github.com/spf13/cobra"

	"linkage/internal/linkage/models"
)

// RawOptions holds flags for the raw command.
type RawOptions struct {
	*RootOptions
	Action       string
	Key          string
	Fields       []string
	Nulls        []string
	NoData       bool
	FailNotFound bool
}

// NewRawCommand creates the raw command, which sends the action tag exactly
// as given.
func NewRawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RawOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:     "raw",
		Short:   "Send a request with an arbitrary action tag",
		Example: `  linkagectl raw --action " search " --field forename=Asha`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.Request{}
			if cmd.Flags().Changed("action") {
				req.Action = &opts.Action
			}
			if opts.Key != "" {
				req.WithKey(opts.Key)
			}
			data, err := parseFields(opts.Fields, opts.Nulls)
			if err != nil {
				return Fail(ExitCommandError, "invalid flags", err)
			}
			if data == nil && !opts.NoData {
				data = map[string]*string{}
			}
			req.WithData(data)
			return send(cmd, opts.RootOptions, req, opts.FailNotFound)
		},
	}
	cmd.Flags().StringVar(&opts.Action, "action", "", "action tag, sent verbatim; omit to send no action")
	cmd.Flags().StringVar(&opts.Key, "key", "", "prior linkage key")
	cmd.Flags().StringArrayVarP(&opts.Fields, "field", "f", nil, "field as name=value (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Nulls, "null", nil, "field to send as an explicit null (repeatable)")
	cmd.Flags().BoolVar(&opts.NoData, "no-data", false, "omit the data mapping when no field is given")
	cmd.Flags().BoolVar(&opts.FailNotFound, "fail-not-found", false, "exit non-zero when the server answers NOT_FOUND")
	return cmd
}
