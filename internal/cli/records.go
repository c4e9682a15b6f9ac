package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"linkage/internal/linkage/models"
)

// RecordOptions holds flags shared by the record commands.
type RecordOptions struct {
	*RootOptions
	Fields       []string
	Nulls        []string
	Key          string
	FailNotFound bool
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a new identity record",
		Example: `  linkagectl insert --field aadhaar_number=123412341234 --field dob=1990-01-01 \
    --field forename=Asha --field lastname=Rao --field gender=F`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts, models.ActionInsert)
		},
	}
	addFieldFlags(cmd, opts)
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Patch fields of an existing record",
		Long:    "Patch fields of an existing record. Fields not named are left unchanged; --null clears a field.",
		Example: `  linkagectl update --key 3f0c... --field gender=M --null address`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts, models.ActionUpdate)
		},
	}
	addFieldFlags(cmd, opts)
	cmd.Flags().StringSliceVar(&opts.Nulls, "null", nil, "field to send as an explicit null (repeatable)")
	addKeyFlag(cmd, opts)
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a record by linkage key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts, models.ActionDelete)
		},
	}
	addKeyFlag(cmd, opts)
	cmd.Flags().BoolVar(&opts.FailNotFound, "fail-not-found", false, "exit non-zero when the server answers NOT_FOUND")
	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:     "search",
		Short:   "Find a record by aadhaar number, dob, forename and lastname",
		Example: `  linkagectl search --field aadhaar_number=123412341234 --field dob=1990-01-01 --field forename=Asha --field lastname=Rao`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, opts, models.ActionSearch)
		},
	}
	addFieldFlags(cmd, opts)
	return cmd
}

func addFieldFlags(cmd *cobra.Command, opts *RecordOptions) {
	cmd.Flags().StringArrayVarP(&opts.Fields, "field", "f", nil, "field as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.FailNotFound, "fail-not-found", false, "exit non-zero when the server answers NOT_FOUND")
}

func addKeyFlag(cmd *cobra.Command, opts *RecordOptions) {
	cmd.Flags().StringVar(&opts.Key, "key", "", "linkage key of the record")
	_ = cmd.MarkFlagRequired("key")
}

func runRecord(cmd *cobra.Command, opts *RecordOptions, action models.Action) error {
	req := models.NewRequest(string(action))
	if opts.Key != "" {
		req.WithKey(opts.Key)
	}
	if action != models.ActionDelete {
		data, err := parseFields(opts.Fields, opts.Nulls)
		if err != nil {
			return Fail(ExitCommandError, "invalid flags", err)
		}
		if data != nil || action == models.ActionInsert || action == models.ActionSearch {
			if data == nil {
				data = map[string]*string{}
			}
			req.WithData(data)
		}
	}
	return send(cmd, opts.RootOptions, req, opts.FailNotFound)
}

// parseFields builds a data mapping from name=value pairs and explicit nulls.
// It returns nil when no field was given.
func parseFields(pairs, nulls []string) (map[string]*string, error) {
	if len(pairs) == 0 && len(nulls) == 0 {
		return nil, nil
	}
	data := make(map[string]*string, len(pairs)+len(nulls))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("field %q: expected name=value", pair)
		}
		data[name] = &value
	}
	for _, name := range nulls {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty --null field name")
		}
		if _, dup := data[name]; dup {
			return nil, fmt.Errorf("field %q given both a value and --null", name)
		}
		data[name] = nil
	}
	return data, nil
}

func send(cmd *cobra.Command, opts *RootOptions, req *models.Request, failNotFound bool) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	resp, err := NewClient(opts.Server, opts.Token, nil).Do(ctx, req)
	if err != nil {
		return Fail(ExitCommandError, "linkage request failed", err)
	}
	if err := Render(cmd.OutOrStdout(), opts.Output, resp); err != nil {
		return Fail(ExitCommandError, "render response", err)
	}
	return outcome(resp, failNotFound)
}
