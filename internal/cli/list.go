package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filter string
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Tests []string `json:"tests"`
	Total int      `json:"total"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test names in run order",
		Long: `List the registered tests in the order "run" would execute them.

Examples:
  tinytest list
  tinytest list --filter "adder*"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "list only tests whose name matches this glob pattern")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pattern := opts.Config.Filter
	if cmd.Flags().Changed("filter") {
		pattern = opts.Filter
	}

	suite := opts.suite
	if pattern != "" {
		var err error
		suite, err = suite.Filter(pattern)
		if err != nil {
			return formatter.Fail(ErrCodeFilter, "invalid --filter", err)
		}
	}

	names := suite.Names()
	if formatter.JSON() {
		return formatter.Success(ListResult{Tests: names, Total: len(names)})
	}

	if len(names) == 0 {
		fmt.Fprintln(formatter.Writer, "No tests found.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(formatter.Writer, name)
	}
	return nil
}
