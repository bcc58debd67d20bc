package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sumire/issuetracker/internal/domain"
)

var (
	listFilters []string

	createInput domain.NewIssue

	updateTitle      string
	updateText       string
	updateCreatedBy  string
	updateAssignedTo string
	updateStatusText string
	updateClose      bool
	updateReopen     bool
)

var listCmd = &cobra.Command{
	Use:     "list <project>",
	Aliases: []string{"ls"},
	Short:   "List a project's issues",
	Long: `List a project's issues. Repeat --filter to require several fields,
e.g. --filter open=true --filter created_by=alice.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := parseFilters(listFilters)
		if err != nil {
			return err
		}
		return listRun(cmd.Context(), args[0], filters)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <project>",
	Short: "Open a new issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createRun(cmd.Context(), args[0], createInput)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <project> <issue-id>",
	Short: "Update fields of an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateRun(cmd.Context(), args[0], args[1], updateFieldsFromFlags(cmd))
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <project> <issue-id>",
	Aliases: []string{"rm"},
	Short:   "Delete an issue",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteRun(cmd.Context(), args[0], args[1])
	},
}

func init() {
	listCmd.Flags().StringArrayVarP(&listFilters, "filter", "f", nil, "Filter as field=value (repeatable)")

	createCmd.Flags().StringVar(&createInput.IssueTitle, "title", "", "Issue title (required)")
	createCmd.Flags().StringVar(&createInput.IssueText, "text", "", "Issue text (required)")
	createCmd.Flags().StringVar(&createInput.CreatedBy, "created-by", "", "Reporter (required)")
	createCmd.Flags().StringVar(&createInput.AssignedTo, "assigned-to", "", "Assignee")
	createCmd.Flags().StringVar(&createInput.StatusText, "status-text", "", "Free-form status")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("text")
	_ = createCmd.MarkFlagRequired("created-by")

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVar(&updateText, "text", "", "New text")
	updateCmd.Flags().StringVar(&updateCreatedBy, "created-by", "", "New reporter")
	updateCmd.Flags().StringVar(&updateAssignedTo, "assigned-to", "", "New assignee")
	updateCmd.Flags().StringVar(&updateStatusText, "status-text", "", "New status text")
	updateCmd.Flags().BoolVar(&updateClose, "close", false, "Close the issue")
	updateCmd.Flags().BoolVar(&updateReopen, "reopen", false, "Reopen the issue")
	updateCmd.MarkFlagsMutuallyExclusive("close", "reopen")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
}

// parseFilters turns field=value pairs into query parameters.
func parseFilters(pairs []string) (url.Values, error) {
	filters := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (want field=value)", pair)
		}
		filters.Add(key, value)
	}
	return filters, nil
}

// updateFieldsFromFlags sets only the fields whose flags were given.
func updateFieldsFromFlags(cmd *cobra.Command) domain.IssueFields {
	var fields domain.IssueFields
	flags := cmd.Flags()
	if flags.Changed("title") {
		fields.IssueTitle = &updateTitle
	}
	if flags.Changed("text") {
		fields.IssueText = &updateText
	}
	if flags.Changed("created-by") {
		fields.CreatedBy = &updateCreatedBy
	}
	if flags.Changed("assigned-to") {
		fields.AssignedTo = &updateAssignedTo
	}
	if flags.Changed("status-text") {
		fields.StatusText = &updateStatusText
	}
	if updateClose {
		open := false
		fields.Open = &open
	}
	if updateReopen {
		open := true
		fields.Open = &open
	}
	return fields
}

func listRun(ctx context.Context, project string, filters url.Values) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	issues, err := newClient().List(ctx, project, filters)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}
	return renderIssues(out, format, issues)
}

func createRun(ctx context.Context, project string, in domain.NewIssue) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	issue, err := newClient().Create(ctx, project, in)
	if err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return renderIssue(out, format, issue)
}

func updateRun(ctx context.Context, project, id string, fields domain.IssueFields) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if err := newClient().Update(ctx, project, id, fields); err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	return renderResult(out, format, mutationResult{Result: "successfully updated", ID: id})
}

func deleteRun(ctx context.Context, project, id string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if err := newClient().Delete(ctx, project, id); err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	return renderResult(out, format, mutationResult{Result: "successfully deleted", ID: id})
}
