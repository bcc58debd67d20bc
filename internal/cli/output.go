package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/sumire/issuetracker/internal/domain"
)

var (
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// newTable creates a tablewriter with the borderless issuectl styling.
func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

func stateLabel(open bool) string {
	if open {
		return green("open")
	}
	return red("closed")
}

func renderIssues(w io.Writer, format string, issues []domain.Issue) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, issues)
	case FormatYAML:
		return writeYAML(w, issues)
	}

	if len(issues) == 0 {
		fmt.Fprintf(w, "%s No issues found.\n", infoPrefix)
		return nil
	}

	table := newTable(w, []string{"ID", "Title", "State", "Created By", "Assigned To", "Status", "Updated"})
	for _, issue := range issues {
		_ = table.Append([]string{
			cyan(issue.ID),
			issue.IssueTitle,
			stateLabel(issue.Open),
			issue.CreatedBy,
			issue.AssignedTo,
			issue.StatusText,
			issue.UpdatedOn.Format(time.RFC3339),
		})
	}
	return table.Render()
}

func renderIssue(w io.Writer, format string, issue *domain.Issue) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, issue)
	case FormatYAML:
		return writeYAML(w, issue)
	}

	fmt.Fprintf(w, "%s Created issue %s: %s\n", successPrefix, cyan(issue.ID), issue.IssueTitle)
	fmt.Fprintf(w, "  State:      %s\n", stateLabel(issue.Open))
	fmt.Fprintf(w, "  Created by: %s\n", issue.CreatedBy)
	if issue.AssignedTo != "" {
		fmt.Fprintf(w, "  Assigned:   %s\n", issue.AssignedTo)
	}
	if issue.StatusText != "" {
		fmt.Fprintf(w, "  Status:     %s\n", issue.StatusText)
	}
	fmt.Fprintf(w, "  Created:    %s\n", issue.CreatedOn.Format(time.RFC3339))
	return nil
}

// mutationResult mirrors the server's {result, _id} acknowledgement.
type mutationResult struct {
	Result string `json:"result" yaml:"result"`
	ID     string `json:"_id" yaml:"_id"`
}

func renderResult(w io.Writer, format string, res mutationResult) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatYAML:
		return writeYAML(w, res)
	}
	fmt.Fprintf(w, "%s %s %s\n", successPrefix, res.Result, cyan(res.ID))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
