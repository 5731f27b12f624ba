package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"digest/internal/models"
	"digest/internal/output"
)

var (
	issueStatus    string
	issueBy        string
	issueText      string
	issueFrom      string
	issueChannel   string
	issueTimestamp string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage tracked issues",
	Long:  "List, inspect, and update tracked issues and their status history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show issue details including status history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

var issueStatusCmd = &cobra.Command{
	Use:   "status <issue-id> <new-status>",
	Short: "Update an issue's status",
	Long:  "Move an issue to a new status (open, investigating, resolved, closed).\nEvery transition is appended to the issue's status history.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueStatusRun(args[0], args[1])
	},
}

var issueSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search issues by text",
	Long:  "Search issue titles, descriptions, and original message text.\nResults are ordered most recently updated first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueSearchRun(args[0])
	},
}

var issueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show issue statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueStatsRun()
	},
}

var issueCommentCmd = &cobra.Command{
	Use:   "comment <issue-id>",
	Short: "Attach a related message to an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueCommentRun(args[0])
	},
}

func init() {
	issueListCmd.Flags().StringVar(&issueStatus, "status", "", "Filter by status: open, investigating, resolved, closed")

	issueStatusCmd.Flags().StringVar(&issueBy, "by", "", "User making the change (defaults to acting user)")

	issueCommentCmd.Flags().StringVar(&issueText, "text", "", "Message text (required)")
	issueCommentCmd.Flags().StringVar(&issueFrom, "from", "", "User who posted the message")
	issueCommentCmd.Flags().StringVar(&issueChannel, "channel", "", "Channel the message was posted in")
	issueCommentCmd.Flags().StringVar(&issueTimestamp, "ts", "", "Platform message timestamp")
	_ = issueCommentCmd.MarkFlagRequired("text")

	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueStatusCmd)
	issueCmd.AddCommand(issueSearchCmd)
	issueCmd.AddCommand(issueStatsCmd)
	issueCmd.AddCommand(issueCommentCmd)
	rootCmd.AddCommand(issueCmd)
}

func issueListRun() error {
	var status models.IssueStatus
	if issueStatus != "" {
		parsed, ok := models.ParseStatus(issueStatus)
		if !ok {
			return fmt.Errorf("unknown status: %s", issueStatus)
		}
		status = parsed
	}

	list := getTracker().List(actingUser(), status)
	if len(list) == 0 {
		ui.Info("No issues tracked.")
		return nil
	}

	ids := make([]string, 0, len(list))
	for id := range list {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return list[ids[i]].UpdatedAt.After(list[ids[j]].UpdatedAt)
	})

	table := ui.Table([]string{"ID", "Title", "Status", "Priority", "Channel", "Updated"})
	for _, id := range ids {
		issue := list[id]
		table.Append([]string{
			output.Cyan(id),
			issue.Title,
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
			issue.Channel,
			issue.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func issueShowRun(id string) error {
	issue, ok := getTracker().Get(actingUser(), id)
	if !ok {
		return fmt.Errorf("issue not found: %s", id)
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(issue.ID), issue.Title)
	fmt.Fprintf(ui.Out, "  Status:    %s\n", output.StatusColor(string(issue.Status)))
	fmt.Fprintf(ui.Out, "  Priority:  %s\n", output.PriorityColor(string(issue.Priority)))
	if len(issue.Tags) > 0 {
		tags := make([]string, len(issue.Tags))
		for i, t := range issue.Tags {
			tags[i] = string(t)
		}
		fmt.Fprintf(ui.Out, "  Tags:      %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(ui.Out, "  Channel:   #%s\n", issue.Channel)
	fmt.Fprintf(ui.Out, "  Reporter:  %s\n", issue.Reporter)
	fmt.Fprintf(ui.Out, "  Created:   %s\n", issue.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(ui.Out, "  Updated:   %s\n", issue.UpdatedAt.Format("2006-01-02 15:04:05"))
	if issue.Description != "" {
		fmt.Fprintf(ui.Out, "\n  %s\n", issue.Description)
	}
	fmt.Fprintf(ui.Out, "\n  Original: %s\n", issue.OriginalText)

	fmt.Fprintln(ui.Out, "\n  History:")
	for _, change := range issue.StatusHistory {
		line := fmt.Sprintf("    %s  %s", change.Timestamp.Format("2006-01-02 15:04:05"), output.StatusColor(string(change.Status)))
		if change.PreviousStatus != "" {
			line += fmt.Sprintf(" (from %s)", change.PreviousStatus)
		}
		line += fmt.Sprintf(" by %s", change.User)
		fmt.Fprintln(ui.Out, line)
	}

	if len(issue.RelatedMessages) > 0 {
		fmt.Fprintln(ui.Out, "\n  Related messages:")
		for _, m := range issue.RelatedMessages {
			fmt.Fprintf(ui.Out, "    [#%s] %s: %s\n", m.Channel, m.User, m.Text)
		}
	}
	return nil
}

func issueStatusRun(id, rawStatus string) error {
	status, ok := models.ParseStatus(rawStatus)
	if !ok {
		return fmt.Errorf("unknown status: %s (expected open, investigating, resolved, or closed)", rawStatus)
	}

	if !getTracker().UpdateStatus(actingUser(), id, status, issueBy) {
		return fmt.Errorf("issue not found: %s", id)
	}
	ui.Success("Issue %s moved to %s", output.Cyan(id), output.StatusColor(rawStatus))
	return nil
}

func issueSearchRun(query string) error {
	results := getTracker().Search(actingUser(), query)
	if len(results) == 0 {
		ui.Info("No issues matching %q.", query)
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Status", "Priority", "Updated"})
	for _, issue := range results {
		table.Append([]string{
			output.Cyan(issue.ID),
			issue.Title,
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
			issue.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func issueStatsRun() error {
	stats := getTracker().Statistics(actingUser())

	fmt.Fprintf(ui.Out, "Total issues:    %d\n", stats.Total)
	fmt.Fprintf(ui.Out, "  %s   %d\n", output.StatusColor("open"), stats.Open)
	fmt.Fprintf(ui.Out, "  %s  %d\n", output.StatusColor("investigating"), stats.Investigating)
	fmt.Fprintf(ui.Out, "  %s  %d\n", output.StatusColor("resolved"), stats.Resolved)
	fmt.Fprintf(ui.Out, "  %s  %d\n", output.StatusColor("closed"), stats.Closed)

	fmt.Fprintln(ui.Out, "\nBy priority:")
	for _, p := range models.Priorities() {
		fmt.Fprintf(ui.Out, "  %s  %d\n", output.PriorityColor(string(p)), stats.ByPriority[p])
	}

	fmt.Fprintf(ui.Out, "\nUpdated in last 24h: %d\n", stats.RecentActivity)
	return nil
}

func issueCommentRun(id string) error {
	msg := models.Message{
		Text:    issueText,
		User:    issueFrom,
		Channel: issueChannel,
		TS:      issueTimestamp,
	}
	if !getTracker().AddRelatedMessage(actingUser(), id, msg) {
		return fmt.Errorf("issue not found: %s", id)
	}
	ui.Success("Added related message to %s", output.Cyan(id))
	return nil
}
