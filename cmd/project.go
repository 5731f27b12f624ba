package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"digest/internal/output"
)

var (
	projectChannels []string
	projectKeywords []string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage project configurations",
	Long:  "Manage named channel/keyword groupings used to scope digests and issue detection.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create or replace a project",
	Long:  "Create a project. An existing project with the same name is replaced outright.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectCreateRun(args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun()
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show project details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(args[0])
	},
}

var projectChannelsCmd = &cobra.Command{
	Use:   "channels <name> <channel>...",
	Short: "Replace a project's channel list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !getRegistry().UpdateChannels(actingUser(), args[0], args[1:]) {
			return fmt.Errorf("project not found: %s", args[0])
		}
		ui.Success("Updated channels for %s", output.Cyan(args[0]))
		return nil
	},
}

var projectKeywordsCmd = &cobra.Command{
	Use:   "keywords <name> [keyword]...",
	Short: "Replace a project's keyword list",
	Long:  "Replace a project's keyword list. With no keywords, the project matches everything.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !getRegistry().UpdateKeywords(actingUser(), args[0], args[1:]) {
			return fmt.Errorf("project not found: %s", args[0])
		}
		ui.Success("Updated keywords for %s", output.Cyan(args[0]))
		return nil
	},
}

var projectToggleCmd = &cobra.Command{
	Use:   "toggle <name>",
	Short: "Toggle a project active/inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		active, ok := getRegistry().ToggleActive(actingUser(), args[0])
		if !ok {
			return fmt.Errorf("project not found: %s", args[0])
		}
		if active {
			ui.Success("Project %s is now %s", output.Cyan(args[0]), output.Green("active"))
		} else {
			ui.Success("Project %s is now %s", output.Cyan(args[0]), output.Yellow("inactive"))
		}
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a project",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		getRegistry().Delete(actingUser(), args[0])
		ui.Success("Deleted project %s", output.Cyan(args[0]))
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringSliceVar(&projectChannels, "channels", nil, "Channels to monitor (required)")
	projectCreateCmd.Flags().StringSliceVar(&projectKeywords, "keywords", nil, "Keywords to filter on (empty matches everything)")
	_ = projectCreateCmd.MarkFlagRequired("channels")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectChannelsCmd)
	projectCmd.AddCommand(projectKeywordsCmd)
	projectCmd.AddCommand(projectToggleCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectCreateRun(name string) error {
	getRegistry().Create(actingUser(), name, projectChannels, projectKeywords)
	ui.Success("Created project %s monitoring %d channel(s)", output.Cyan(name), len(projectChannels))
	return nil
}

func projectListRun() error {
	list := getRegistry().List(actingUser())
	if len(list) == 0 {
		ui.Info("No projects configured. Use 'digest project create <name> --channels ...' to get started.")
		return nil
	}

	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	sort.Strings(names)

	table := ui.Table([]string{"Project", "Channels", "Keywords", "Active"})
	for _, name := range names {
		p := list[name]
		active := output.Green("yes")
		if !p.Active {
			active = output.Yellow("no")
		}
		keywords := strings.Join(p.Keywords, ", ")
		if keywords == "" {
			keywords = "-"
		}
		table.Append([]string{
			output.Cyan(name),
			strings.Join(p.Channels, ", "),
			keywords,
			active,
		})
	}
	table.Render()
	return nil
}

func projectShowRun(name string) error {
	p, ok := getRegistry().Get(actingUser(), name)
	if !ok {
		return fmt.Errorf("project not found: %s", name)
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(name))
	fmt.Fprintf(ui.Out, "  Channels:  %s\n", strings.Join(p.Channels, ", "))
	if len(p.Keywords) > 0 {
		fmt.Fprintf(ui.Out, "  Keywords:  %s\n", strings.Join(p.Keywords, ", "))
	} else {
		fmt.Fprintf(ui.Out, "  Keywords:  (all messages)\n")
	}
	fmt.Fprintf(ui.Out, "  Active:    %t\n", p.Active)
	fmt.Fprintf(ui.Out, "  Created:   %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
