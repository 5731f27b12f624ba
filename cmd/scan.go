package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"digest/internal/detect"
	"digest/internal/models"
	"digest/internal/output"
	"digest/internal/summarize"
)

var (
	scanProject   string
	scanTrack     bool
	scanSummarize bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [messages-file]",
	Short: "Scan chat messages for technical issues",
	Long: `Scan a batch of chat messages for technical issues.

Messages are read as a JSON array of {text, user, channel, ts} objects
from the given file, or from stdin when the file is "-" or omitted.

With --project, messages are first scoped to the project's channels and
keywords. With --track, detected issues are persisted. With --summarize,
an issue-focused digest is generated via the Anthropic API.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}
		return scanRun(path)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanProject, "project", "", "Scope messages to a project's channels and keywords")
	scanCmd.Flags().BoolVar(&scanTrack, "track", false, "Persist detected issues")
	scanCmd.Flags().BoolVar(&scanSummarize, "summarize", false, "Generate an issue digest via the Anthropic API")
	rootCmd.AddCommand(scanCmd)
}

// readMessages loads the message batch from a file or stdin.
func readMessages(path string) ([]models.Message, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	var msgs []models.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse messages JSON: %w", err)
	}
	return msgs, nil
}

// scopeMessages filters a batch down to the given channels and
// keywords. Empty channels or keywords mean "no restriction".
func scopeMessages(msgs []models.Message, channels, keywords []string) []models.Message {
	channelSet := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		channelSet[ch] = struct{}{}
	}

	var scoped []models.Message
	for _, m := range msgs {
		if len(channelSet) > 0 {
			if _, ok := channelSet[m.Channel]; !ok {
				continue
			}
		}
		if len(keywords) > 0 && !matchesAnyKeyword(m.Text, keywords) {
			continue
		}
		scoped = append(scoped, m)
	}
	return scoped
}

func matchesAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func scanRun(path string) error {
	msgs, err := readMessages(path)
	if err != nil {
		return err
	}

	user := actingUser()
	var scopeChannels []string

	if scanProject != "" {
		p, ok := getRegistry().Get(user, scanProject)
		if !ok {
			return fmt.Errorf("project not found: %s", scanProject)
		}
		if !p.Active {
			ui.Warning("Project %s is inactive", scanProject)
		}
		scopeChannels = p.Channels
		msgs = scopeMessages(msgs, p.Channels, p.Keywords)
	} else if kws := getPrefs().Keywords(user); len(kws) > 0 {
		msgs = scopeMessages(msgs, nil, kws)
	}

	candidates := detect.Detect(msgs)
	if len(candidates) == 0 {
		ui.Info("No issues detected in %d messages.", len(msgs))
	} else {
		renderCandidates(candidates, msgs)
	}

	if scanTrack && len(candidates) > 0 {
		tracker := getTracker()
		for _, c := range candidates {
			id := tracker.Create(user, c)
			ui.Success("Tracked issue %s: %s", output.Cyan(id), c.Title)
		}
	}

	if scanSummarize {
		return summarizeScan(user, msgs, candidates, scopeChannels)
	}
	return nil
}

func renderCandidates(candidates []models.CandidateIssue, msgs []models.Message) {
	ui.Info("Detected %d issue(s) in %d messages:", len(candidates), len(msgs))

	table := ui.Table([]string{"Title", "Types", "Priority", "Channel", "Reporter"})
	for _, c := range candidates {
		types := make([]string, len(c.Types))
		for i, t := range c.Types {
			types[i] = string(t)
		}
		table.Append([]string{
			c.Title,
			strings.Join(types, ","),
			output.PriorityColor(string(c.Priority)),
			c.Channel,
			c.Reporter,
		})
	}
	table.Render()
}

func summarizeScan(user string, msgs []models.Message, candidates []models.CandidateIssue, channels []string) error {
	client := summarize.NewClient(
		viper.GetString("anthropic.api_key"),
		viper.GetString("anthropic.model"),
	)

	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = fmt.Sprintf("[#%s] %s: %s", m.Channel, m.User, m.Text)
	}

	ctx := context.Background()
	customPrompt := getPrefs().Prompt(user)

	var summary *summarize.Summary
	var err error
	if scanProject != "" {
		summary, err = client.ProjectDigest(ctx, texts, scanProject, channels, customPrompt)
	} else {
		summary, err = client.IssueDigest(ctx, texts, customPrompt, candidates)
	}
	if err != nil {
		ui.Error("Digest generation failed: %v", err)
		return nil
	}

	fmt.Fprintln(ui.Out)
	for _, b := range summary.Bullets {
		line := "• " + b.Text
		if b.Link != "" {
			line += " (" + b.Link + ")"
		}
		fmt.Fprintln(ui.Out, line)
	}
	return nil
}
