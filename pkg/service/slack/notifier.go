package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/domain/interfaces"
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Notifier posts discordance notices to Slack channels
type Notifier struct {
	api *slack.Client
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*notifierConfig)

type notifierConfig struct {
	apiURL string
}

// WithAPIURL overrides the Slack API endpoint, e.g. for a local test server.
// The URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(c *notifierConfig) {
		c.apiURL = url
	}
}

// New creates a Notifier with the provided bot token
func New(token string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	cfg := &notifierConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var slackOpts []slack.Option
	if cfg.apiURL != "" {
		slackOpts = append(slackOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &Notifier{
		api: slack.New(token, slackOpts...),
	}, nil
}

// NotifyDiscordance posts the list of categories where the automatic band and
// the expert band disagree. Nothing is sent when there is no discordance.
func (n *Notifier) NotifyDiscordance(ctx context.Context, channelID string, workspace model.Workspace, assessment *model.Assessment) error {
	if channelID == "" {
		return goerr.New("Slack channel is required", goerr.V("workspace_id", workspace.ID))
	}
	if !assessment.Summary.HasDiscordance() {
		return nil
	}

	text, blocks := buildDiscordanceMessage(workspace, assessment)

	_, _, err := n.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post discordance notice",
			goerr.V("channel_id", channelID),
			goerr.V("assessment_id", assessment.ID))
	}

	return nil
}

func bandLabel(b types.Band) string {
	if b.IsNotApplicable() {
		return "N/A"
	}
	return b.String()
}

// buildDiscordanceMessage returns the fallback text and the Block Kit body
func buildDiscordanceMessage(workspace model.Workspace, assessment *model.Assessment) (string, []slack.Block) {
	title := assessment.Title
	if assessment.SubjectName != "" {
		title = fmt.Sprintf("%s (%s)", assessment.Title, assessment.SubjectName)
	}

	text := fmt.Sprintf("%d categories of %q in %s have discordant risk bands",
		len(assessment.Summary.Discordant), title, workspace.Name)

	var lines []string
	for _, catID := range assessment.Summary.Discordant {
		c, ok := assessment.Summary.Category(catID)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("• *%s*: automatic `%s` / expert `%s` (aggregate %d)",
			catID, bandLabel(c.AutomaticBand), bandLabel(c.ExpertBand), c.Aggregate))
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "Discordant risk assessment", false, false),
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			[]*slack.TextBlockObject{
				slack.NewTextBlockObject(slack.MarkdownType, "*Workspace*\n"+workspace.Name, false, false),
				slack.NewTextBlockObject(slack.MarkdownType, "*Assessment*\n"+assessment.ID.String(), false, false),
			},
			nil,
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, strings.Join(lines, "\n"), false, false),
			nil, nil,
		),
	}

	return text, blocks
}
