// Package slack delivers the condensed incident summary to a channel when a
// bot token and channel id are configured.
package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"tracehound/internal/analyzer"
)

type Config struct {
	BotToken  string
	ChannelID string
}

// Enabled reports whether delivery is configured at all.
func (c Config) Enabled() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// SendSummary posts the ticket-ready summary as a block-kit message.
func SendSummary(syn analyzer.Synthesis, config Config) error {
	api := slack.New(config.BotToken)

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			"plain_text",
			"Incident Report — Journal Trace Analysis",
			false, false,
		)),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn",
				fmt.Sprintf("*Summary:*\n%s", syn.Summary),
				false, false),
			nil, nil,
		),
	}

	if len(syn.ImpactedServices) > 0 {
		services := make([]string, len(syn.ImpactedServices))
		for i, s := range syn.ImpactedServices {
			services[i] = fmt.Sprintf("• %s", s)
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("mrkdwn",
				fmt.Sprintf("*Impacted Services:*\n%s", strings.Join(services, "\n")),
				false, false),
			nil, nil,
		))
	}

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject("mrkdwn",
			fmt.Sprintf("Analyzed at: %s", time.Now().UTC().Format(time.RFC1123)),
			false, false),
	))

	_, msgTimestamp, err := api.PostMessage(
		config.ChannelID,
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		log.Err(err).Str("channel", config.ChannelID).Msg("Failed to post Slack message")
		return err
	}

	log.Info().
		Str("channel", config.ChannelID).
		Str("timestamp", msgTimestamp).
		Msg("Summary posted to Slack")
	return nil
}
