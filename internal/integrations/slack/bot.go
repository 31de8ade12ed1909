// Package slackbot posts complaint alerts to Slack and serves the /qa-*
// slash commands over Socket Mode.
package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"complaintqa/internal/domain"
	"complaintqa/internal/reprocess"
	"complaintqa/internal/storage/sqlite"
)

// Backend is the complaint service the slash commands drive.
type Backend interface {
	LatestAnalysis(ctx context.Context, complaintID int64) (domain.AnalysisResult, error)
	AnalyzeComplaint(ctx context.Context, complaintID int64) (domain.AnalysisResult, error)
	Reprocess(ctx context.Context) (reprocess.Summary, error)
	Stats(since time.Time) (sqlite.AgreementStats, error)
}

type ephemeralPoster interface {
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slack.MsgOption) (string, error)
}

type Bot struct {
	api     *slack.Client
	poster  ephemeralPoster
	backend Backend
	admins  *adminSet
	now     func() time.Time
}

func NewBot(api *slack.Client, backend Backend, adminUsers []string) *Bot {
	return &Bot{
		api:     api,
		poster:  api,
		backend: backend,
		admins:  newAdminSet(api, adminUsers),
		now:     time.Now,
	}
}

// Run connects over Socket Mode and blocks until the connection fails or
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	client := socketmode.New(b.api)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-client.Events:
				if !ok {
					return
				}
				switch evt.Type {
				case socketmode.EventTypeSlashCommand:
					client.Ack(*evt.Request)
					cmd, ok := evt.Data.(slack.SlashCommand)
					if !ok {
						continue
					}
					log.Printf("Slash command received: %s from user=%s channel=%s", cmd.Command, cmd.UserID, cmd.ChannelID)
					go b.handleSlashCommand(ctx, cmd)
				case socketmode.EventTypeConnected:
					log.Println("Slack bot connected via Socket Mode")
				case socketmode.EventTypeInvalidAuth:
					log.Println("Slack bot authentication failed")
				}
			}
		}
	}()

	return client.RunContext(ctx)
}

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	reply := b.respond(ctx, cmd)
	if reply == "" {
		return
	}
	b.postEphemeral(ctx, cmd, reply)
}

func (b *Bot) postEphemeral(ctx context.Context, cmd slack.SlashCommand, text string) {
	if _, err := b.poster.PostEphemeralContext(ctx, cmd.ChannelID, cmd.UserID, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("Error posting ephemeral: %v", err)
	}
}

// respond returns the text shown to the command's author.
func (b *Bot) respond(ctx context.Context, cmd slack.SlashCommand) string {
	switch cmd.Command {
	case "/qa-analyze":
		return b.handleAnalyze(ctx, cmd)
	case "/qa-reprocess":
		return b.adminOnly(cmd, func() string { return b.handleReprocess(ctx, cmd) })
	case "/qa-stats":
		return b.adminOnly(cmd, func() string { return b.handleStats(cmd) })
	case "/qa-help":
		isAdmin, err := b.admins.isAdmin(cmd.UserID)
		if err != nil {
			log.Printf("help auth error user=%s: %v", cmd.UserID, err)
		}
		return helpText(isAdmin, b.admins.configured())
	default:
		return ""
	}
}

func (b *Bot) adminOnly(cmd slack.SlashCommand, run func() string) string {
	isAdmin, err := b.admins.isAdmin(cmd.UserID)
	if err != nil {
		log.Printf("%s auth error user=%s: %v", cmd.Command, cmd.UserID, err)
		return fmt.Sprintf("Error checking permissions: %v", err)
	}
	if !isAdmin {
		if !b.admins.configured() {
			return fmt.Sprintf("Sorry, %s is disabled: no admins are configured.", cmd.Command)
		}
		return fmt.Sprintf("Sorry, %s is restricted to admins.", cmd.Command)
	}
	return run()
}

func (b *Bot) handleAnalyze(ctx context.Context, cmd slack.SlashCommand) string {
	id, refresh, err := parseAnalyzeArgs(cmd.Text)
	if err != nil {
		return err.Error()
	}

	var res domain.AnalysisResult
	if refresh {
		res, err = b.backend.AnalyzeComplaint(ctx, id)
	} else {
		res, err = b.backend.LatestAnalysis(ctx, id)
	}
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		return fmt.Sprintf("Complaint #%d not found.", id)
	case err != nil:
		log.Printf("qa-analyze error complaint=%d: %v", id, err)
		return fmt.Sprintf("Error analysing complaint #%d: %v", id, err)
	}
	log.Printf("qa-analyze complaint=%d refresh=%t category=%s", id, refresh, res.RuleBasedCategory)
	return formatAnalysis(id, res)
}

func (b *Bot) handleReprocess(ctx context.Context, cmd slack.SlashCommand) string {
	b.postEphemeral(ctx, cmd, "Reprocessing complaints, this may take a while...")
	summary, err := b.backend.Reprocess(ctx)
	if err != nil {
		log.Printf("qa-reprocess error: %v", err)
		if summary.Total == 0 {
			return fmt.Sprintf("Reprocess failed: %v", err)
		}
	}
	return reprocess.FormatSummary(summary)
}

func (b *Bot) handleStats(cmd slack.SlashCommand) string {
	days, err := parseStatsDays(cmd.Text)
	if err != nil {
		return err.Error()
	}
	stats, err := b.backend.Stats(b.now().AddDate(0, 0, -days))
	if err != nil {
		log.Printf("qa-stats error: %v", err)
		return fmt.Sprintf("Error loading stats: %v", err)
	}
	return formatStats(stats, days)
}
