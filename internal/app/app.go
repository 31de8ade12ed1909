// Package app wires configuration, storage, the analysis engine and the
// integrations behind the complaintqa command line.
package app

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"complaintqa/internal/analysis"
	"complaintqa/internal/config"
	"complaintqa/internal/httpx"
	llm "complaintqa/internal/integrations/llm"
	slackbot "complaintqa/internal/integrations/slack"
	"complaintqa/internal/review"
	"complaintqa/internal/storage/sqlite"
)

// Main runs the CLI and exits non-zero on failure.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// runtime holds what every subcommand needs once configuration is loaded.
type runtime struct {
	cfg      config.Config
	db       *sql.DB
	svc      *review.Service
	api      *slack.Client
	notifier *slackbot.Notifier
}

func setup() (*runtime, error) {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. LLMProvider=%s LLMConfigured=%t LLMTimeout=%s LLMGlossaryPath=%s ReprocessSchedule=%q ReprocessConcurrency=%d SlackConfigured=%t Timezone=%s ExternalHTTPTimeout=%s",
		cfg.LLMProvider,
		cfg.LLMConfigured(),
		cfg.LLMTimeout(),
		cfg.LLMGlossaryPath,
		cfg.ReprocessSchedule,
		cfg.ReprocessConcurrency,
		cfg.SlackConfigured(),
		cfg.Timezone,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Database initialized at %s", cfg.DBPath)

	engineCfg := analysis.EngineConfig{LLMTimeout: cfg.LLMTimeout()}
	if cfg.LLMGlossaryPath != "" {
		glossary, err := analysis.LoadGlossary(cfg.LLMGlossaryPath)
		if err != nil {
			db.Close()
			return nil, err
		}
		engineCfg.Glossary = glossary
		log.Printf("Glossary loaded terms=%d", len(glossary.Terms))
	}

	opts := review.Options{ReprocessConcurrency: cfg.ReprocessConcurrency}
	if client, ok := llm.New(cfg); ok {
		engineCfg.Classifier = client
		opts.LLMProvider, opts.LLMModel = client.Provider(), client.Model()
	}

	rt := &runtime{cfg: cfg, db: db}
	if cfg.SlackConfigured() {
		rt.api = slack.New(
			cfg.SlackBotToken,
			slack.OptionAppLevelToken(cfg.SlackAppToken),
		)
		rt.notifier = slackbot.NewNotifier(rt.api, cfg.SlackAlertChannelID)
		opts.Notifier = rt.notifier
	}
	rt.svc = review.NewService(db, analysis.NewEngine(engineCfg), opts)
	return rt, nil
}

func (rt *runtime) close() {
	if rt != nil && rt.db != nil {
		rt.db.Close()
	}
}

func NewRootCommand() *cobra.Command {
	var (
		cfgFile string
		rt      *runtime
	)

	root := &cobra.Command{
		Use:          "complaintqa",
		Short:        "Categorize refrigerator complaints and check technician findings against them",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				os.Setenv("CONFIG_PATH", cfgFile)
			}
			var err error
			rt, err = setup()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $CONFIG_PATH)")

	get := func() *runtime { return rt }
	root.AddCommand(
		newServeCommand(get),
		newAnalyzeCommand(get),
		newReprocessCommand(get),
		newNoteCommand(get),
		newImportCommand(get),
		newStatsCommand(get),
		newHistoryCommand(get),
		newGlossaryCommand(get),
	)
	return root
}
