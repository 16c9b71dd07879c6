package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"salaatflow/internal/agent"
	"salaatflow/internal/config"
	"salaatflow/internal/dispatch"
	"salaatflow/internal/extract"
	"salaatflow/internal/logging"
	"salaatflow/internal/oracle"
	"salaatflow/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "salaatflow",
	Short: "SalaatFlow - conversational spiritual task manager",
	Long: `SalaatFlow is a conversational assistant for spiritual tasks.

Type what you want in English, Urdu, or Roman Urdu: add and complete
tasks, set recurring reminders anchored to prayer times, and ask about
masjids, prayer schedules, and the daily hadith.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}
		if verbose {
			cfg.Logging.DebugMode = true
		}
		if err := logging.Initialize(".", cfg.Logging.DebugMode, cfg.Logging.Level); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if logger, err = zcfg.Build(); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// buildAgent opens the store and assembles the full pipeline.
func buildAgent() (*agent.Agent, *store.SQLiteStore, error) {
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var slotOracle extract.Oracle
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		gc := oracle.DefaultGeminiConfig(cfg.LLM.APIKey)
		if cfg.LLM.Model != "" {
			gc.Model = cfg.LLM.Model
		}
		if cfg.LLM.BaseURL != "" {
			gc.BaseURL = cfg.LLM.BaseURL
		}
		gc.Timeout = cfg.LLM.TimeoutDuration()
		slotOracle = oracle.NewSlotOracle(oracle.NewGeminiClient(gc))
		logger.Info("slot oracle enabled", zap.String("model", gc.Model))
	} else {
		logger.Info("slot oracle disabled, grammar extraction only")
	}

	var st dispatch.Store = s
	return agent.New(st, agent.Options{
		HistoryWindow:   cfg.Conversation.HistoryWindow,
		ConfirmTTLTurns: cfg.Conversation.ConfirmTTLTurns,
		Oracle:          slotOracle,
	}), s, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override database path")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the database and load the bundled masjid and hadith data",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer s.Close()

		masjids, err := s.ListMasjidsByArea(cmd.Context(), "")
		if err != nil {
			return fmt.Errorf("list masjids: %w", err)
		}
		fmt.Printf("database ready at %s (%d masjids)\n", cfg.Store.DatabasePath, len(masjids))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("salaatflow 1.0.0")
	},
}
