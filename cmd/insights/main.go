package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feedback-insights/internal/app"
	"feedback-insights/internal/auth"
	"feedback-insights/internal/config"
	"feedback-insights/internal/feedback"
	"feedback-insights/internal/httpapi"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/prompt"
	"feedback-insights/internal/scheduler"
	"feedback-insights/internal/session"
	"feedback-insights/internal/telegram"
)

var (
	verbose bool
	timeout time.Duration

	mode   string
	month  string
	region string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Customer feedback insights dashboard",
	Long: `insights summarizes customer reviews with an LLM analyst rubric.

Feedback is read once at startup from FEEDBACK_FILE (or GOOGLE_SHEET_ID).
Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		var err error
		cfg, err = config.New()
		if err != nil {
			return err
		}
		logger, err = app.NewLogger(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard, plus the Telegram bot and digest when configured",
	RunE:  runServe,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print the rubric summary for the overall feedback or one slice",
	Args:  cobra.NoArgs,
	RunE:  runSummarize,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a follow-up question about the overall feedback or one slice",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, c := range []*cobra.Command{summarizeCmd, askCmd} {
		c.Flags().StringVar(&mode, "mode", "overall", "overall or slice")
		c.Flags().StringVar(&month, "month", feedback.AllLabel, "slice month as YYYY-MM, or All")
		c.Flags().StringVar(&region, "region", "", "slice region")
		c.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "completion timeout")
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// build loads feedback and fails fast when the source cannot be read.
func build(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		var le *feedback.LoadError
		if errors.As(err, &le) {
			logger.Error("feedback could not be loaded", zap.String("source", le.Source), zap.Error(le.Err))
		}
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = sessions.Close() }()

	var bot *telegram.Bot
	if cfg.TelegramEnabled() {
		bot, err = newBot(a, sessions)
		if err != nil {
			return err
		}
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, bot and digest disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := httpapi.New(a.Service, sessions, a.Recorder, a.Metrics, logger)
	g.Go(func() error { return srv.Run(gctx, cfg.HTTPAddr) })

	if bot != nil {
		g.Go(func() error { return bot.Start(gctx) })

		if cfg.DigestSchedule != "" && cfg.AdminUserID != 0 {
			sched := scheduler.New(cfg.DigestSchedule, logger)
			sched.SetReportFunction(scheduler.NewDigest(a.Service, a.Recorder, bot.NotifyAdmin, nil))
			g.Go(func() error { return sched.Run(gctx) })
		}
	}

	return g.Wait()
}

func newBot(a *app.App, sessions session.Store) (*telegram.Bot, error) {
	var repo auth.Repository
	if cfg.AllowlistFilePath != "" {
		fr, err := auth.NewFileRepository(cfg.AllowlistFilePath)
		if err != nil {
			logger.Warn("allowlist persistence disabled", zap.Error(err))
		} else {
			repo = fr
		}
	}
	authSvc, err := auth.NewService(repo, cfg.AdminUserID, cfg.AllowedUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to init allowlist: %w", err)
	}
	return telegram.New(cfg.TelegramBotToken, telegram.Deps{
		Service:  a.Service,
		Sessions: sessions,
		Auth:     authSvc,
		Recorder: a.Recorder,
		Logger:   logger,
	})
}

func cliRequest() (insights.Request, error) {
	req, err := insights.ParseRequest(mode, month, region)
	if err != nil {
		return insights.Request{}, err
	}
	req.Origin = insights.Origin{Surface: "cli"}
	return req, nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	req, err := cliRequest()
	if err != nil {
		return err
	}
	a, err := build(ctx)
	if err != nil {
		return err
	}
	if req.Mode == prompt.ModeOverall {
		fmt.Fprintln(cmd.OutOrStdout(), a.Service.Overview().PeriodLabel())
	}
	_, res, err := a.Service.HandleGenerate(ctx, session.State{}, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d reviews)\n\n%s\n", req, res.Records, res.Text)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	req, err := cliRequest()
	if err != nil {
		return err
	}
	a, err := build(ctx)
	if err != nil {
		return err
	}
	_, res, err := a.Service.HandleFollowup(ctx, session.State{}, req, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	return nil
}
