package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/config"
	"github.com/evcraddock/forum-notes/internal/email"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/logging"
	"github.com/evcraddock/forum-notes/internal/metrics"
	"github.com/evcraddock/forum-notes/internal/note"
	"github.com/evcraddock/forum-notes/internal/notify"
	"github.com/evcraddock/forum-notes/internal/subscription"
	"github.com/evcraddock/forum-notes/internal/user"
	"github.com/evcraddock/forum-notes/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server. Settings come from FN_* environment variables and an optional .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides FN_PORT)")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.DevMode)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := openDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	m, err := metrics.New()
	if err != nil {
		return err
	}

	users := user.NewDirectory(database)
	posts := forum.NewRepository(database)
	authz := auth.NewAuthorizer(database)
	comments := comment.NewRepository(database, loc)
	keys := auth.NewAPIKeyStore(database)

	if !cfg.SMTP.IsConfigured() && !cfg.DevMode {
		slog.Warn("SMTP not configured; note notifications will fail until FN_SMTP_HOST and FN_SMTP_FROM are set")
	}
	dispatcher := notify.NewDispatcher(
		subscription.NewRegistry(database), authz, users, posts,
		email.NewMailer(cfg.SMTP, cfg.DevMode),
		notify.Config{
			BaseURL:     cfg.BaseURL,
			SiteName:    cfg.SiteName,
			Timeout:     cfg.NotifyTimeout,
			Concurrency: cfg.NotifyConcurrency,
		},
		m,
	)

	var notifier note.Notifier = notify.Sync{Notifier: dispatcher}
	if cfg.NotifyWorkers > 0 {
		q := notify.NewQueue(dispatcher, cfg.NotifyWorkers, cfg.NotifyQueue)
		defer q.Close()
		notifier = q
	}

	srv := web.NewServer(web.Options{
		DB:       database,
		Notes:    note.NewService(note.NewStore(comments, posts, authz, users, m), posts, notifier),
		Comments: comments,
		Posts:    posts,
		Users:    users,
		APIKeys:  keys,
		Metrics:  m,
		BaseURL:  cfg.BaseURL,
		SiteName: cfg.SiteName,
	})

	fmt.Printf("Starting forum notes server on http://localhost:%d\n", cfg.Port)
	return srv.ListenAndServe(ctx, cfg.Port)
}
