package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/orderpulse/internal/backend"
	"github.com/storefront-labs/orderpulse/internal/config"
	"github.com/storefront-labs/orderpulse/internal/eventbus"
	"github.com/storefront-labs/orderpulse/internal/forward"
	"github.com/storefront-labs/orderpulse/internal/history"
	"github.com/storefront-labs/orderpulse/internal/logger"
	"github.com/storefront-labs/orderpulse/internal/metrics"
	"github.com/storefront-labs/orderpulse/internal/notify"
	"github.com/storefront-labs/orderpulse/internal/server"
	"github.com/storefront-labs/orderpulse/internal/session"
	"github.com/storefront-labs/orderpulse/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live notifications to the terminal",
	Long:  "Connect to the backend push channel and print notifications as they arrive, with a status line and a local /state endpoint.",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Int("port", 0, "Local status server port (overrides PORT env var)")
	watchCmd.Flags().Bool("no-alerts", false, "Disable desktop notifications and sounds")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if noAlerts, _ := cmd.Flags().GetBool("no-alerts"); noAlerts {
		cfg.DesktopAlerts = false
	}

	log, err := logger.NewWithSession(cfg.LogDir(), cfg.SlogLevel(), cfg.AdminID)
	if err != nil {
		return err
	}

	sess, err := session.New(cfg.AdminToken, cfg.AdminID)
	if err != nil {
		return fmt.Errorf("set ORDERPULSE_ADMIN_TOKEN to your admin API token: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := backend.New(cfg.BackendURL, sess)
	bus := eventbus.New(log)
	m := metrics.New()
	store := notify.NewStore(client, bus, log, m)

	opts := []notify.TransportOption{notify.WithTransportMetrics(m)}
	if cfg.DesktopAlerts {
		opts = append(opts, notify.WithAlerter(notify.NewDesktopAlerter(log)))
	}
	transport := notify.NewTransport(cfg.PushURL, sess, log, opts...)
	transport.OnEvent(store.IngestPushEvent)

	forwarder := forward.NewHandler(func() (*forward.Settings, error) {
		return forward.LoadSettings(cfg.ForwardingFile())
	}, log)
	transport.OnEvent(forwarder.Handle)

	db, err := history.NewDB(cfg.ArchiveFile())
	if err != nil {
		log.Warn("notification archive unavailable", "error", err)
	} else {
		defer db.Close()
		transport.OnEvent(history.New(db, log).RecordEvent)
	}

	transport.OnStatus(store.SetConnection)

	if err := store.LoadSnapshot(ctx); err != nil {
		log.Warn("initial snapshot failed, starting empty", "error", err)
	}

	srv := server.New(store, m, cfg.Port, log)
	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error("status server stopped", "error", err)
		}
	}()

	bell := ui.NewBell(store, 0)
	unsubscribe := bus.Subscribe(func(ev eventbus.Event) {
		switch ev.Type {
		case eventbus.TypeReceived:
			if n, ok := store.Notification(ev.Payload["id"]); ok {
				fmt.Println(ui.Row(n))
			}
		case eventbus.TypeConnection:
			fmt.Println(bell.StatusLine())
		}
	})
	defer unsubscribe()

	fmt.Println(bell.StatusLine())
	fmt.Fprintf(os.Stderr, "status server on http://127.0.0.1:%d (/health /state /metrics)\n", cfg.Port)

	transport.Start(ctx)

	<-ctx.Done()
	transport.Close()
	store.Close()
	bus.Close()
	return nil
}
