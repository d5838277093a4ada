package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storefront-labs/orderpulse/internal/backend"
	"github.com/storefront-labs/orderpulse/internal/config"
	"github.com/storefront-labs/orderpulse/internal/eventbus"
	"github.com/storefront-labs/orderpulse/internal/history"
	"github.com/storefront-labs/orderpulse/internal/logger"
	"github.com/storefront-labs/orderpulse/internal/notify"
	"github.com/storefront-labs/orderpulse/internal/session"
	"github.com/storefront-labs/orderpulse/internal/ui"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Browse the notification inbox",
	Long:  "Fetch the current notifications from the backend and print them grouped by tab, with filters and one-shot actions.",
	RunE:  runInbox,
}

func init() {
	inboxCmd.Flags().String("category", "all", "Tab to show: all, orders, returns, payments")
	inboxCmd.Flags().Bool("unread", false, "Show unread notifications only")
	inboxCmd.Flags().String("show", "", "Open one notification by id (marks it read)")
	inboxCmd.Flags().String("read", "", "Mark one notification read by id")
	inboxCmd.Flags().Bool("read-all", false, "Mark all notifications read")
	inboxCmd.Flags().Bool("clear", false, "Clear all notifications")
	inboxCmd.Flags().Int("history", 0, "List the last N archived notifications instead of fetching from the backend")
}

func runInbox(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.NewWithSession(cfg.LogDir(), cfg.SlogLevel(), cfg.AdminID)
	if err != nil {
		return err
	}

	// The archive works offline and needs no session.
	if limit, _ := cmd.Flags().GetInt("history"); limit > 0 {
		return printHistory(cmd, cfg, limit)
	}

	sess, err := session.New(cfg.AdminToken, cfg.AdminID)
	if err != nil {
		return fmt.Errorf("set ORDERPULSE_ADMIN_TOKEN to your admin API token: %w", err)
	}

	client := backend.New(cfg.BackendURL, sess)
	bus := eventbus.New(log)
	defer bus.Close()

	// Close waits for in-flight backend confirmations before exit.
	store := notify.NewStore(client, bus, log, nil)
	defer store.Close()

	if err := store.LoadSnapshot(cmd.Context()); err != nil {
		return err
	}

	center := ui.NewCenter(store)
	tab, _ := cmd.Flags().GetString("category")
	center.SetTab(ui.ParseTab(tab))
	unreadOnly, _ := cmd.Flags().GetBool("unread")
	center.SetUnreadOnly(unreadOnly)

	if id, _ := cmd.Flags().GetString("show"); id != "" {
		detail, ok := center.Open(id)
		if !ok {
			return fmt.Errorf("no notification with id %q", id)
		}
		fmt.Println(detail)
		return nil
	}

	if id, _ := cmd.Flags().GetString("read"); id != "" {
		store.MarkRead(id)
		return nil
	}

	if readAll, _ := cmd.Flags().GetBool("read-all"); readAll {
		center.MarkAllRead()
		return nil
	}

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		store.ClearAll()
		return nil
	}

	fmt.Println(center.Render())
	return nil
}

func printHistory(cmd *cobra.Command, cfg *config.AppConfig, limit int) error {
	db, err := history.NewDB(cfg.ArchiveFile())
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := history.New(db, nil).Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No archived notifications.")
		return nil
	}
	for _, n := range list {
		fmt.Println(ui.Row(n))
	}
	return nil
}
