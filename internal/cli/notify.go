package cli

import (
	"context"
	"fmt"

	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/notify"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:     "notify",
	Aliases: []string{"notifications"},
	Short:   "Manage the notification feed",
}

var notifyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent notifications",
	RunE:  runNotifyList,
}

var notifyReadCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Mark one notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotifyRead,
}

var notifyReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE:  runNotifyReadAll,
}

var notifyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notification, read or not",
	RunE:  runNotifyClear,
}

var notifyDNDCmd = &cobra.Command{
	Use:   "dnd [on|off]",
	Short: "Toggle do-not-disturb for pop-up alerts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNotifyDND,
}

func init() {
	notifyCmd.AddCommand(notifyListCmd)
	notifyCmd.AddCommand(notifyReadCmd)
	notifyCmd.AddCommand(notifyReadAllCmd)
	notifyCmd.AddCommand(notifyClearCmd)
	notifyCmd.AddCommand(notifyDNDCmd)
}

func loadCenter(ctx context.Context) (*notify.Center, *localstore.Store, error) {
	client, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	if !client.IsSignedIn() {
		return nil, nil, fmt.Errorf("not signed in, run 'billfold auth login' first")
	}

	store, err := localstore.OpenDefault()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	center := notify.NewCenter(ctx, client, store)
	if err := center.Refresh(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return center, store, nil
}

func runNotifyList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	center, store, err := loadCenter(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	items := center.Items()
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	for _, n := range items {
		dot := "●"
		if n.Read {
			dot = "○"
		}
		fmt.Printf("%s %-30s %-10s %s  %s\n",
			dot, clip(n.Title, 30), n.Type, n.CreatedAt.Format("2006-01-02 15:04"), n.ID)
		if n.Message != "" {
			fmt.Printf("  %s\n", n.Message)
		}
	}
	fmt.Printf("\n%d notification(s), %d unread\n", len(items), center.Unread())
	return nil
}

func runNotifyRead(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	center, store, err := loadCenter(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	center.MarkRead(ctx, args[0])
	fmt.Println("✅ Marked as read")
	return nil
}

func runNotifyReadAll(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	center, store, err := loadCenter(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	center.MarkAllRead(ctx)
	fmt.Println("✅ All notifications marked read")
	return nil
}

func runNotifyClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	center, store, err := loadCenter(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	center.ClearAll(ctx)
	fmt.Println("✅ Notifications cleared")
	return nil
}

func runNotifyDND(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	center, store, err := loadCenter(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	on := !center.DoNotDisturb()
	if len(args) == 1 {
		on = args[0] == "on"
	}

	center.SetDoNotDisturb(ctx, on)
	if on {
		fmt.Println("🔕 Do not disturb on (badge counts still update)")
	} else {
		fmt.Println("🔔 Do not disturb off")
	}
	return nil
}
