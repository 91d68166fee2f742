package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/billfold/billfold/internal/backend"
	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/profile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the account profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile",
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	RunE:  runProfileSet,
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().String("name", "", "Display name")
	profileSetCmd.Flags().String("phone", "", "Phone number")
	profileSetCmd.Flags().String("avatar", "", "Avatar image to upload")
}

func loadProfile(ctx context.Context) (*profile.Cache, *backend.Client, *localstore.Store, error) {
	client, err := newClient()
	if err != nil {
		return nil, nil, nil, err
	}
	if !client.IsSignedIn() {
		return nil, nil, nil, fmt.Errorf("not signed in, run 'billfold auth login' first")
	}

	store, err := localstore.OpenDefault()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	cache := profile.NewCache(client, store)
	sess := client.CurrentSession()
	if err := cache.Load(ctx, client.UserID(), sess.Email); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return cache, client, store, nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cache, _, store, err := loadProfile(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	p := cache.Profile()
	if p == nil {
		fmt.Println("No profile loaded.")
		return nil
	}

	fmt.Printf("Name:   %s\n", p.Name)
	fmt.Printf("Email:  %s\n", p.Email)
	if p.Phone != "" {
		fmt.Printf("Phone:  %s\n", p.Phone)
	}
	if p.AvatarURL != "" {
		fmt.Printf("Avatar: %s\n", p.AvatarURL)
	}
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cache, client, store, err := loadProfile(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	p := cache.Profile()
	if p == nil {
		return fmt.Errorf("no profile loaded")
	}
	updated := *p

	if v, _ := cmd.Flags().GetString("name"); cmd.Flags().Changed("name") {
		updated.Name = v
	}
	if v, _ := cmd.Flags().GetString("phone"); cmd.Flags().Changed("phone") {
		updated.Phone = v
	}
	if avatarPath, _ := cmd.Flags().GetString("avatar"); avatarPath != "" {
		f, err := os.Open(avatarPath)
		if err != nil {
			return fmt.Errorf("failed to open avatar: %w", err)
		}
		defer f.Close()

		fmt.Println("🔄 Uploading avatar...")
		url, err := client.Upload(backend.BucketAvatars, filepath.Base(avatarPath), f)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		updated.AvatarURL = url
	}

	if err := cache.Update(ctx, updated); err != nil {
		return err
	}

	fmt.Println("✅ Profile updated")
	return nil
}
