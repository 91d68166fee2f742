package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/billfold/billfold/internal/localstore"
	"github.com/billfold/billfold/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage authentication with the sync server.`,
}

var (
	loginProvider string
	loginIDToken  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the sync server",
	Long: `Sign in with email and password, or with an external identity
provider by passing --provider and the id token it issued:

  billfold auth login --provider google --id-token <token>`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and purge cached session data",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account on the sync server",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

var resetCmd = &cobra.Command{
	Use:   "reset-password [email]",
	Short: "Request a password reset",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Complete a password reset with a recovery token",
	RunE:  runRecover,
}

var setSessionCmd = &cobra.Command{
	Use:   "set-session [token] [refresh-token]",
	Short: "Adopt a session token pair issued elsewhere",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetSession,
}

func init() {
	loginCmd.Flags().StringVar(&loginProvider, "provider", "", "External identity provider (e.g. google)")
	loginCmd.Flags().StringVar(&loginIDToken, "id-token", "", "OIDC id token issued by the provider")

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(resetCmd)
	authCmd.AddCommand(recoverCmd)
	authCmd.AddCommand(setSessionCmd)
}

func promptLine(label string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}

func promptPassword(label string) string {
	fmt.Print(label)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if loginProvider != "" {
		if loginIDToken == "" {
			return fmt.Errorf("--id-token is required with --provider")
		}

		fmt.Printf("🔄 Signing in via %s...\n", loginProvider)
		if err := client.SignInWithProvider(loginProvider, loginIDToken); err != nil {
			return err
		}

		fmt.Println("✅ Signed in successfully!")
		return nil
	}

	email := promptLine("Email: ")
	password := promptPassword("Password: ")

	fmt.Println("🔄 Signing in...")
	if err := client.SignIn(email, password); err != nil {
		return err
	}

	fmt.Println("✅ Signed in successfully!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if !client.IsSignedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	store, err := localstore.OpenDefault()
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	defer store.Close()

	fmt.Println("🔄 Signing out...")
	mgr := session.NewManager(client, store)
	if err := mgr.SignOut(context.Background()); err != nil {
		return err
	}

	fmt.Println("✅ Signed out, local session data purged.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	email := promptLine("Email: ")
	password := promptPassword("Password: ")
	confirm := promptPassword("Confirm Password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("🔄 Creating account...")
	if err := client.SignUp(email, password); err != nil {
		return err
	}

	fmt.Println("✅ Account created and signed in!")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	sess := client.CurrentSession()
	if sess == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("Signed in as %s\n", sess.Email)
	fmt.Printf("User ID: %s\n", sess.UserID)
	fmt.Printf("Session expires: %s\n", sess.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	fmt.Println("🔄 Requesting password reset...")
	if err := client.SendPasswordReset(args[0]); err != nil {
		return err
	}

	fmt.Println("📬 If the account exists, reset instructions have been sent.")
	fmt.Println("   Complete the reset with 'billfold auth recover'.")
	return nil
}

func runRecover(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	token := promptLine("Recovery token: ")
	password := promptPassword("New password: ")
	confirm := promptPassword("Confirm password: ")

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("🔄 Resetting password...")
	if err := client.ConfirmPasswordReset(token, password); err != nil {
		return err
	}

	fmt.Println("✅ Password updated and signed in!")
	return nil
}

func runSetSession(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	fmt.Println("🔄 Verifying session tokens...")
	if err := client.SetSession(args[0], args[1]); err != nil {
		return err
	}

	sess := client.CurrentSession()
	fmt.Printf("✅ Signed in as %s\n", sess.Email)
	return nil
}
