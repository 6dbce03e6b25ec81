package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igaudit/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram session cookies",
	Long: `Manage the Instagram session cookies used by the instagram provider.

Sessions are stored in:
  - the system keychain (when available)
  - an encrypted file with a PBKDF2 derived key
  - IGAUDIT_SESSION_ID / IGAUDIT_CSRF_TOKEN environment variables (read only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store session cookies",
	Long: `Prompt for the sessionid and csrftoken cookies and store them securely.
Values are read without echo when stdin is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var statusCmd = &cobra.Command{
	Use:   "status [account]",
	Short: "Show the stored session with cookies masked",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove a stored session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to find the session cookies",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.WriteCookieGuide(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, statusCmd, logoutCmd, guideCmd)
}

func accountArg(args []string) string {
	if len(args) > 0 {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultAccount
}

func runLogin(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}
	manager, err := auth.NewManager("", nil)
	if err != nil {
		return err
	}

	account := accountArg(args)
	reader := bufio.NewReader(os.Stdin)
	p := newPrinter(os.Stdout)

	auth.WriteCookieGuide(os.Stdout)
	fmt.Println()

	sessionID, err := promptSecret(reader, "sessionid cookie value: ")
	if err != nil {
		return fmt.Errorf("failed to read session ID: %w", err)
	}
	if !looksLikeSessionID(sessionID) {
		p.Warning("That does not look like a sessionid (expected a long value containing %3A); storing it anyway")
	}

	csrfToken, err := promptSecret(reader, "csrftoken cookie value: ")
	if err != nil {
		return fmt.Errorf("failed to read CSRF token: %w", err)
	}
	if !looksLikeCSRFToken(csrfToken) {
		p.Warning("That does not look like a csrftoken (expected about 32 characters); storing it anyway")
	}

	fmt.Print("User agent (Enter for default): ")
	userAgent, _ := reader.ReadString('\n')

	session := &auth.Session{
		Account:   account,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		UserAgent: strings.TrimSpace(userAgent),
	}
	store, err := manager.Save(session)
	if err != nil {
		return err
	}

	p.Success(fmt.Sprintf("Session %q stored in %s", account, store))
	p.Info("Try it", "igaudit check --provider instagram <username>")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}
	manager, err := auth.NewManager("", nil)
	if err != nil {
		return err
	}

	account := accountArg(args)
	session, err := manager.Load(account)
	if err != nil {
		return fmt.Errorf("%w (run 'igaudit auth login')", err)
	}
	masked := session.Masked()

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(masked)
	}

	p := newPrinter(os.Stdout)
	p.Info("Account", masked.Account)
	p.Info("Session ID", masked.SessionID)
	p.Info("CSRF token", masked.CSRFToken)
	if masked.UserAgent != "" {
		p.Info("User agent", masked.UserAgent)
	}
	if !masked.UpdatedAt.IsZero() {
		p.Info("Updated", masked.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(nil); err != nil {
		return err
	}
	manager, err := auth.NewManager("", nil)
	if err != nil {
		return err
	}

	account := accountArg(args)
	if err := manager.Delete(account); err != nil {
		return err
	}
	newPrinter(os.Stdout).Success(fmt.Sprintf("Session %q removed", account))
	return nil
}

// promptSecret reads a value without echo from a terminal, or a plain line
// when stdin is piped
func promptSecret(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func looksLikeSessionID(s string) bool {
	return len(s) >= 20 && strings.Contains(s, "%")
}

func looksLikeCSRFToken(s string) bool {
	return len(s) >= 20 && len(s) <= 64
}
