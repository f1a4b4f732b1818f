package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hydrai/cli/internal/auth"
)

var (
	authUsername string
	authPassword string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage HydrAI authentication",
	Long: `Manage the access token used to talk to the HydrAI API.

Examples:
  # Interactive login
  hydrai auth

  # Non-interactive login
  hydrai auth login --username USER --password PASS

  # Keep the token in the system keyring
  hydrai auth login --store keyring

  # Check auth status
  hydrai auth status

  # Remove the stored token
  hydrai auth logout`,
	RunE: runAuthLogin,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Long: `Log in to the HydrAI API. Missing credentials are prompted for when run in a terminal.

The access token returned by the backend is saved to the configured store
(--store home|project|keyring) and attached to every following request.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a HydrAI account",
	Args:  cobra.NoArgs,
	RunE:  runAuthRegister,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		token, err := session.store.Get()
		if err != nil {
			return errors.WithMessage(err, "failed to read credentials")
		}

		if token == "" {
			fmt.Fprintln(out, "Not authenticated")
			fmt.Fprintln(out, "Run 'hydrai auth login' to get started.")
			return nil
		}

		fmt.Fprintf(out, "Authenticated (store: %s)\n", session.cfg.Store)
		fmt.Fprintf(out, "  Token: %s\n", auth.MaskToken(token))
		fmt.Fprintf(out, "  API: %s\n", session.cfg.BaseURL)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.store.Clear(); err != nil {
			return errors.WithMessage(err, "failed to remove credentials")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed successfully")
		return nil
	},
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	username, password, err := resolveCredentials(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Logging in...")

	token, err := session.client.Login(cmd.Context(), username, password)
	if err != nil {
		return errors.WithMessage(err, "login failed")
	}

	fmt.Fprintln(out, "Login successful")
	fmt.Fprintf(out, "Token %s saved to %s store\n", auth.MaskToken(token), session.cfg.Store)
	return nil
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	username, password, err := resolveCredentials(cmd)
	if err != nil {
		return err
	}

	result, err := session.client.Register(cmd.Context(), username, password)
	if err != nil {
		return errors.WithMessage(err, "registration failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'hydrai auth login' to sign in.")
	return nil
}

// resolveCredentials takes username and password from flags, prompting for
// whatever is missing when stdin is a terminal.
func resolveCredentials(cmd *cobra.Command) (string, string, error) {
	username, password := strings.TrimSpace(authUsername), authPassword

	if isInteractive(cmd.InOrStdin()) {
		reader := bufio.NewReader(cmd.InOrStdin())
		if username == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Username: ")
			line, _ := reader.ReadString('\n')
			username = strings.TrimSpace(line)
		}
		if password == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			secret, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return "", "", errors.Wrap(err, "failed to read password")
			}
			password = string(secret)
		}
	}

	if username == "" || password == "" {
		return "", "", errors.New("username and password are required")
	}
	return username, password, nil
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func init() {
	for _, c := range []*cobra.Command{authCmd, authLoginCmd, authRegisterCmd} {
		c.Flags().StringVar(&authUsername, "username", "", "Account username")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}

	authCmd.AddCommand(authLoginCmd, authRegisterCmd, authStatusCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}
