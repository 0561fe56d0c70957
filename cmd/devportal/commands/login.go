package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the developer portal",
		Long: `Authenticate with a username and password. The tokens returned by the API
are stored in the configuration file, the password is never stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username = loadConfig().Username
			}

			if username == "" {
				value, err := prompt(cmd.ErrOrStderr(), reader, "Username: ")
				if err != nil {
					return err
				}

				username = value
			}

			if username == "" {
				return constants.ErrUsernameRequired
			}

			if password == "" {
				value, err := promptPassword(cmd.ErrOrStderr(), reader)
				if err != nil {
					return err
				}

				password = value
			}

			if password == "" {
				return constants.ErrPasswordRequired
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}

			// Tokens are saved by the config persister.
			_, err = client.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}

			config := loadConfig()
			config.Username = username

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username (email)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, prompted for when omitted")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the developer portal",
		Long:  "Remove the stored tokens from the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.ClearCredentials()

			err := saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func prompt(w io.Writer, reader *bufio.Reader, label string) (string, error) {
	_, _ = fmt.Fprint(w, label)

	value, err := reader.ReadString('\n')
	if err != nil && value == "" {
		if errors.Is(err, io.EOF) {
			return "", nil
		}

		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(value), nil
}

// promptPassword reads without echo from a terminal and falls back to a
// plain line read when stdin is piped.
func promptPassword(w io.Writer, reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int

	if !term.IsTerminal(fd) {
		return prompt(w, reader, "Password: ")
	}

	_, _ = fmt.Fprint(w, "Password: ")

	bytePassword, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(w)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(bytePassword), nil
}
