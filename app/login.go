package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/auth"
	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/config"
)

// ErrUsernameRequired is returned by login without --username.
var ErrUsernameRequired = errors.New("--username is required")

var (
	username string

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the identity provider and store the session",
		Long:  "Authenticate with username and password. The password is prompted for without echo on a terminal, or read from the first line of piped stdin.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				return ErrUsernameRequired
			}

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			provider, err := auth.NewProvider(cmd.Context(), auth.Config{
				IssuerURL:    cfg.Auth.IssuerURL,
				TokenURL:     cfg.Auth.TokenURL,
				ClientID:     cfg.Auth.ClientID,
				ClientSecret: cfg.Auth.ClientSecret,
				Scopes:       cfg.Auth.Scopes,
			})
			if err != nil {
				return err
			}

			s, err := provider.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			path, err := sessionPath(&cfg)
			if err != nil {
				return err
			}

			if err := auth.SaveSession(path, s); err != nil {
				return err
			}

			log.Info().Str("user", s.Username).Int64("expires", s.ExpiresAt).Msg("logged in")

			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := sessionPath(&cfg)
			if err != nil {
				return err
			}

			return auth.DestroySession(path)
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := config.DumpConfig(&cfg)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}
)

func init() { //nolint:gochecknoinits
	loginCmd.Flags().StringVarP(&username, "username", "u", "", "user name")

	rootCmd.AddCommand(loginCmd, logoutCmd, configCmd)
}

type fdReader interface {
	io.Reader
	Fd() uintptr
}

// readPassword prompts on out and reads the password from in: without echo when in is a terminal, as the
// first line otherwise.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Password: ")

	if f, ok := in.(fdReader); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(out)

		if err != nil {
			return "", errors.Wrap(err, "read password")
		}

		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "read password")
	}

	return strings.TrimRight(line, "\r\n"), nil
}
