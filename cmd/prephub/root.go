package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prephub/prephub-api/internal/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

type app struct {
	server string
	state  string

	db     *sql.DB
	client *client.Client
	in     *bufio.Reader
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "prephub",
		Short:         "PrepHub terminal client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.server, "server", envOr("PREPHUB_SERVER", "http://localhost:5000"), "API base URL")
	cmd.PersistentFlags().StringVar(&a.state, "state", defaultStatePath(), "session database path")

	cmd.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newMeCmd(a),
		newCoursesCmd(a),
		newJobsCmd(a),
	)
	return cmd
}

func (a *app) open(cmd *cobra.Command) error {
	if dir := filepath.Dir(a.state); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	db, err := client.OpenSQLite(cmd.Context(), a.state)
	if err != nil {
		return err
	}
	a.db = db
	a.in = bufio.NewReader(cmd.InOrStdin())

	out := cmd.ErrOrStderr()
	a.client = client.New(a.server, client.NewSQLiteStore(db), client.WithOnUnauthorized(func() {
		fmt.Fprintln(out, "Session expired or invalid. Run `prephub login` to sign in again.")
	}))
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// prompt reads one trimmed line after printing label.
func (a *app) prompt(w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label+": ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo on a terminal and falls back to a plain line
// when input is piped.
func (a *app) password(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return a.prompt(cmd.OutOrStdout(), "Password")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "prephub-session.db"
	}
	return filepath.Join(dir, "prephub", "session.db")
}
