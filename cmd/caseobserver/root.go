package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signsofter/caseobserver-dashboard/internal/app"
	"github.com/signsofter/caseobserver-dashboard/internal/config"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const (
	envPassword    = "CASEOBSERVER_PASSWORD"
	envNewPassword = "CASEOBSERVER_NEW_PASSWORD"
)

var errNotLoggedIn = errors.New("not logged in, run 'caseobserver login' first")

// runtime carries the global flags and the lazily built App of one invocation.
type runtime struct {
	configPath string
	sessionID  string
	apiURL     string
	logLevel   string

	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer

	app *app.App
}

func newRuntime(stdin io.Reader, stdout, stderr io.Writer) *runtime {
	return &runtime{
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
	}
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "caseobserver",
		Short:         "Court case dashboard client",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(rt.stdin)
	root.SetOut(rt.stdout)
	root.SetErr(rt.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&rt.configPath, "config", os.Getenv("CASEOBSERVER_CONFIG"), "path to the YAML config file")
	pf.StringVar(&rt.sessionID, "session", "", "session id; each id keeps its own login")
	pf.StringVar(&rt.apiURL, "api-url", "", "backend base URL")
	pf.StringVar(&rt.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newLoginCmd(rt),
		newRegisterCmd(rt),
		newLogoutCmd(rt),
		newRefreshCmd(rt),
		newWhoamiCmd(rt),
		newProfileCmd(rt),
		newPasswordCmd(rt),
		newCasesCmd(rt),
		newNotificationsCmd(rt),
		newDashboardCmd(rt),
		newVersionCmd(rt),
	)
	return root
}

// run executes one command line and releases the App afterwards.
func run(ctx context.Context, rt *runtime, args []string) error {
	defer rt.close()

	root := newRootCmd(rt)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (rt *runtime) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(rt.configPath)
	if err != nil {
		return nil, err
	}

	overridden := false
	if rt.sessionID != "" {
		cfg.Session.ID = rt.sessionID
		overridden = true
	}
	if rt.apiURL != "" {
		cfg.API.BaseURL = rt.apiURL
		overridden = true
	}
	if rt.logLevel != "" {
		cfg.Log.Level = rt.logLevel
	}
	if overridden {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: validate: %w", err)
		}
	}
	return cfg, nil
}

// open builds the App once per invocation.
func (rt *runtime) open(ctx context.Context) (*app.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}

	cfg, err := rt.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg.Log)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.app = a
	return a, nil
}

// openAuthenticated opens the App for a command that needs a session and
// refreshes an access token that is about to expire.
func (rt *runtime) openAuthenticated(ctx context.Context) (*app.App, error) {
	a, err := rt.open(ctx)
	if err != nil {
		return nil, err
	}
	if !a.Tokens.HasTokens() {
		return nil, errNotLoggedIn
	}
	if err := a.Session.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (rt *runtime) close() {
	if rt.app != nil {
		rt.app.Close()
		rt.app = nil
	}
}

// readSecret reads one line from stdin when fromStdin is set, else the env var.
func (rt *runtime) readSecret(fromStdin bool, env, what string) (string, error) {
	if fromStdin {
		line, err := rt.stdin.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read %s from stdin: %w", what, err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s required: pass --password-stdin or set %s", what, env)
}

func (rt *runtime) printf(format string, args ...any) {
	fmt.Fprintf(rt.stdout, format, args...)
}

// printError writes the user-facing message of err.
func (rt *runtime) printError(err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(rt.stderr, "error: invalid input")
		for _, fe := range verr.Errors {
			fmt.Fprintf(rt.stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
	case errors.Is(err, domain.ErrRefreshFailed), errors.Is(err, domain.ErrUnauthorized):
		fmt.Fprintf(rt.stderr, "error: %s\n", domain.Message(err))
		fmt.Fprintln(rt.stderr, "the session has ended, run 'caseobserver login' again")
	default:
		fmt.Fprintf(rt.stderr, "error: %s\n", domain.Message(err))
	}
}
