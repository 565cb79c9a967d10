package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	dmsclient "github.com/MrEthical07/dmsclient"
	"github.com/MrEthical07/dmsclient/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	v      *viper.Viper
	logger zerolog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut, logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "dmsctl",
		Short: "Command-line client for the document management backend",
		Long: `dmsctl signs in to the document management backend and keeps the
access token in a local file, so later commands reuse the session.

Settings come from flags, DMSCTL_* environment variables and an optional
dmsctl.yaml config file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	bindFlags(root)

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.canCmd(),
		a.navigateCmd(),
		a.menuCmd(),
		a.refreshCmd(),
		a.filesCmd(),
		a.searchCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := loadViper(cmd)
	if err != nil {
		return err
	}
	a.v = v

	level, err := zerolog.ParseLevel(v.GetString(keyLogLevel))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).
		Level(level).
		With().Timestamp().Str("cmd", cmd.Name()).
		Logger()
	return nil
}

// client builds a client from the layered settings. The caller closes it.
func (a *app) client() (*dmsclient.Client, error) {
	cfg, err := clientConfig(a.v)
	if err != nil {
		return nil, err
	}
	return dmsclient.New().
		WithConfig(cfg).
		WithLogger(a.logger).
		WithNotifier(a).
		Build()
}

// session builds a client and restores the persisted session, failing
// with ErrNotAuthenticated when there is none.
func (a *app) session(ctx context.Context) (*dmsclient.Client, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	ok, err := c.Initialize(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	if !ok {
		c.Close()
		return nil, fmt.Errorf("%w; run dmsctl login", dmsclient.ErrNotAuthenticated)
	}
	return c, nil
}

// Notify logs the user-facing message of a failed request. The error
// itself is returned by the command.
func (a *app) Notify(_ context.Context, err *transport.APIError) {
	a.logger.Info().
		Str("kind", err.Kind.String()).
		Int("status", err.Status).
		Str("request_id", err.RequestID).
		Msg(err.Message)
}

func (a *app) jsonOutput() bool {
	return a.v != nil && a.v.GetBool(keyJSON)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dmsctl %s (%s)\n", version, commit)
		},
	}
}
