package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/leafkit/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

// Execute runs the command line with args. Command results go to outW and
// logs to errW.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the leafkit command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "leafkit",
		Short: "A string function catalog and a push notification client.",
		Long: `leafkit hosts the myconcat scalar function behind an expression evaluator
and runs a push client that receives messages from a socket.io gateway and
keeps the installation's registration token current on the app server.

Settings can also come from a config file (--config) or LEAFKIT_* environment
variables, e.g. LEAFKIT_LOG_LEVEL=debug or LEAFKIT_GATEWAY_URL=wss://...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindConfig(cmd, v)
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a config file (yaml, json, toml or hcl).")
	pf.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.String("manifest-path", "", "Path to a .hcl function manifest file or directory. Empty disables the parity check.")
	pf.Int("workers", 0, "Number of concurrent expression workers. 0 uses all CPUs.")
	pf.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")

	root.AddCommand(
		newFunctionsCommand(v, errW),
		newEvalCommand(v, errW),
		newListenCommand(v, errW),
		newRegisterTokenCommand(v, errW),
		newVersionCommand(),
	)
	return root
}

// exactArgs is cobra.ExactArgs with usage errors mapped to exit code 2.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// newApp builds the App from the resolved configuration.
func newApp(v *viper.Viper, logW io.Writer) (*app.App, error) {
	cfg, err := configFromViper(v)
	if err != nil {
		return nil, usageError(err)
	}
	return app.New(logW, cfg), nil
}

func newFunctionsCommand(v *viper.Viper, logW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the registered scalar functions.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("output")
			if format != "text" && format != "json" {
				return usageError(fmt.Errorf("invalid output: must be 'text' or 'json'"))
			}
			a, err := newApp(v, logW)
			if err != nil {
				return err
			}
			return a.ListFunctions(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format. Options: 'text' or 'json'.")
	return cmd
}

func newEvalCommand(v *viper.Viper, logW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval EXPRESSION",
		Short: "Evaluate an expression once per input row.",
		Long: `Evaluate an HCL expression against the function catalog. Each row of
newline-delimited JSON objects read from --rows is bound to the variable
'row'; one JSON result is printed per row.

  echo '{"a":"foo","b":"bar"}' | leafkit eval 'myconcat(row.a, row.b)' --rows -`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(v, logW)
			if err != nil {
				return err
			}

			var in io.Reader
			rowsPath, _ := cmd.Flags().GetString("rows")
			switch rowsPath {
			case "":
			case "-":
				in = cmd.InOrStdin()
			default:
				f, err := os.Open(rowsPath)
				if err != nil {
					return fmt.Errorf("failed to open rows file: %w", err)
				}
				defer f.Close()
				in = f
			}
			return a.Eval(cmd.Context(), args[0], in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("rows", "", "File of newline-delimited JSON rows, or '-' for stdin.")
	return cmd
}

func newListenCommand(v *viper.Viper, logW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive push messages and keep the registration token current.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v, logW)
			if err != nil {
				return err
			}
			return a.Listen(cmd.Context())
		},
	}
	addPushFlags(cmd)
	cmd.Flags().String("resync-schedule", "@every 12h", "Cron schedule for re-registering the token. Empty disables it.")
	return cmd
}

func newRegisterTokenCommand(v *viper.Viper, logW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register-token",
		Short: "Fetch the registration token once and forward it to the app server.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(v, logW)
			if err != nil {
				return err
			}
			res, err := a.RegisterToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered installation %s after %d attempt(s)\n", a.InstallationID(), res.Attempts)
			return nil
		},
	}
	addPushFlags(cmd)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "leafkit %s\n", app.Version)
		},
	}
}
