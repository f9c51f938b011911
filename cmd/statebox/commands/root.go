package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statebox/internal/app"
)

var (
	dir        string
	keyFile    string
	passphrase string
	logLevel   string
	logDev     bool

	cfg    *app.Config
	wiring *app.Wire
)

// Execute runs the CLI with os.Args.
func Execute() error {
	err := run(context.Background(), newRootCmd(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

// run executes root with args and releases the wiring even when the command
// failed before PersistentPostRunE.
func run(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if wiring != nil {
		_ = wiring.Close()
		wiring = nil
	}
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "statebox",
		Short:         "Encrypted local state store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			wiring = nil
			c, err := app.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("dir") {
				c.Dir = dir
			}
			if flags.Changed("key-file") {
				c.KeyFile = keyFile
			}
			if flags.Changed("passphrase") {
				c.Passphrase = passphrase
			}
			if flags.Changed("log-level") {
				c.LogLevel = logLevel
			}
			if flags.Changed("log-dev") {
				c.LogDev = logDev
			}
			cfg = c
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wiring == nil {
				return nil
			}
			err := wiring.Close()
			wiring = nil
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&dir, "dir", "", "state directory (default <config dir>/statebox/state)")
	pf.StringVar(&keyFile, "key-file", "", "sealed key file (default <config dir>/statebox/key.json)")
	pf.StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the key file")
	pf.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&logDev, "log-dev", false, "human readable development logs")

	root.AddCommand(
		keygenCmd(), keyCmd(),
		putCmd(), getCmd(), rmCmd(), lsCmd(), existsCmd(),
		sessionCmd(), windowCmd(),
		watchCmd(),
	)
	return root
}

// appWire builds the dependency graph on first use.
func appWire() (*app.Wire, error) {
	if wiring != nil {
		return wiring, nil
	}
	w, err := app.NewWire(cfg)
	if err != nil {
		return nil, err
	}
	if w.Store.Degraded() {
		fmt.Fprintf(os.Stderr, "warning: using temporary state directory %s; data may not survive a reboot\n", w.Store.Dir())
	}
	wiring = w
	return w, nil
}
