package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"statebox/internal/app"
	"statebox/internal/crypto"
)

func keygenCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the state key and seal it with a passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cfg.KeyFilePath()
			if err != nil {
				return err
			}
			fp, err := app.GenerateKeyFile(path, cfg.Passphrase, crypto.DefaultKDFParams(), force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key created at %s\nFingerprint: %s\n", path, fp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing key file")
	return cmd
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Inspect the state key",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "fingerprint",
			Short: "Print the key fingerprint",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				box, err := app.LoadBox(cfg)
				if err != nil {
					return err
				}
				defer box.Destroy()
				fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", box.Fingerprint())
				return nil
			},
		},
		&cobra.Command{
			Use:   "export",
			Short: "Print the raw key as base64 (usable as STATEBOX_KEY)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				box, err := app.LoadBox(cfg)
				if err != nil {
					return err
				}
				defer box.Destroy()
				key := box.ExportKey()
				defer crypto.Wipe(key)
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: anyone holding this key can read all stored state")
				fmt.Fprintln(cmd.OutOrStdout(), crypto.EncodeKey(key))
				return nil
			},
		},
	)
	return cmd
}
