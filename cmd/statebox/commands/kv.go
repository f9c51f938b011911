package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"statebox/internal/domain"
)

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <json>",
		Short: "Encrypt and store a JSON value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("value is not valid JSON")
			}
			w, err := appWire()
			if err != nil {
				return err
			}
			return w.Store.Save(cmd.Context(), domain.Key(args[0]), json.RawMessage(args[1]))
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Decrypt and print a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			var raw json.RawMessage
			found, err := w.Store.Restore(cmd.Context(), domain.Key(args[0]), &raw)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: not found", args[0])
			}
			var out bytes.Buffer
			if err := json.Indent(&out, raw, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			return w.Store.Delete(cmd.Context(), domain.Key(args[0]))
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			keys, err := w.Store.ListKeys(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Report whether a value is stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			ok, err := w.Store.Exists(cmd.Context(), domain.Key(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
}
