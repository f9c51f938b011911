package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"statebox/internal/domain"
)

func windowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Save or show the window frame",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <x> <y> <width> <height>",
			Short: "Save the window frame",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				var v [4]float64
				for i, a := range args {
					f, err := strconv.ParseFloat(a, 64)
					if err != nil {
						return fmt.Errorf("argument %d: %w", i+1, err)
					}
					v[i] = f
				}
				w, err := appWire()
				if err != nil {
					return err
				}
				return w.Window.Save(cmd.Context(), domain.WindowFrame{X: v[0], Y: v[1], Width: v[2], Height: v[3]})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved window frame (or the default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				w, err := appWire()
				if err != nil {
					return err
				}
				f := w.Window.Load(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "x=%g y=%g width=%g height=%g\n", f.X, f.Y, f.Width, f.Height)
				return nil
			},
		},
	)
	return cmd
}
