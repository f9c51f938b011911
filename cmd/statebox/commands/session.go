package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"statebox/internal/domain"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage chat sessions",
	}
	cmd.AddCommand(sessionNewCmd(), sessionSayCmd(), sessionListCmd(), sessionShowCmd(), sessionRmCmd())
	return cmd
}

func sessionNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create an empty session and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			s, err := w.Sessions.Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.ID)
			return nil
		},
	}
}

func sessionSayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "say <id> <sender> <content>",
		Short: "Append a message to a session",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			_, err = w.Sessions.Append(cmd.Context(), domain.SessionID(args[0]), args[1], args[2])
			return err
		},
	}
}

func sessionListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently modified first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			var sessions []domain.ChatSession
			if limit > 0 {
				sessions, err = w.Sessions.Recent(cmd.Context(), limit)
			} else {
				sessions, err = w.Sessions.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODIFIED\tMESSAGES\tTITLE")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.LastModified.Local().Format(time.DateTime), len(s.Messages), s.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n sessions")
	return cmd
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			s, found, err := w.Sessions.Get(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("session %s not found", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", s.Title, s.ID)
			for _, m := range s.Messages {
				fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Local().Format(time.DateTime), m.Sender, m.Content)
			}
			return nil
		},
	}
}

func sessionRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := appWire()
			if err != nil {
				return err
			}
			return w.Sessions.Remove(cmd.Context(), domain.SessionID(args[0]))
		},
	}
}
