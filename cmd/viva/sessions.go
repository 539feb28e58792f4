package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/viva/internal/config"
	"github.com/joss/viva/internal/render"
	"github.com/joss/viva/internal/storage"
)

func sessionsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(config.Load().DataDir)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			sessions, err := store.ListSessions(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			renderer := render.New(pretty && term.IsTerminal(int(os.Stdout.Fd())))
			fmt.Println(renderer.Sessions(sessions))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and all its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(config.Load().DataDir)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			if err := store.DeleteSession(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func reportCmd() *cobra.Command {
	var (
		asMarkdown bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Show or export a session report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(config.Load().DataDir)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			bundle, err := store.GetBundle(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load session %s: %w", args[0], err)
			}

			switch {
			case asJSON:
				data, err := render.BundleJSON(bundle)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case asMarkdown:
				fmt.Println(render.Markdown(bundle))
			default:
				renderer := render.New(pretty && term.IsTerminal(int(os.Stdout.Fd())))
				fmt.Println(renderer.Report(bundle))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Print the markdown report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full bundle as JSON")
	return cmd
}
