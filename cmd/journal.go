package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidgrab/internal/journal"
	"vidgrab/internal/media"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent acquisition attempts",
	RunE:  journalRun,
}

var journalClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all journaled attempts",
	RunE:  journalClearRun,
}

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "Maximum entries to show")
	journalCmd.AddCommand(journalClearCmd)
}

func openJournal() (*journal.Journal, error) {
	path, err := cfg.ResolveJournalPath()
	if err != nil {
		return nil, err
	}
	return journal.Open(path)
}

func journalRun(cmd *cobra.Command, args []string) error {
	jnl, err := openJournal()
	if err != nil {
		return err
	}
	defer jnl.Close()

	entries, err := jnl.Recent(journalLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Journal is empty.")
		return nil
	}

	for _, e := range entries {
		status := "failed"
		if e.Attempt.Succeeded {
			status = "ok"
		}
		fmt.Printf("%s  %-6s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), status, e.Attempt.IdentityKey)
		for _, m := range e.Attempt.Methods {
			line := fmt.Sprintf("    %-16s %s", m.Method, m.Outcome)
			if m.Outcome != media.OutcomeSucceeded && m.Reason != "" {
				line += ": " + m.Reason
			}
			fmt.Println(line)
		}
		if e.Attempt.FinalError != "" {
			fmt.Printf("    %s\n", e.Attempt.FinalError)
		}
	}
	return nil
}

func journalClearRun(cmd *cobra.Command, args []string) error {
	jnl, err := openJournal()
	if err != nil {
		return err
	}
	defer jnl.Close()
	if err := jnl.Clear(); err != nil {
		return err
	}
	fmt.Println("Journal cleared.")
	return nil
}
