package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vidgrab/internal/httputil"
	"vidgrab/internal/media"
)

var scanCmd = &cobra.Command{
	Use:   "scan <address|file>",
	Short: "List video candidates without acquiring anything",
	Args:  cobra.ExactArgs(1),
	RunE:  scanRun,
}

func scanRun(cmd *cobra.Command, args []string) error {
	client := httputil.NewClient()
	candidates, err := discoverConverged(cmd.Context(), client, args[0])
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("No video found on this page.")
		return nil
	}
	if flagJSON {
		return printJSON(os.Stdout, candidates)
	}
	printCandidates(os.Stdout, candidates)
	return nil
}

func printJSON(w io.Writer, candidates []media.Candidate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(candidates); err != nil {
		return fmt.Errorf("encoding candidates: %w", err)
	}
	return nil
}

func printCandidates(w io.Writer, candidates []media.Candidate) {
	for i, c := range candidates {
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, c.Origin, c.Title)
		details := fmt.Sprintf("    %s", c.Extension)
		if c.SizeLabel != "" && c.SizeLabel != media.SizeUnknown {
			details += "  " + c.SizeLabel
		}
		if c.DurationSeconds > 0 {
			details += "  " + media.FormatDuration(c.DurationSeconds)
		}
		fmt.Fprintln(w, details)
		fmt.Fprintf(w, "    %s\n", c.SourceAddress)
	}
}
