package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vidgrab/internal/acquire"
	"vidgrab/internal/capture"
	"vidgrab/internal/converge"
	"vidgrab/internal/download"
	"vidgrab/internal/httputil"
	"vidgrab/internal/journal"
	"vidgrab/internal/media"
	"vidgrab/internal/scan"
	"vidgrab/internal/ui"
)

var grabCmd = &cobra.Command{
	Use:   "grab <address|file> <index|identity>",
	Short: "Acquire one candidate by its listed index or identity key",
	Long: `Grab rescans the page and acquires the candidate at the given 1-based
index (as printed by scan) or with the given identity key, without any
interactive prompt.`,
	Args: cobra.ExactArgs(2),
	RunE: grabOneRun,
}

func grabOneRun(cmd *cobra.Command, args []string) error {
	client := httputil.NewClient()
	candidates, err := discoverConverged(cmd.Context(), client, args[0])
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no video found on this page")
	}

	target, err := findCandidate(candidates, args[1])
	if err != nil {
		return err
	}
	return acquireAll(cmd.Context(), client, []media.Candidate{*target})
}

// findCandidate resolves a 1-based index or an identity key against the
// discovered list.
func findCandidate(candidates []media.Candidate, selector string) (*media.Candidate, error) {
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(candidates) {
			return nil, fmt.Errorf("index %d out of range: page has %d candidates", n, len(candidates))
		}
		return &candidates[n-1], nil
	}
	for i := range candidates {
		if candidates[i].IdentityKey == selector {
			return &candidates[i], nil
		}
	}
	return nil, fmt.Errorf("no candidate with identity %q", selector)
}

// grabRun is the default command: scan, pick, acquire.
func grabRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	address := args[0]
	ctx := cmd.Context()
	client := httputil.NewClient()

	candidates, err := discoverConverged(ctx, client, address)
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

	selected, err := selectCandidates(candidates)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return nil
	}

	return acquireAll(ctx, client, selected)
}

// discoverConverged runs discovery under the convergence controller so
// late-populating pages still yield their candidates.
func discoverConverged(ctx context.Context, client *http.Client, address string) ([]media.Candidate, error) {
	if !isLocalAddress(address) {
		if err := httputil.ValidateURL(address); err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
	}

	var prober scan.Prober
	if cfg.ProbeSizes {
		prober = &scan.HTTPProber{Client: client}
	}
	engine := scan.NewEngine(prober, logger)

	discover := func(ctx context.Context) []media.Candidate {
		snap, err := loadSnapshot(ctx, client, address)
		if err != nil {
			logger.Debug().Err(err).Msg("loading document failed")
			return nil
		}
		return engine.Discover(ctx, snap)
	}

	var observer converge.Observer = converge.NoopObserver{}
	local := isLocalAddress(address)
	if local {
		observer = &converge.FileObserver{Path: localPath(address), Log: logger}
	}

	ctrl := converge.New(discover, observer, converge.RealClock(), convergeConfig(cfg.Timing), logger)
	return ctrl.Run(ctx, local), nil
}

// loadSnapshot parses the document behind address, local or remote.
func loadSnapshot(ctx context.Context, client *http.Client, address string) (*scan.Snapshot, error) {
	if isLocalAddress(address) {
		f, err := os.Open(localPath(address))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", address, err)
		}
		defer f.Close()
		return scan.NewSnapshot(address, f)
	}

	resp, err := httputil.Get(ctx, client, address)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", address, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", address, resp.StatusCode)
	}
	return scan.NewSnapshot(address, resp.Body)
}

// isLocalAddress takes the local branch only for file:// addresses and
// scheme-less arguments naming an existing path. A bare host like
// "example.com/page" falls through to the remote loader, whose validation
// reports the missing scheme.
func isLocalAddress(address string) bool {
	if strings.HasPrefix(address, "file://") {
		return true
	}
	if strings.Contains(address, "://") {
		return false
	}
	_, err := os.Stat(address)
	return err == nil
}

func localPath(address string) string {
	return strings.TrimPrefix(address, "file://")
}

// selectCandidates picks what to acquire: everything with --all, the
// interactive picker on a terminal, and an explicit refusal otherwise.
func selectCandidates(candidates []media.Candidate) ([]media.Candidate, error) {
	if flagAll {
		return candidates, nil
	}
	if !ui.IsInteractive() {
		return nil, fmt.Errorf("not a terminal: use --all to acquire everything or --json to list candidates")
	}
	picked, err := ui.Pick(candidates)
	if err != nil {
		return nil, err
	}
	if picked == nil {
		return nil, nil
	}
	return []media.Candidate{*picked}, nil
}

// acquireAll runs the pipeline over the selection, journaling every
// attempt and showing capture progress as it happens.
func acquireAll(ctx context.Context, client *http.Client, selected []media.Candidate) error {
	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		return err
	}
	mgr, err := download.NewManager(dir, client, logger)
	if err != nil {
		return err
	}

	opts := []acquire.Option{}
	sink := acquire.NewChanSink(64)
	opts = append(opts, acquire.WithSink(sink))
	go printProgress(sink.Progresses)

	if cfg.Capture {
		if capturer, err := capture.NewFFmpegCapturer(logger); err != nil {
			logger.Debug().Err(err).Msg("capture fallback unavailable")
		} else {
			opts = append(opts, acquire.WithCapturer(capturer))
		}
	}

	var jnl *journal.Journal
	if cfg.Journal {
		path, err := cfg.ResolveJournalPath()
		if err != nil {
			return err
		}
		if jnl, err = journal.Open(path); err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer jnl.Close()
	}

	coord := acquire.NewCoordinator(client, mgr, logger, opts...)

	var failures int
	for _, c := range selected {
		res, err := coord.Acquire(ctx, c)
		recordAttempt(jnl, c, res, err)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", c.Title, err)
			continue
		}
		switch res.Action {
		case acquire.ActionOpenedPage:
			fmt.Printf("%s is a %s embed. Watch it at:\n  %s\n", c.Title, c.Platform, res.Address)
		case acquire.ActionRecovered:
			fmt.Printf("Recovered %s (%s)\n", c.Filename, res.Attempt.PayloadType)
		default:
			fmt.Printf("Saved %s\n", c.Filename)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d acquisitions failed", failures, len(selected))
	}
	return nil
}

// recordAttempt journals the acquisition, synthesizing a single-method
// record for paths that never produce one of their own.
func recordAttempt(jnl *journal.Journal, c media.Candidate, res acquire.Result, acqErr error) {
	if jnl == nil {
		return
	}
	att := res.Attempt
	if att.RequestID == "" {
		att = media.Attempt{
			IdentityKey: c.IdentityKey,
			RequestID:   uuid.NewString(),
			Succeeded:   acqErr == nil,
		}
		method := "download"
		if res.Action == acquire.ActionOpenedPage {
			method = "open-page"
		}
		outcome := media.OutcomeSucceeded
		if acqErr != nil {
			outcome = media.OutcomeFailed
			att.FinalError = acqErr.Error()
		}
		att.Methods = []media.MethodResult{{Method: method, Outcome: outcome, Reason: att.FinalError}}
	}
	if err := jnl.Record(att); err != nil {
		logger.Debug().Err(err).Msg("journaling attempt failed")
	}
}

func printProgress(ch <-chan media.Progress) {
	for p := range ch {
		if p.Percent >= 0 {
			fmt.Fprintf(os.Stderr, "capturing %3d%%\r", p.Percent)
		}
	}
}
