package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smallgiants/internal/domain"
	"github.com/kailas-cloud/smallgiants/internal/domain/match"
	"github.com/kailas-cloud/smallgiants/internal/domain/query"
	"github.com/kailas-cloud/smallgiants/internal/domain/record"
	"github.com/kailas-cloud/smallgiants/internal/domain/result"
	logpkg "github.com/kailas-cloud/smallgiants/internal/logger"
	"github.com/kailas-cloud/smallgiants/internal/transport/work24"
	aggregateuc "github.com/kailas-cloud/smallgiants/internal/usecase/aggregate"
	"github.com/kailas-cloud/smallgiants/internal/usecase/fetch"
	"github.com/kailas-cloud/smallgiants/internal/version"
)

// Exit codes.
const (
	exitOK       = 0
	exitUpstream = 1
	exitUsage    = 2 // bad flags or missing auth key
)

// exitError carries the process exit code out of cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type options struct {
	authKey   string
	company   string
	match     string
	normalize bool
	region    string
	display   int
	maxPages  int
	sleepMs   int
	retries   int
	backoffMs int
	format    string
	output    string
	baseURL   string
	timeout   time.Duration
	verbose   bool
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	def := query.Default()

	cmd := &cobra.Command{
		Use:   "smallgiants-cli",
		Short: "Fetch Work24 small giant companies and filter them by name",
		Long: `Walks every page of the Work24 small giant company listing, optionally
filters by company name and writes the result as JSON or CSV.

Examples:
  smallgiants-cli --company acme
  smallgiants-cli --region 11 --format csv --output seoul.csv
  smallgiants-cli --company "Acme Co" --match exact --normalize`,
		Version:       version.String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd.Context(), opts, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.authKey, "auth-key", "", "Work24 auth key (default $WORK24_AUTH_KEY)")
	f.StringVar(&opts.company, "company", "", "company name keyword to filter by")
	f.StringVar(&opts.match, "match", string(match.Partial), "name matching mode (partial, exact)")
	f.BoolVar(&opts.normalize, "normalize", false, "ignore case, spaces and punctuation when matching")
	f.StringVar(&opts.region, "region", "", "region code")
	f.IntVar(&opts.display, "display", def.Display, "results per page (1-100)")
	f.IntVar(&opts.maxPages, "max-pages", def.MaxPages, "maximum pages to scan (1-5000)")
	f.IntVar(&opts.sleepMs, "sleep-ms", def.SleepMs, "delay between pages in milliseconds")
	f.IntVar(&opts.retries, "retries", def.Retries, "extra attempts per failed page (0-5)")
	f.IntVar(&opts.backoffMs, "backoff-ms", def.BackoffMs, "base retry backoff in milliseconds")
	f.StringVar(&opts.format, "format", string(query.JSON), "output format (json, csv)")
	f.StringVarP(&opts.output, "output", "o", "", "output file path (default stdout)")
	f.StringVar(&opts.baseURL, "base-url", work24.DefaultBaseURL, "upstream endpoint")
	f.DurationVar(&opts.timeout, "timeout", work24.DefaultTimeout, "per-request timeout")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every page request to stderr")
	_ = f.MarkHidden("base-url")

	return cmd
}

func execute(ctx context.Context, opts *options, stdout io.Writer) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}
	mode, err := parseMatch(opts.match)
	if err != nil {
		return err
	}

	authKey := opts.authKey
	if authKey == "" {
		authKey = os.Getenv("WORK24_AUTH_KEY")
	}

	log, err := logpkg.NewCLILogger(opts.verbose)
	if err != nil {
		return &exitError{code: exitUpstream, err: err}
	}
	defer func() { _ = log.Sync() }()
	ctx = logpkg.ContextWithLogger(ctx, log)

	client := work24.NewClient(&work24.Config{
		BaseURL: opts.baseURL,
		AuthKey: authKey,
		Timeout: opts.timeout,
		Logger:  log,
	})
	svc := aggregateuc.New(fetch.New(client), nil, aggregateuc.Credentials{AuthKey: authKey}, log)

	res, err := svc.Run(ctx, query.Shape{
		Region:    opts.region,
		Display:   opts.display,
		MaxPages:  opts.maxPages,
		SleepMs:   opts.sleepMs,
		Retries:   opts.retries,
		BackoffMs: opts.backoffMs,
		Company:   opts.company,
		Match:     mode,
		Normalize: opts.normalize,
		Format:    format,
	})
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return &exitError{code: exitUsage, err: errors.New("missing auth key: set WORK24_AUTH_KEY or pass --auth-key")}
	case errors.Is(err, domain.ErrUpstream):
		return &exitError{code: exitUpstream, err: fmt.Errorf("request failed on %w", err)}
	case err != nil:
		return &exitError{code: exitUpstream, err: err}
	}
	log.Debug("Writing output", zap.Int("count", res.Count), zap.String("format", string(format)))

	if err := writeOutput(res.Items, format, opts.output, stdout); err != nil {
		return &exitError{code: exitUpstream, err: err}
	}
	return nil
}

// parseFormat rejects unknown values instead of falling back like the HTTP API.
func parseFormat(s string) (query.Format, error) {
	switch query.Format(s) {
	case query.JSON, query.CSV:
		return query.Format(s), nil
	}
	return "", &exitError{code: exitUsage, err: fmt.Errorf("invalid --format %q: must be json or csv", s)}
}

func parseMatch(s string) (match.Mode, error) {
	switch match.Mode(s) {
	case match.Partial, match.Exact:
		return match.Mode(s), nil
	}
	return "", &exitError{code: exitUsage, err: fmt.Errorf("invalid --match %q: must be partial or exact", s)}
}

func writeOutput(items []record.Record, format query.Format, path string, stdout io.Writer) (err error) {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		w = f
	}

	if format == query.CSV {
		return result.WriteCSV(w, items)
	}

	if items == nil {
		items = []record.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
