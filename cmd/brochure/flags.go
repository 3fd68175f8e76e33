package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-brochure/internal/config"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds browser capture flags.
type renderFlags struct {
	baseURL    string
	pageFormat string
	timeout    time.Duration
	workers    int
	style      string
	assetPath  string
	noStyle    bool
	script     string
}

// markFlags holds mark image flags.
type markFlags struct {
	path   string
	corner string
}

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	common  commonFlags
	output  string
	force   bool
	render  renderFlags
	mark    markFlags
	bucket  string
	ledger  string
	json    bool
	changed map[string]bool // flags explicitly set on the command line
}

// stampFlags holds flags for the stamp command.
type stampFlags struct {
	common  commonFlags
	mark    markFlags
	changed map[string]bool
}

// statusFlags holds flags for the status command.
type statusFlags struct {
	common commonFlags
	ledger string
	json   bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed progress")
}

func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.baseURL, "base-url", "", "site the addresses resolve against")
	fs.StringVarP(&f.pageFormat, "page-format", "p", "", "page format: a4, letter, legal, continuous")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-page navigation timeout (e.g. 60s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browser sessions (0 = auto)")
	fs.StringVar(&f.style, "style", "", "print stylesheet name or path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom styles directory")
	fs.BoolVar(&f.noStyle, "no-style", false, "disable print stylesheet injection")
	fs.StringVar(&f.script, "script", "", "JavaScript file run on each page before printing")
}

func addMarkFlags(fs *flag.FlagSet, f *markFlags) {
	fs.StringVarP(&f.path, "mark", "m", "", "mark image (PNG or JPEG)")
	fs.StringVar(&f.corner, "corner", "", "mark corner: bottom-right, bottom-left, top-right, top-left")
}

// newCaptureFlagSet registers capture flags into f.
// Shared by parsing and completion so both see the same flags.
func newCaptureFlagSet(f *captureFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "artifact directory")
	fs.BoolVarP(&f.force, "force", "f", false, "re-render artifacts that already exist")
	fs.StringVar(&f.bucket, "bucket", "", "remote bucket name")
	fs.StringVar(&f.ledger, "ledger", "", "outcome history database (SQLite)")
	fs.BoolVar(&f.json, "json", false, "print outcomes as JSON")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addMarkFlags(fs, &f.mark)
	return fs
}

func newStampFlagSet(f *stampFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("stamp", flag.ContinueOnError)
	addCommonFlags(fs, &f.common)
	addMarkFlags(fs, &f.mark)
	return fs
}

func newStatusFlagSet(f *statusFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.StringVar(&f.ledger, "ledger", "", "outcome history database (SQLite)")
	fs.BoolVar(&f.json, "json", false, "print rows as JSON")
	addCommonFlags(fs, &f.common)
	return fs
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	addCommonFlags(fs, &f.common)
	return fs
}

// parseFlagSet parses args and records which flags were explicitly set.
// flag.ErrHelp is returned unwrapped so callers can print usage.
func parseFlagSet(fs *flag.FlagSet, args []string) ([]string, map[string]bool, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	changed := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { changed[f.Name] = true })
	return fs.Args(), changed, nil
}

func parseCaptureFlags(args []string) (*captureFlags, []string, error) {
	f := &captureFlags{}
	positional, changed, err := parseFlagSet(newCaptureFlagSet(f), args)
	if err != nil {
		return nil, nil, err
	}
	f.changed = changed
	if f.common.quiet && f.common.verbose {
		return nil, nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	}
	if len(positional) > 1 {
		return nil, nil, fmt.Errorf("%w: capture takes at most one input list, got %d", ErrUsage, len(positional))
	}
	return f, positional, nil
}

func parseStampFlags(args []string) (*stampFlags, []string, error) {
	f := &stampFlags{}
	positional, changed, err := parseFlagSet(newStampFlagSet(f), args)
	if err != nil {
		return nil, nil, err
	}
	f.changed = changed
	return f, positional, nil
}

func parseStatusFlags(args []string) (*statusFlags, error) {
	f := &statusFlags{}
	positional, _, err := parseFlagSet(newStatusFlagSet(f), args)
	if err != nil {
		return nil, err
	}
	if len(positional) > 0 {
		return nil, fmt.Errorf("%w: status takes no arguments", ErrUsage)
	}
	return f, nil
}

// mergeCaptureFlags applies explicitly set flags over cfg.
// Flags always win over config file and environment.
func mergeCaptureFlags(f *captureFlags, cfg *config.Config) {
	if f.changed["output"] {
		cfg.Output.Dir = f.output
	}
	if f.changed["base-url"] {
		cfg.Render.BaseURL = f.render.baseURL
	}
	if f.changed["page-format"] {
		cfg.Render.PageFormat = f.render.pageFormat
	}
	if f.changed["timeout"] {
		cfg.Render.Timeout = f.render.timeout.String()
	}
	if f.changed["workers"] {
		cfg.Render.Workers = f.render.workers
	}
	if f.changed["style"] {
		cfg.Render.Style = f.render.style
	}
	if f.changed["asset-path"] {
		cfg.Render.AssetPath = f.render.assetPath
	}
	if f.render.noStyle {
		cfg.Render.Style = styleNone
	}
	if f.changed["script"] {
		cfg.Render.Script = f.render.script
	}
	if f.changed["bucket"] {
		cfg.Remote.Bucket = f.bucket
	}
	if f.changed["ledger"] {
		cfg.Ledger.Path = f.ledger
	}
	mergeMarkFlags(&f.mark, f.changed, cfg)
}

func mergeMarkFlags(f *markFlags, changed map[string]bool, cfg *config.Config) {
	if changed["mark"] {
		cfg.Mark.Path = f.path
	}
	if changed["corner"] {
		cfg.Mark.Corner = f.corner
	}
}
