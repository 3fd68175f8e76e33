package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/fileutil"
	"github.com/alnah/go-brochure/internal/hints"
)

// ErrNoPDFs is returned when stamp finds nothing to stamp.
var ErrNoPDFs = errors.New("no PDF files found")

// runStampCmd applies the mark to existing PDFs in place, without rendering.
// Arguments are files or directories; directories are walked recursively.
// Without arguments every artifact in the configured output directory is
// stamped.
func runStampCmd(args []string, env *Environment) error {
	f, positional, err := parseStampFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printStampUsage(env.Stdout)
			return nil
		}
		return err
	}

	cfg, _, err := loadConfig(f.common.config, env)
	if err != nil {
		return err
	}
	mergeMarkFlags(&f.mark, f.changed, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	placement, err := placementFromConfig(cfg.Mark)
	if err != nil {
		return err
	}
	// One decode up front: a bad mark fails the command, not every file.
	mark, err := brochure.LoadMark(cfg.Mark.Path)
	if err != nil {
		return fmt.Errorf("%w%s", err, hints.ForMarkImage())
	}
	stamper := brochure.NewStamperWithMark(mark, placement)

	roots := positional
	if len(roots) == 0 {
		roots = []string{cfg.Output.Dir}
	}
	files, err := stampTargets(positional, brochure.NewLocalStore(cfg.Output.Dir))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", ErrNoPDFs, roots)
	}

	failed := 0
	for _, path := range files {
		if err := stamper.StampFile(path); err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", path, err)
			failed++
			continue
		}
		if f.common.verbose {
			fmt.Fprintf(env.Stdout, "Stamped %s\n", path)
		}
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "%d stamped, %d failed\n", len(files)-failed, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrEntriesFailed, failed, len(files))
	}
	return nil
}

// stampTargets lists the PDFs named by roots, or the artifacts of store
// when no root is given.
func stampTargets(roots []string, store *brochure.LocalStore) ([]string, error) {
	if len(roots) == 0 {
		keys, err := store.Keys()
		if err != nil {
			return nil, err
		}
		files := make([]string, 0, len(keys))
		for _, key := range keys {
			files = append(files, store.Path(key))
		}
		return files, nil
	}

	var files []string
	for _, root := range roots {
		found, err := fileutil.FindFiles(root, brochure.ArtifactExt)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		files = append(files, found...)
	}
	return files, nil
}
