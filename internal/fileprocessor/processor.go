// Package fileprocessor handles processing of the ROM file given on the command line.
package fileprocessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/chip8vm/internal/pipeline"
	"github.com/retroenv/retrogolib/log"
)

// ProcessFile runs or disassembles a single ROM file, output is written to stdout.
func ProcessFile(ctx context.Context, logger *log.Logger, opts options.Program) error {
	return processFile(ctx, logger, opts, os.Stdout)
}

func processFile(ctx context.Context, logger *log.Logger, opts options.Program, writer io.Writer) error {
	p := pipeline.New(logger)
	if err := p.Execute(ctx, opts, writer); err != nil {
		return fmt.Errorf("processing %s: %w", opts.Input, err)
	}
	return nil
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts options.Program, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("chip8vm", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
