// Package cli handles command line interface logic
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retroenv/chip8vm/internal/options"
	retrocli "github.com/retroenv/retrogolib/cli"
)

// ParseFlags parses command line flags and returns the program options.
func ParseFlags() (options.Program, error) {
	return parseArgs(filepath.Base(os.Args[0]), os.Args[1:])
}

func parseArgs(name string, arguments []string) (options.Program, error) {
	flags := retrocli.NewFlagSet(name)
	var opts options.Program
	flags.AddSection("Input", &opts.Parameters)
	flags.AddSection("Options", &opts.Flags)
	flags.AddPositional(&opts.Parameters)

	args, err := flags.Parse(arguments)
	if err != nil {
		// the flag set prints the usage itself on parse errors and -h
		usageErr := &UsageError{flags: flags, printed: true}
		if !errors.Is(err, retrocli.ErrHelpRequested) {
			usageErr.msg = err.Error()
		}
		return opts, usageErr
	}

	if opts.Input == "" {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(flags, args); err != nil {
		return opts, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags   *retrocli.FlagSet
	msg     string
	printed bool
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the error message and the usage, unless the flag set
// already printed them while parsing.
func (e *UsageError) ShowUsage() {
	if e.printed {
		return
	}
	if e.msg != "" {
		fmt.Printf("%s\n\n", e.msg)
	}
	e.flags.ShowUsage()
}

// validateArgs checks that no arguments follow the ROM file
func validateArgs(flags *retrocli.FlagSet, remaining []string) error {
	for _, arg := range remaining {
		if arg != "" && arg[0] == '-' {
			return &UsageError{
				flags: flags,
				msg:   fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions validates option values and applies dependent defaults
func normalizeOptions(opts *options.Program) error {
	if opts.Cycles <= 0 {
		return fmt.Errorf("invalid cycles per frame %d: must be positive", opts.Cycles)
	}
	if opts.Hz <= 0 {
		return fmt.Errorf("invalid frame rate %d: must be positive", opts.Hz)
	}
	if opts.Frames < 0 {
		return fmt.Errorf("invalid frame limit %d: must not be negative", opts.Frames)
	}

	if opts.Headless && opts.Frames == 0 {
		opts.Frames = options.DefaultHeadlessFrames
	}
	if opts.Trace {
		opts.Debug = true
	}
	return nil
}
