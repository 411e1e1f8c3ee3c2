// Package pipeline orchestrates the workflow from ROM file to running machine.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/retroenv/chip8vm/internal/config"
	"github.com/retroenv/chip8vm/internal/detector"
	"github.com/retroenv/chip8vm/internal/disasm"
	"github.com/retroenv/chip8vm/internal/loader"
	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/memory"
	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/chip8vm/internal/runner"
	"github.com/retroenv/chip8vm/internal/terminal"
	"github.com/retroenv/retrogolib/arch"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		detector: detector.New(logger),
		loader:   loader.New(),
	}
}

// Execute loads the ROM file and either writes a disassembly listing or runs
// it. Headless runs and listings are written to the writer.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, writer io.Writer) error {
	system, err := p.detector.Detect(opts)
	if err != nil {
		return fmt.Errorf("detecting system: %w", err)
	}

	program, err := p.loader.Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	p.printInfo(opts, system, len(program))

	if opts.Disasm {
		if err := disasm.Write(writer, program, memory.ProgramStart); err != nil {
			return fmt.Errorf("writing disassembly: %w", err)
		}
		return nil
	}

	emulation := config.CreateEmulationOptions(opts)
	return p.ExecuteWithProgram(ctx, program, emulation, writer)
}

// ExecuteWithProgram runs a program that is already in memory.
// This is useful for testing and programmatic usage.
func (p *Pipeline) ExecuteWithProgram(ctx context.Context, program []byte,
	opts options.Emulation, writer io.Writer) error {

	m := machine.New(p.logger, machineOptions(opts)...)
	if err := m.LoadProgram(program); err != nil {
		return fmt.Errorf("initializing machine: %w", err)
	}

	if opts.Headless {
		return p.runHeadless(ctx, m, opts, writer)
	}
	return p.runTerminal(ctx, m, opts)
}

func machineOptions(opts options.Emulation) []machine.Option {
	machineOpts := []machine.Option{machine.WithTrace(opts.Trace)}
	if opts.Seed != 0 {
		machineOpts = append(machineOpts, machine.WithSeed(opts.Seed))
	}
	return machineOpts
}

// runHeadless runs the machine without terminal and writes the final frame.
func (p *Pipeline) runHeadless(ctx context.Context, m *machine.Machine,
	opts options.Emulation, writer io.Writer) error {

	display := runner.NewTextDisplay(writer)
	r := runner.New(p.logger, m, display, opts)
	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("running emulation: %w", err)
	}
	if err := display.Flush(); err != nil {
		return fmt.Errorf("writing final frame: %w", err)
	}
	return nil
}

// runTerminal runs the machine with terminal output and keyboard input until
// the user quits, the context is cancelled or the frame limit is reached.
func (p *Pipeline) runTerminal(ctx context.Context, m *machine.Machine, opts options.Emulation) error {
	term, err := terminal.New(p.logger, m)
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	defer term.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		term.Poll(ctx, cancel)
	}()

	r := runner.New(p.logger, m, term, opts)
	err = r.Run(ctx)
	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("running emulation: %w", err)
	}
	return nil
}

// printInfo prints information about the ROM being processed.
func (p *Pipeline) printInfo(opts options.Program, system arch.System, size int) {
	if opts.Quiet {
		return
	}

	p.logger.Info("Processing ROM",
		log.Stringer("system", system),
		log.String("file", opts.Input),
		log.Int("size", size),
	)
}
