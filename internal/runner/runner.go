// Package runner drives a virtual machine: it paces frames, executes the
// configured number of cycles per frame, ticks the timers once per frame and
// hands changed frames to a display.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/machine"
	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// Display presents the output of the machine.
type Display interface {
	// Render is called with every frame that changed since the last call.
	Render(frame display.Frame)
	// Sound is called whenever the tone is switched on or off.
	Sound(active bool)
}

// Runner executes a machine until the context is cancelled or the frame limit
// is reached.
type Runner struct {
	logger  *log.Logger
	machine *machine.Machine
	display Display
	options options.Emulation

	frames int
	sound  bool
}

// New creates a new runner for the given machine.
func New(logger *log.Logger, m *machine.Machine, d Display, opts options.Emulation) *Runner {
	return &Runner{
		logger:  logger,
		machine: m,
		display: d,
		options: opts,
	}
}

// Run executes frames until the context is cancelled or the frame limit is
// reached. Headless runs are not paced and execute as fast as possible.
// A cancelled context is not treated as an error.
func (r *Runner) Run(ctx context.Context) error {
	if r.options.CyclesPerFrame <= 0 {
		return fmt.Errorf("invalid cycles per frame %d", r.options.CyclesPerFrame)
	}
	if !r.options.Headless && r.options.FrameDuration <= 0 {
		return fmt.Errorf("invalid frame duration %s", r.options.FrameDuration)
	}

	r.logger.Debug("Starting emulation",
		log.Int("cycles_per_frame", r.options.CyclesPerFrame),
		log.String("frame_duration", r.options.FrameDuration.String()),
		log.Int("frame_limit", r.options.FrameLimit))
	defer r.logSummary()

	if r.options.Headless {
		return r.runUnpaced(ctx)
	}
	return r.runPaced(ctx)
}

func (r *Runner) runPaced(ctx context.Context) error {
	ticker := time.NewTicker(r.options.FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			if r.step() {
				return nil
			}
		}
	}
}

func (r *Runner) runUnpaced(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.step() {
			return nil
		}
	}
}

// step executes a single frame and returns whether the frame limit has been
// reached.
func (r *Runner) step() bool {
	for range r.options.CyclesPerFrame {
		// faults are logged and counted by the machine, execution continues
		_ = r.machine.StepCycle()
	}
	r.machine.TickTimers()

	if frame, redraw := r.machine.Frame(); redraw {
		r.display.Render(frame)
	}
	if sound := r.machine.SoundActive(); sound != r.sound {
		r.sound = sound
		r.display.Sound(sound)
	}

	r.frames++
	return r.options.FrameLimit > 0 && r.frames >= r.options.FrameLimit
}

func (r *Runner) logSummary() {
	diagnostics := r.machine.Diagnostics()
	r.logger.Info("Emulation stopped",
		log.Int("frames", r.frames),
		log.Int("cycles", int(diagnostics.Cycles)),
		log.Int("stack_overflows", int(diagnostics.StackOverflows)),
		log.Int("stack_underflows", int(diagnostics.StackUnderflows)))
}
