// Package terminal implements a display and keypad frontend using termbox.
//
// Two framebuffer rows are rendered per terminal cell using half block
// characters, so the 64x32 screen needs 64x16 cells. Terminals do not report
// key releases, a key is released when another key is pressed or after
// HoldDuration without a repeat.
package terminal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/retroenv/chip8vm/internal/display"
	"github.com/retroenv/chip8vm/internal/keypad"
	"github.com/retroenv/retrogolib/log"
)

// HoldDuration is the time a key stays pressed after the last key event.
// It covers the initial key repeat delay of most terminals.
const HoldDuration = 150 * time.Millisecond

const (
	upperHalf = '▀'
	lowerHalf = '▄'
	fullBlock = '█'
)

// Keys receives the key state changes.
type Keys interface {
	SetKey(index int, pressed bool)
}

// Terminal renders frames and translates keyboard input.
type Terminal struct {
	logger *log.Logger
	layout keypad.Layout
	keys   Keys
	now    func() time.Time

	held map[byte]time.Time

	mu       sync.Mutex // guards the output state, Render and Poll run on different goroutines
	sound    bool
	frame    display.Frame
	rendered bool
}

// New initializes the terminal. Close has to be called to restore the
// terminal state.
func New(logger *log.Logger, keys Keys) (*Terminal, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		termbox.Close()
		return nil, fmt.Errorf("clearing terminal: %w", err)
	}

	return newTerminal(logger, keys), nil
}

func newTerminal(logger *log.Logger, keys Keys) *Terminal {
	return &Terminal{
		logger: logger,
		layout: keypad.DefaultLayout,
		keys:   keys,
		now:    time.Now,
		held:   make(map[byte]time.Time),
	}
}

// Close restores the terminal state.
func (t *Terminal) Close() {
	termbox.Close()
}

// Render draws the frame.
func (t *Terminal) Render(frame display.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frame = frame
	t.rendered = true
	t.draw()
}

// Sound shows whether the tone is active in the status line.
func (t *Terminal) Sound(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sound = active
	if t.rendered {
		t.draw()
	}
}

func (t *Terminal) draw() {
	for row := range display.Height / 2 {
		for x := range display.Width {
			ch := cell(t.frame.Pixel(x, 2*row), t.frame.Pixel(x, 2*row+1))
			termbox.SetCell(x, row, ch, termbox.ColorWhite, termbox.ColorDefault)
		}
	}

	status := "ESC quit  1234 QWER ASDF ZXCV keypad   "
	if t.sound {
		status = "ESC quit  1234 QWER ASDF ZXCV keypad  ♪"
	}
	for i, ch := range []rune(status) {
		termbox.SetCell(i, display.Height/2+1, ch, termbox.ColorDefault, termbox.ColorDefault)
	}

	if err := termbox.Flush(); err != nil {
		t.logger.Error("Flushing terminal failed", log.Err(err))
	}
}

// cell returns the character representing two vertically stacked pixels.
func cell(top, bottom bool) rune {
	switch {
	case top && bottom:
		return fullBlock
	case top:
		return upperHalf
	case bottom:
		return lowerHalf
	default:
		return ' '
	}
}

// Poll processes keyboard events until the context is cancelled or the user
// quits, in which case quit is called. It has to be run in its own goroutine.
func (t *Terminal) Poll(ctx context.Context, quit func()) {
	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				close(events)
				return
			}
			events <- ev
		}
	}()
	defer func() {
		// the poller can be blocked on sending an event, keep receiving until
		// it has seen the interrupt
		go termbox.Interrupt()
		for range events { //nolint:revive // drain
		}
	}()

	ticker := time.NewTicker(HoldDuration / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-events:
			if t.handleEvent(ev) {
				quit()
				return
			}

		case <-ticker.C:
			t.releaseExpired()
		}
	}
}

// handleEvent processes a single event and returns whether the user quits.
func (t *Terminal) handleEvent(ev termbox.Event) bool {
	switch ev.Type {
	case termbox.EventKey:
		if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
			return true
		}
		key, ok := t.layout.Key(ev.Ch)
		if !ok {
			return false
		}
		t.press(key)

	case termbox.EventResize:
		t.mu.Lock()
		if t.rendered {
			t.draw()
		}
		t.mu.Unlock()

	case termbox.EventError:
		t.logger.Error("Terminal event error", log.Err(ev.Err))
	}
	return false
}

// press marks a key as pressed and releases all other held keys, terminals
// only repeat the most recent key.
func (t *Terminal) press(key byte) {
	for held := range t.held {
		if held != key {
			t.release(held)
		}
	}
	if _, ok := t.held[key]; !ok {
		t.keys.SetKey(int(key), true)
	}
	t.held[key] = t.now().Add(HoldDuration)
}

func (t *Terminal) release(key byte) {
	delete(t.held, key)
	t.keys.SetKey(int(key), false)
}

func (t *Terminal) releaseExpired() {
	now := t.now()
	for key, deadline := range t.held {
		if now.After(deadline) {
			t.release(key)
		}
	}
}
