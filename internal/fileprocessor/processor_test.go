package fileprocessor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.ch8")
	assert.NoError(t, os.WriteFile(path, []byte{0x12, 0x00}, 0o600)) // JP $200

	opts := options.Program{
		Parameters: options.Parameters{Input: path},
		Flags:      options.Flags{Cycles: 1, Hz: 60, Frames: 2, Headless: true},
	}

	var buf bytes.Buffer
	assert.NoError(t, processFile(context.Background(), log.NewTestLogger(t), opts, &buf))
	assert.Contains(t, buf.String(), "; 0 frames rendered")
}

func TestProcessFile_ErrorContainsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ch8")
	opts := options.Program{
		Parameters: options.Parameters{Input: path},
		Flags:      options.Flags{Cycles: 1, Hz: 60, Frames: 2, Headless: true},
	}

	err := processFile(context.Background(), log.NewTestLogger(t), opts, &bytes.Buffer{})
	assert.ErrorContains(t, err, "processing "+path)
}

func TestPrintBanner(t *testing.T) {
	logger := log.NewTestLogger(t)

	PrintBanner(logger, options.Program{}, "1.0.0", "0123456789abcdef", "2024-01-01")
	PrintBanner(logger, options.Program{Flags: options.Flags{Quiet: true}}, "dev", "", "")
}
