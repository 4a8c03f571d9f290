package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vovakirdan/stairwalk/internal/core"
	"github.com/vovakirdan/stairwalk/internal/sim"
)

// FrameWriter rasterizes the screen renderer every tick and writes the
// frame as a text file numbered by frame index.
type FrameWriter struct {
	r      *ScreenRenderer
	dir    string
	screen *core.Screen
	vp     core.Viewport
	index  int
}

// NewFrameWriter creates dir if needed.
func NewFrameWriter(r *ScreenRenderer, dir string, width, height int, vp core.Viewport) (*FrameWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}
	return &FrameWriter{r: r, dir: dir, screen: core.NewScreen(width, height), vp: vp}, nil
}

func (w *FrameWriter) Tick(tc *sim.TickContext) error {
	w.r.Draw(w.screen, w.vp)
	w.screen.DrawBox(core.NewRect(0, 0, w.screen.Width(), w.screen.Height()), core.ColorGray)
	w.screen.DrawText(2, 0, fmt.Sprintf(" %05d t=%.2fs ", w.index, tc.Time.Seconds()), core.ColorWhite)
	name := filepath.Join(w.dir, fmt.Sprintf("%05d.txt", w.index))
	if err := os.WriteFile(name, []byte(w.screen.String()+"\n"), 0o644); err != nil {
		return err
	}
	w.index++
	return nil
}

// Frames returns the number of frames written.
func (w *FrameWriter) Frames() int {
	return w.index
}

func frames(env Env) (sim.Process, error) {
	sr, ok := env.Renderer.(*ScreenRenderer)
	if !ok {
		return nil, errors.New("frames need a screen renderer")
	}
	if env.FramesDir == "" {
		return nil, errors.New("frames directory not set")
	}
	width, height := env.FrameWidth, env.FrameHeight
	if width <= 0 || height <= 0 {
		cfg := core.DefaultConfig()
		width, height = cfg.ScreenW, cfg.ScreenH
	}
	env.logger().Info("writing frames", "dir", env.FramesDir, "width", width, "height", height)
	return NewFrameWriter(sr, env.FramesDir, width, height, StaircaseViewport(width, height))
}
