package render

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/stairwalk/internal/sim"
	"github.com/vovakirdan/stairwalk/internal/support"
	"github.com/vovakirdan/stairwalk/internal/walk"
)

// Env is everything a drawer may read. Drawers run after the core
// processes of the same tick, so all of it is stable while they draw.
type Env struct {
	Renderer   Renderer
	FSM        walk.StateMachine
	Buffer     *walk.PreviewBuffer
	Controller walk.Controller
	Support    *support.Monitor
	Logger     *log.Logger

	// LegLength places support areas below the centre of mass.
	LegLength float64
	// FramesDir is where the frames drawer writes rendered frames.
	FramesDir string
	// FrameWidth and FrameHeight size the frames drawer's screen.
	FrameWidth, FrameHeight int
	// Now is the wall clock used for alarm timing.
	Now func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) renderer() Renderer {
	if e.Renderer != nil {
		return e.Renderer
	}
	return NopRenderer{}
}

func (e Env) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}

// DrawerInfo describes a registered drawer.
type DrawerInfo struct {
	Name        string
	Description string
}

// Factory builds a drawer process from env.
type Factory func(env Env) (sim.Process, error)

var (
	factories    = make(map[string]Factory)
	descriptions = make(map[string]string)
	mu           sync.RWMutex
)

// Register adds a drawer factory. It panics if name is already taken.
func Register(name, description string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("render: drawer %q already registered", name))
	}
	factories[name] = f
	descriptions[name] = description
}

// List returns all registered drawers sorted by name.
func List() []DrawerInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]DrawerInfo, 0, len(factories))
	for name := range factories {
		result = append(result, DrawerInfo{Name: name, Description: descriptions[name]})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Create instantiates the named drawer.
func Create(name string, env Env) (sim.Process, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("render: unknown drawer %q", name)
	}
	p, err := f(env)
	if err != nil {
		return nil, fmt.Errorf("render: create drawer %q: %w", name, err)
	}
	return p, nil
}

// Exists reports whether a drawer is registered under name.
func Exists(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[name]
	return ok
}
