package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lloydmeta/gol-rs/internal/life"
	"github.com/lloydmeta/gol-rs/internal/protocol"
)

type EngineConfig interface {
	GridWidth() uint
	GridHeight() uint
	UpdatesPerSecond() uint
}

// Engine runs the simulation on a fixed cadence and publishes each completed
// generation. The grid is the unit of mutual exclusion: Advance and every
// read-out happen under the same mutex, so listeners only ever observe whole
// generations.
type Engine interface {
	Output() <-chan []byte
	Playing() bool
	Speed() uint32
	Generation() uint64
	Snapshot() *protocol.Frame
	Start()
	SubmitMessage(b []byte) error
}

type state = uint32

const (
	paused state = iota
	playing
)

type engine struct {
	ctx          context.Context
	grid         *life.Grid
	generation   atomic.Uint64
	speed        atomic.Uint32 // ms per generation
	speedChanged atomic.Bool
	state        atomic.Uint32
	mutex        sync.Mutex
	frame        *protocol.Frame
	outputChan   chan []byte
	encodeBuffer []byte
}

// NewEngine builds the engine from config, optionally restoring a previously
// saved snapshot. An undecodable snapshot is logged and replaced by a fresh
// random grid rather than failing startup.
func NewEngine(cfg EngineConfig, snapshot []byte, ctx context.Context) Engine {
	w, h := cfg.GridWidth(), cfg.GridHeight()
	e := &engine{
		ctx:        ctx,
		grid:       life.New(int(w), int(h)),
		frame:      protocol.NewFrame(uint16(w), uint16(h)),
		outputChan: make(chan []byte, 2),
	}
	// period = 1000ms / updates per second, floored at the ticker's minimum
	e.speed.Store(max(1, 1000/uint32(cfg.UpdatesPerSecond())))

	if len(snapshot) > 0 {
		if err := e.restoreSnapshot(snapshot); err != nil {
			log.Printf("error restoring snapshot: %s", err)
		}
	}

	e.generateOutput()

	return e
}

func (e *engine) Output() <-chan []byte {
	return e.outputChan
}

func (e *engine) Playing() bool {
	return e.state.Load() == playing
}

func (e *engine) Speed() uint32 {
	return e.speed.Load()
}

func (e *engine) Generation() uint64 {
	return e.generation.Load()
}

// Snapshot copies out the current generation under the grid mutex.
func (e *engine) Snapshot() *protocol.Frame {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	f := protocol.NewFrame(uint16(e.grid.Width()), uint16(e.grid.Height()))
	for k := range e.grid.AliveCells() {
		f.SetAlive(k)
	}
	f.Playing = e.state.Load() == playing
	f.Speed = uint16(e.speed.Load())
	f.Generation = e.generation.Load()
	return f
}

// Start runs the update loop until the engine's context is cancelled. Each
// tick advances the grid by exactly one generation; ticks are totally ordered
// because the grid mutex is held for the whole advance, including the final
// buffer swap.
func (e *engine) Start() {
	ticker := time.NewTicker(e.speedAsDuration())
	defer func() {
		ticker.Stop()
		close(e.outputChan)
	}()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if e.state.Load() == playing {
				e.calcNextGen()
				e.generateOutput()
			}
			if e.speedChanged.Load() {
				ticker.Reset(e.speedAsDuration())
				e.speedChanged.Store(false)
			}
		}
	}
}

func (e *engine) SubmitMessage(b []byte) error {
	msg, err := protocol.DecodeClientMessage(b)
	if err != nil {
		return fmt.Errorf("decode error: %w", err)
	}

	switch t := msg.(type) {
	case *protocol.Command:
		err = e.handleCommand(t)
	case *protocol.SetSpeed:
		err = e.handleSetSpeed(t)
	}

	if err != nil {
		return fmt.Errorf("handle command error: %w", err)
	}

	e.generateOutput()

	return nil
}

func (e *engine) calcNextGen() {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.grid.Advance()
	e.generation.Add(1)
}

func (e *engine) generateOutput() {
	e.mutex.Lock()
	for i := range e.frame.Cells {
		e.frame.Cells[i] = 0
	}
	for k := range e.grid.AliveCells() {
		e.frame.SetAlive(k)
	}
	e.frame.Playing = e.state.Load() == playing
	e.frame.Speed = uint16(e.speed.Load())
	e.frame.Generation = e.generation.Load()

	encodeSize := e.frame.EncodeSize()
	if cap(e.encodeBuffer) < encodeSize {
		e.encodeBuffer = make([]byte, encodeSize)
	}
	e.encodeBuffer = e.encodeBuffer[:encodeSize]
	e.frame.Encode(e.encodeBuffer)
	out := append([]byte(nil), e.encodeBuffer...)
	e.mutex.Unlock()

	select {
	case e.outputChan <- out:
	default:
		log.Println("output listener too slow, dropping frame")
	}
}

func (e *engine) handleCommand(c *protocol.Command) error {
	switch c.Cmd {
	case protocol.Clear:
		e.mutex.Lock()
		e.grid.Clear()
		e.generation.Store(0)
		e.mutex.Unlock()
	case protocol.Next:
		if e.state.Load() == playing {
			return errors.New("cannot execute next command while playing")
		}
		e.calcNextGen()
	case protocol.Pause:
		if e.state.Load() == paused {
			return errors.New("already paused")
		}
		e.state.Store(paused)
	case protocol.Play:
		if e.state.Load() == playing {
			return errors.New("already playing")
		}
		e.state.Store(playing)
	case protocol.Randomise:
		e.mutex.Lock()
		e.grid.Randomise()
		e.generation.Store(0)
		e.mutex.Unlock()
	}

	return nil
}

func (e *engine) handleSetSpeed(sp *protocol.SetSpeed) error {
	new := uint32(sp.Speed)
	if new == 0 {
		return errors.New("speed must be positive")
	}
	old := e.speed.Swap(new)
	if new == old {
		return errors.New("speed has not changed")
	}
	e.speedChanged.Store(true)

	return nil
}

func (e *engine) restoreSnapshot(snapshot []byte) error {
	f := &protocol.Frame{}
	err := f.Decode(snapshot)
	if err != nil {
		return err
	}

	statuses := make([]life.Status, int(f.Width)*int(f.Height))
	for k := range statuses {
		if f.AliveAt(k) {
			statuses[k] = life.Alive
		}
	}
	grid, err := life.FromStatuses(int(f.Width), int(f.Height), statuses)
	if err != nil {
		return err
	}

	e.grid = grid
	e.frame = protocol.NewFrame(f.Width, f.Height)
	if f.Playing {
		e.state.Store(playing)
	} else {
		e.state.Store(paused)
	}
	if f.Speed > 0 {
		e.speed.Store(uint32(f.Speed))
	}
	e.generation.Store(f.Generation)
	return nil
}

func (e *engine) speedAsDuration() time.Duration {
	return time.Duration(e.speed.Load()) * time.Millisecond
}
