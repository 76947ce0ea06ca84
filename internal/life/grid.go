package life

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"runtime"
	"sync"
)

// ParallelThresholdArea is the grid area at which Advance switches from a
// single sequential pass to a fork-join fan-out over all CPUs. Empirically
// chosen; below it the goroutine overhead costs more than it saves.
const ParallelThresholdArea = 250_000

// Grid owns the automaton's entire state for one generation.
//
// Cells are stored flat in row-major order, so coordinate (row, col) lives at
// flat index row*width+col:
//
//	[ (0,0) (0,1) (0,2) ]
//	[ (1,0) (1,1) (1,2) ]
//	[ (2,0) (2,1) (2,2) ]
//
// The toroidal neighbour indices of every cell are computed once at
// construction, which keeps the per-generation hot loop free of wrap-around
// arithmetic and bounds checks.
type Grid struct {
	width  int
	height int

	// cells is the current generation; scratch is written during Advance and
	// the two are swapped once the full pass is done, so no reader ever sees
	// a half-updated generation and no generation allocates.
	cells   []Cell
	scratch []Cell

	// neighbours[k] holds the 8 toroidal neighbour flat indices of cell k,
	// in N, NE, E, SE, S, SW, W, NW order.
	neighbours [][8]int

	// parThreshold is ParallelThresholdArea unless overridden in tests.
	parThreshold int
}

// New creates a width x height grid with every cell independently randomised.
func New(width, height int) *Grid {
	return newGrid(width, height, func() Status {
		if rand.UintN(2) == 1 {
			return Alive
		}
		return Dead
	})
}

// NewSeeded is New with a deterministic source, for reproducible runs.
func NewSeeded(width, height int, seed uint64) *Grid {
	rng := rand.New(rand.NewPCG(seed, 0))
	return newGrid(width, height, func() Status {
		if rng.UintN(2) == 1 {
			return Alive
		}
		return Dead
	})
}

// FromStatuses builds a grid from explicit per-cell statuses in row-major
// order. len(statuses) must equal width*height.
func FromStatuses(width, height int, statuses []Status) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("life: negative dimensions %dx%d", width, height)
	}
	if len(statuses) != width*height {
		return nil, fmt.Errorf("life: %d statuses for a %dx%d grid", len(statuses), width, height)
	}
	i := 0
	return newGrid(width, height, func() Status {
		s := statuses[i]
		i += 1
		return s
	}), nil
}

func newGrid(width, height int, next func() Status) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	area := width * height
	cells := make([]Cell, area)
	for k := range cells {
		cells[k] = Cell{status: next()}
	}
	g := &Grid{
		width:        width,
		height:       height,
		cells:        cells,
		scratch:      make([]Cell, area),
		neighbours:   buildNeighbourIndex(width, height),
		parThreshold: ParallelThresholdArea,
	}
	copy(g.scratch, g.cells)
	return g
}

// buildNeighbourIndex precomputes, for every flat index, the flat indices of
// its 8 toroidal neighbours. Depends only on dimensions, never on content.
func buildNeighbourIndex(width, height int) [][8]int {
	idx := make([][8]int, width*height)
	for i := 0; i < height; i++ {
		up := i - 1
		if i == 0 {
			up = height - 1
		}
		down := i + 1
		if down == height {
			down = 0
		}
		for j := 0; j < width; j++ {
			left := j - 1
			if j == 0 {
				left = width - 1
			}
			right := j + 1
			if right == width {
				right = 0
			}
			idx[i*width+j] = [8]int{
				up*width + j,       // N
				up*width + right,   // NE
				i*width + right,    // E
				down*width + right, // SE
				down*width + j,     // S
				down*width + left,  // SW
				i*width + left,     // W
				up*width + left,    // NW
			}
		}
	}
	return idx
}

func (g *Grid) Width() int {
	return g.width
}

func (g *Grid) Height() int {
	return g.height
}

func (g *Grid) Area() int {
	return len(g.cells)
}

// Cells returns a row-major 2-D view of the current generation. The rows are
// subslices of the flat storage, so no cell values are copied; the view is
// valid until the next Advance.
func (g *Grid) Cells() [][]Cell {
	rows := make([][]Cell, g.height)
	for i := range rows {
		rows[i] = g.cells[i*g.width : (i+1)*g.width]
	}
	return rows
}

// CellAt returns a reference to the cell at the given flat index, or false
// when the index is out of range.
func (g *Grid) CellAt(flatIndex int) (*Cell, bool) {
	if flatIndex < 0 || flatIndex >= len(g.cells) {
		return nil, false
	}
	return &g.cells[flatIndex], true
}

// FlatIndex maps (row, col) to its flat index, or returns false when the
// coordinate is outside the grid.
func (g *Grid) FlatIndex(row, col int) (int, bool) {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return 0, false
	}
	return row*g.width + col, true
}

// AliveCells yields the flat indices of the currently alive cells.
func (g *Grid) AliveCells() iter.Seq[int] {
	return func(yield func(int) bool) {
		for k := range g.cells {
			if g.cells[k].status == Alive && !yield(k) {
				return
			}
		}
	}
}

// Statuses copies out the current generation's statuses in row-major order.
func (g *Grid) Statuses() []Status {
	out := make([]Status, len(g.cells))
	for k, c := range g.cells {
		out[k] = c.status
	}
	return out
}

// Advance moves the grid to its next generation. Every cell's next status is
// computed against the current buffer only and written into the scratch
// buffer, then the two buffers swap roles. Grids at or above parThreshold
// cells fan the pass out over all CPUs; the two paths produce identical
// results, the dispatch is purely a performance decision.
func (g *Grid) Advance() {
	area := len(g.cells)
	if area == 0 {
		return
	}
	if area >= g.parThreshold {
		g.advanceParallel()
	} else {
		g.advanceRange(0, area)
	}
	g.cells, g.scratch = g.scratch, g.cells
}

func (g *Grid) advanceRange(lo, hi int) {
	for k := lo; k < hi; k++ {
		alive := 0
		for _, n := range g.neighbours[k] {
			if g.cells[n].status == Alive {
				alive += 1
			}
		}
		g.scratch[k] = Cell{status: NextStatus(g.cells[k].status, alive)}
	}
}

// advanceParallel is a bounded fork-join over disjoint index ranges. Workers
// only read cells and write disjoint slices of scratch, so no further
// synchronisation is needed.
func (g *Grid) advanceParallel() {
	area := len(g.cells)
	workers := runtime.GOMAXPROCS(0)
	chunk := (area + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < area; lo += chunk {
		hi := min(lo+chunk, area)
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.advanceRange(lo, hi)
		}()
	}
	wg.Wait()
}

// Randomise re-rolls every cell in place.
func (g *Grid) Randomise() {
	for k := range g.cells {
		if rand.UintN(2) == 1 {
			g.cells[k] = Cell{status: Alive}
		} else {
			g.cells[k] = Cell{status: Dead}
		}
	}
}

// Clear kills every cell.
func (g *Grid) Clear() {
	for k := range g.cells {
		g.cells[k] = Cell{}
	}
}
