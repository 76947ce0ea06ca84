package life

// Status is the life state of a single cell.
type Status uint8

const (
	Dead Status = iota
	Alive
)

func (s Status) String() string {
	if s == Alive {
		return "Alive"
	}
	return "Dead"
}

// Cell wraps a Status. The whole simulation rule lives in NextStatus;
// a Cell itself is just storage.
type Cell struct {
	status Status
}

func NewCell(status Status) Cell {
	return Cell{status: status}
}

func (c Cell) Status() Status {
	return c.status
}

func (c Cell) Alive() bool {
	return c.status == Alive
}

// NextStatus applies the Game of Life transition rule
// (https://en.wikipedia.org/wiki/Conway%27s_Game_of_Life#Rules):
// a cell with exactly 3 live neighbours is alive in the next generation,
// a live cell with exactly 2 live neighbours stays alive, everything else dies.
func NextStatus(current Status, liveNeighbours int) Status {
	switch {
	case liveNeighbours == 3:
		return Alive
	case current == Alive && liveNeighbours == 2:
		return Alive
	default:
		return Dead
	}
}
