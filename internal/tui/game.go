package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/coder/websocket"
	"github.com/lloydmeta/gol-rs/internal/lrucache"
	"github.com/lloydmeta/gol-rs/internal/protocol"
)

// tickMsg is sent every 1/30th second to trigger UI updates. The paint rate
// is independent of the simulation's update cadence: each frame repaints
// whatever complete generation arrived last.
type tickMsg struct{}

const framesPerSecond = 30

// renderedRowCache caches fully styled grid rows keyed by their packed cell
// bits, so unchanged rows (common between generations) cost a map lookup.
var renderedRowCache = lrucache.NewLruCache[string, string](4096)

type gameModel struct {
	apiHost    string
	conn       *websocket.Conn
	connected  bool
	err        error
	saving     bool
	spinner    spinner.Model
	gridWidth  int
	gridHeight int
	frame      *protocol.Frame

	// pendingData holds the latest websocket payload; it is decoded on the
	// next tick so a fast simulation cannot outpace the terminal.
	pendingData []byte

	termWidth  int
	termHeight int
}

// NewUI returns the terminal renderer, a websocket client of the API server.
func NewUI(apiHost string) tea.Model {
	return &gameModel{
		apiHost: apiHost,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
		),
		termWidth:  80,
		termHeight: 24,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/framesPerSecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *gameModel) Init() tea.Cmd {
	return tea.Batch(connectToAPI(m.apiHost), m.spinner.Tick, tick())
}

func (m *gameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectionResult:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.conn = msg.Conn
		m.connected = true
		m.gridWidth = int(msg.GridWidth)
		m.gridHeight = int(msg.GridHeight)
		return m, listenForMessages(m.conn)

	case wsMessage:
		if msg.Err != nil {
			m.connected = false
			m.err = msg.Err
			return m, nil
		}
		m.pendingData = msg.Data
		return m, listenForMessages(m.conn)

	case tickMsg:
		if m.pendingData != nil {
			f := &protocol.Frame{}
			if err := f.Decode(m.pendingData); err == nil {
				m.frame = f
				// The frame's own dimensions are authoritative: a server
				// restored from a snapshot may differ from /globals.
				m.gridWidth = int(f.Width)
				m.gridHeight = int(f.Height)
			}
			m.pendingData = nil
		}
		return m, tick()

	case saveGameResult:
		m.saving = false
		m.err = msg.Err
		return m, nil

	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *gameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.conn != nil {
			_ = m.conn.Close(websocket.StatusNormalClosure, "bye")
		}
		return m, tea.Quit
	}

	if !m.connected || m.frame == nil {
		return m, nil
	}

	switch msg.String() {
	case " ":
		if m.frame.Playing {
			return m, sendCommand(m.conn, protocol.Pause)
		}
		return m, sendCommand(m.conn, protocol.Play)
	case "n":
		return m, sendCommand(m.conn, protocol.Next)
	case "r":
		return m, sendCommand(m.conn, protocol.Randomise)
	case "c":
		return m, sendCommand(m.conn, protocol.Clear)
	case "+", "=":
		if m.frame.Speed > 10 {
			return m, sendSpeed(m.conn, max(10, m.frame.Speed-10))
		}
	case "-", "_":
		if m.frame.Speed < 1000 {
			return m, sendSpeed(m.conn, min(1000, m.frame.Speed+10))
		}
	case "s":
		m.saving = true
		return m, saveGame(m.apiHost)
	}

	return m, nil
}

func (m *gameModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("error: %s", m.err)) + helpStyle.Render("\n\nq: quit")
	}
	if !m.connected || m.frame == nil {
		return fmt.Sprintf("\n %s connecting to %s...", m.spinner.View(), m.apiHost)
	}

	header := lipgloss.JoinHorizontal(
		lipgloss.Center,
		titleStyle.Render("Game of Life"),
		statusStyle.Render(fmt.Sprintf("  %dx%d · gen %d · %d ms/gen · ", m.gridWidth, m.gridHeight, m.frame.Generation, m.frame.Speed)),
		runningStatus(m.frame.Playing),
	)
	if m.saving {
		header += statusStyle.Render("  saving…")
	}

	grid := frameStyle.Render(m.renderGrid())
	help := helpStyle.Render("space: play/pause · n: step · r: randomise · c: clear · +/-: speed · s: save · q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, grid, help)
}

// renderGrid paints the portion of the grid that fits the terminal, two
// characters per cell. Dimensions come from the frame itself, never from the
// /globals handshake: a server restored from a snapshot may be running a
// differently sized grid than its config advertises.
func (m *gameModel) renderGrid() string {
	gridWidth, gridHeight := int(m.frame.Width), int(m.frame.Height)
	rows := min(gridHeight, max(1, m.termHeight-4))
	cols := min(gridWidth, max(1, (m.termWidth-2)/2))

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.renderRow(row, cols, gridWidth))
	}
	return sb.String()
}

func (m *gameModel) renderRow(row, cols, gridWidth int) string {
	// Pack the visible bits of the row into the cache key. The leading column
	// count disambiguates ragged trailing bytes between widths.
	key := make([]byte, (cols+7)/8+1)
	key[0] = byte(cols & 0xff)
	for col := 0; col < cols; col++ {
		if m.frame.AliveAt(row*gridWidth + col) {
			key[1+col>>3] |= 1 << (col & 7)
		}
	}
	k := string(key)

	if s, ok := renderedRowCache.Get(k); ok {
		return s
	}

	var sb strings.Builder
	run := 0
	flush := func(alive bool) {
		if run == 0 {
			return
		}
		if alive {
			sb.WriteString(aliveCellStyle.Render(strings.Repeat("██", run)))
		} else {
			sb.WriteString(strings.Repeat("  ", run))
		}
		run = 0
	}
	prev := false
	for col := 0; col < cols; col++ {
		alive := m.frame.AliveAt(row*gridWidth + col)
		if alive != prev {
			flush(prev)
			prev = alive
		}
		run += 1
	}
	flush(prev)

	s := sb.String()
	renderedRowCache.Add(k, s)
	return s
}
