package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"
	"github.com/lloydmeta/gol-rs/internal/protocol"
	"github.com/lloydmeta/gol-rs/internal/server"
)

type wsMessage struct {
	Data []byte
	Err  error
}

type connectionResult struct {
	Conn       *websocket.Conn
	Connected  bool
	Err        error
	GridWidth  uint
	GridHeight uint
}

type saveGameResult struct {
	Err error
}

func connectToAPI(host string) tea.Cmd {
	return func() tea.Msg {
		globals, err := getGlobals(host)
		if err != nil {
			return connectionResult{Connected: false, Err: fmt.Errorf("could not get grid dimensions: %s", err)}
		}

		u := url.URL{Scheme: "ws", Host: host, Path: "/play"}
		conn, _, err := websocket.Dial(context.Background(), u.String(), nil)
		if err != nil {
			return connectionResult{Connected: false, Err: fmt.Errorf("websocket connection failed: %s", err)}
		}
		conn.SetReadLimit(33554432) // 32MB, enough for million-cell frames

		return connectionResult{
			Conn:       conn,
			Connected:  true,
			GridWidth:  globals.GridWidth,
			GridHeight: globals.GridHeight,
		}
	}
}

func listenForMessages(conn *websocket.Conn) tea.Cmd {
	return func() tea.Msg {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			return wsMessage{Err: err}
		}
		return wsMessage{Data: data}
	}
}

func sendCommand(conn *websocket.Conn, cmd protocol.CommandType) tea.Cmd {
	return func() tea.Msg {
		msg := &protocol.Command{Cmd: cmd}
		err := conn.Write(context.Background(), websocket.MessageBinary, msg.Encode())
		if err != nil {
			log.Printf("Error sending command: %v", err)
		}
		return nil
	}
}

func sendSpeed(conn *websocket.Conn, speed uint16) tea.Cmd {
	return func() tea.Msg {
		msg := &protocol.SetSpeed{Speed: speed}
		err := conn.Write(context.Background(), websocket.MessageBinary, msg.Encode())
		if err != nil {
			log.Printf("Error sending speed: %v", err)
		}
		return nil
	}
}

func saveGame(host string) tea.Cmd {
	return func() tea.Msg {
		u := url.URL{Scheme: "http", Host: host, Path: "/save"}
		resp, err := http.DefaultClient.Post(u.String(), "", nil)
		if err != nil {
			log.Printf("Error saving game: %v", err)
			return saveGameResult{Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("save failed: %s", resp.Status)
			log.Printf("Error saving game: %v", err)
			return saveGameResult{Err: err}
		}
		return saveGameResult{}
	}
}

func getGlobals(host string) (*server.Globals, error) {
	u := url.URL{Scheme: "http", Host: host, Path: "/globals"}
	resp, err := http.DefaultClient.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	d, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	g := &server.Globals{}
	err = json.Unmarshal(d, g)
	if err != nil {
		return nil, err
	}
	return g, nil
}
