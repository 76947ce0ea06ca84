package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lloydmeta/gol-rs/internal/tui"
)

func main() {
	apiHost := flag.String("api", "localhost:8080", "host:port of the gol API server")
	flag.Parse()

	if len(os.Getenv("DEBUG")) > 0 {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		defer f.Close()
	}
	p := tea.NewProgram(tui.NewUI(*apiHost), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("Error running terminal UI: %v", err)
		os.Exit(1)
	}
}
