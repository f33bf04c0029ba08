// Command gscene-inspect renders a demo scene, by default on the recording
// device, and shows how it was batched: the meshes, the device commands of the last
// frame, the resource cache counters and the render graph plan.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/backend"
	_ "github.com/gogpu/gscene/backend/record"
	_ "github.com/gogpu/gscene/backend/wgpu"
	"github.com/gogpu/gscene/css"
)

func main() {
	var (
		width     = flag.Int("width", 640, "viewport width")
		height    = flag.Int("height", 480, "viewport height")
		count     = flag.Int("count", 24, "number of shapes")
		maxInst   = flag.Int("max-instances", 0, "instances per mesh (0: no limit)")
		frames    = flag.Int("frames", 2, "frames to render before inspecting")
		lineWidth = flag.Float64("line-width", 2, "stroke width in px")
		backendN  = flag.String("backend", backend.BackendRecord, "device backend (record, wgpu)")
		plain     = flag.Bool("plain", false, "print a report instead of starting the TUI")
		verbose   = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Parse()

	if *verbose {
		gscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := sceneConfig{
		width:        uint32(max(*width, 1)),  //nolint:gosec // clamped positive
		height:       uint32(max(*height, 1)), //nolint:gosec // clamped positive
		count:        max(*count, 1),
		maxInstances: *maxInst,
		lineWidth:    css.Px(*lineWidth),
		backend:      *backendN,
	}

	if *plain {
		snap, err := capture(context.Background(), cfg, *frames)
		if err != nil {
			log.Fatalf("capture: %v", err)
		}
		report(os.Stdout, snap)
		return
	}

	if _, err := tea.NewProgram(newModel(cfg, *frames), tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

// report prints every tab of the inspector as plain text.
func report(w io.Writer, s *snapshot) {
	for t := range tabCount {
		fmt.Fprintln(w, titleStyle.Render(tabNames[t]))
		cols, rows := tableFor(s, t)
		for _, c := range cols {
			fmt.Fprintf(w, "%-*s ", c.Width, c.Title)
		}
		fmt.Fprintln(w)
		for _, r := range rows {
			for i, cell := range r {
				fmt.Fprintf(w, "%-*s ", cols[i].Width, cell)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
	if s.excluded != nil {
		fmt.Fprintln(w, errStyle.Render("excluded: "+s.excluded.Error()))
	}
}
