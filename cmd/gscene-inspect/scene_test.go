package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gogpu/gscene/css"
	"github.com/gogpu/gscene/mesh"
)

func testConfig(count int) sceneConfig {
	return sceneConfig{width: 320, height: 240, count: count, maxInstances: 1024, lineWidth: css.Px(2)}
}

// TestDemoScene tests the stroke pattern of the demo scene.
func TestDemoScene(t *testing.T) {
	objects, err := demoScene(testConfig(24))
	if err != nil {
		t.Fatalf("demoScene: %v", err)
	}
	if len(objects) != 24 {
		t.Fatalf("got %d objects, want 24", len(objects))
	}
	for i, o := range objects {
		if err := o.Validate(); err != nil {
			t.Errorf("object %d: %v", i, err)
		}
		stroked := !o.Style.Stroke.None
		if stroked != (i%3 == 2) {
			t.Errorf("object %d stroked = %v", i, stroked)
		}
		if stroked && o.Style.LineWidth != 2 {
			t.Errorf("object %d line width = %v, want 2", i, o.Style.LineWidth)
		}
	}
	if objects[2].Kind != mesh.Rect || objects[0].Kind != mesh.Circle || objects[1].Kind != mesh.Ellipse {
		t.Error("unexpected shape kinds")
	}
}

// TestDemoSceneLineWidth tests percentage stroke widths.
func TestDemoSceneLineWidth(t *testing.T) {
	cfg := testConfig(3)
	cfg.lineWidth = css.Percent(25)
	objects, err := demoScene(cfg)
	if err != nil {
		t.Fatalf("demoScene: %v", err)
	}
	if got := objects[2].Style.LineWidth; got != 12 {
		t.Errorf("line width = %v, want 12", got)
	}

	cfg.lineWidth = css.Deg(10)
	if _, err := demoScene(cfg); err == nil {
		t.Error("expected error for an angle line width")
	}
}

// TestCapture tests a captured frame of the demo scene.
func TestCapture(t *testing.T) {
	snap, err := capture(context.Background(), testConfig(24), 2)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.frames != 2 {
		t.Errorf("frames = %d, want 2", snap.frames)
	}

	// objects 14 and 20 have a translucent or dashed stroke
	var instances, strokeMeshes int
	for _, m := range snap.meshes {
		instances += m.instances
		if m.strokeOnly {
			strokeMeshes++
		}
	}
	if instances != 26 {
		t.Errorf("instances = %d, want 26", instances)
	}
	if strokeMeshes != 2 {
		t.Errorf("stroke meshes = %d, want 2", strokeMeshes)
	}
	if got := snap.draws(); got != len(snap.meshes) {
		t.Errorf("draws = %d, want one per mesh (%d)", got, len(snap.meshes))
	}
	if !strings.Contains(snap.plan, "overlay") || !strings.Contains(snap.plan, "main") {
		t.Errorf("plan = %q", snap.plan)
	}
	if snap.cache.Programs != 2 {
		t.Errorf("programs = %d, want 2", snap.cache.Programs)
	}
	if snap.excluded != nil {
		t.Errorf("excluded = %v", snap.excluded)
	}
}

// TestReport tests the plain-text report.
func TestReport(t *testing.T) {
	snap, err := capture(context.Background(), testConfig(6), 1)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	var buf bytes.Buffer
	report(&buf, snap)
	out := buf.String()
	for _, want := range []string{"meshes", "commands", "cache", "DrawIndexed", "hit rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q", want)
		}
	}
}
