// Package render draws debug frames of the simulation: quadtree node
// boundaries, agent positions and a small HUD, encoded as PNG for the
// inspection API.
package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"

	"quad-arena/internal/index"
	"quad-arena/internal/sim"
)

// FrameSource provides the state a frame needs. *sim.Engine satisfies it.
type FrameSource interface {
	Snapshot() sim.WorldSnapshot
	WalkIndex(visit func(boundary index.Rect, depth int))
}

// Renderer rasterizes debug frames at a fixed size. The gg context is
// reused across frames; Frame is not safe for concurrent use.
type Renderer struct {
	width  int
	height int
	dc     *gg.Context
}

// New creates a renderer with a canvas matching the world size.
func New(width, height int) *Renderer {
	return &Renderer{
		width:  width,
		height: height,
		dc:     gg.NewContext(width, height),
	}
}

// Frame renders the current state of src and returns the encoded PNG.
func (r *Renderer) Frame(src FrameSource) ([]byte, error) {
	snap := src.Snapshot()
	dc := r.dc

	r.drawBackground(dc)
	r.drawTree(dc, src, snap)
	r.drawAgents(dc, snap)
	r.drawHUD(dc, snap)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render: encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawBackground(dc *gg.Context) {
	dc.SetHexColor("#10141c")
	dc.Clear()
}

// drawTree strokes every active quadtree node boundary, fading with
// depth so dense regions read as brighter nests.
func (r *Renderer) drawTree(dc *gg.Context, src FrameSource, snap sim.WorldSnapshot) {
	sx := float64(r.width) / snap.WorldW
	sy := float64(r.height) / snap.WorldH

	dc.SetLineWidth(1)
	src.WalkIndex(func(b index.Rect, depth int) {
		alpha := 0.12 + 0.10*float64(depth)
		if alpha > 0.6 {
			alpha = 0.6
		}
		dc.SetRGBA(0.35, 0.78, 0.96, alpha)
		dc.DrawRectangle(b.X*sx, b.Y*sy, b.W*sx, b.H*sy)
		dc.Stroke()
	})
}

func (r *Renderer) drawAgents(dc *gg.Context, snap sim.WorldSnapshot) {
	sx := float64(r.width) / snap.WorldW
	sy := float64(r.height) / snap.WorldH

	for _, a := range snap.Agents {
		dc.SetHexColor(a.Color)
		dc.DrawCircle(a.X*sx, a.Y*sy, a.Radius)
		dc.Fill()

		// Crowded agents get a warning ring
		if a.Neighbors >= 3 {
			dc.SetRGBA(1, 0.45, 0.25, 0.8)
			dc.DrawCircle(a.X*sx, a.Y*sy, a.Radius+3)
			dc.Stroke()
		}
	}
}

func (r *Renderer) drawHUD(dc *gg.Context, snap sim.WorldSnapshot) {
	dc.SetRGBA(1, 1, 1, 0.85)
	hud := fmt.Sprintf("tick %d | agents %d | nodes %d | depth %d",
		snap.Tick, snap.AgentCount, snap.Index.Tree.Nodes, snap.Index.Tree.MaxDepth)
	dc.DrawStringAnchored(hud, 10, 14, 0, 0.5)
}
