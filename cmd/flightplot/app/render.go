package app

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/stratolink/flightcore/internal/flightlog"
)

const (
	// Border sizes in pixels
	topBorder    = 40
	leftBorder   = 80
	bottomBorder = 110
	rightBorder  = 40

	minPlotWidth = 900
	maxPlotWidth = 3600
	plotHeight   = 400

	// Full scale of the voltage axis in millivolts. Slightly above the
	// supercap overvoltage lockout so the charged trace stays inside
	// the frame.
	fullScaleMv = 5500
)

// Tier band backgrounds, dim enough for the traces to stay readable.
var tierColors = map[string]color.RGBA{
	"full":      {0, 72, 24, 255},
	"reduced":   {80, 72, 0, 255},
	"no-gps":    {96, 48, 0, 255},
	"emergency": {96, 8, 8, 255},
}

var (
	backgroundColor = color.RGBA{12, 12, 16, 255}
	storedColor     = color.RGBA{96, 192, 255, 255}
	solarColor      = color.RGBA{255, 176, 48, 255}
	droppedColor    = color.RGBA{255, 64, 64, 255}
	descentColor    = color.RGBA{255, 255, 255, 255}
)

// Chart lays out one flight session on a time/voltage plane.
type Chart struct {
	Beacons []flightlog.BeaconRecord
	Start   time.Time
	End     time.Time

	plotWidth int
}

// NewChart sizes a chart for the session. Width scales with the number
// of beacons within sensible bounds.
func NewChart(beacons []flightlog.BeaconRecord) *Chart {
	width := len(beacons) * 3
	if width < minPlotWidth {
		width = minPlotWidth
	}
	if width > maxPlotWidth {
		width = maxPlotWidth
	}

	return &Chart{
		Beacons:   beacons,
		Start:     beacons[0].Timestamp,
		End:       beacons[len(beacons)-1].Timestamp,
		plotWidth: width,
	}
}

// PlotRect returns the plot area inside the borders.
func (c *Chart) PlotRect() image.Rectangle {
	return image.Rect(leftBorder, topBorder, leftBorder+c.plotWidth, topBorder+plotHeight)
}

// TimeToX maps a timestamp to an image column.
func (c *Chart) TimeToX(t time.Time) int {
	span := c.End.Sub(c.Start)
	if span <= 0 {
		return leftBorder
	}

	frac := float64(t.Sub(c.Start)) / float64(span)
	return leftBorder + int(frac*float64(c.plotWidth-1))
}

// MvToY maps a rail voltage to an image row.
func (c *Chart) MvToY(mv int64) int {
	if mv < 0 {
		mv = 0
	}
	if mv > fullScaleMv {
		mv = fullScaleMv
	}

	frac := float64(mv) / fullScaleMv
	return topBorder + plotHeight - 1 - int(frac*float64(plotHeight-1))
}

// Render draws the tier bands, both rail traces, drop markers and the
// descent boundary into a fresh image.
func (c *Chart) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, leftBorder+c.plotWidth+rightBorder, topBorder+plotHeight+bottomBorder))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	plot := c.PlotRect()

	// Tier bands: each pixel column takes the tier of the nearest
	// beacon at or before it.
	bi := 0
	for x := plot.Min.X; x < plot.Max.X; x++ {
		for bi+1 < len(c.Beacons) && c.TimeToX(c.Beacons[bi+1].Timestamp) <= x {
			bi++
		}

		band, ok := tierColors[c.Beacons[bi].Tier]
		if !ok {
			continue
		}
		for y := plot.Min.Y; y < plot.Max.Y; y++ {
			img.SetRGBA(x, y, band)
		}
	}

	// Descent boundary: a vertical line where the mode first flips.
	for _, b := range c.Beacons {
		if b.Mode != "descent" {
			continue
		}
		x := c.TimeToX(b.Timestamp)
		for y := plot.Min.Y; y < plot.Max.Y; y += 3 {
			img.SetRGBA(x, y, descentColor)
		}
		break
	}

	// Rail traces.
	c.drawTrace(img, func(b flightlog.BeaconRecord) int64 { return b.StoredMv }, storedColor)
	c.drawTrace(img, func(b flightlog.BeaconRecord) int64 { return b.SolarMv }, solarColor)

	// Dropped beacons as ticks along the bottom edge.
	for _, b := range c.Beacons {
		if b.Delivered {
			continue
		}
		x := c.TimeToX(b.Timestamp)
		for y := plot.Max.Y - 8; y < plot.Max.Y; y++ {
			img.SetRGBA(x, y, droppedColor)
		}
	}

	return img
}

func (c *Chart) drawTrace(img *image.RGBA, value func(flightlog.BeaconRecord) int64, col color.RGBA) {
	prevX, prevY := -1, -1
	for _, b := range c.Beacons {
		x := c.TimeToX(b.Timestamp)
		y := c.MvToY(value(b))

		if prevX >= 0 {
			drawLine(img, prevX, prevY, x, y, col)
		}
		prevX, prevY = x, y
	}
}

// drawLine is a minimal Bresenham segment; the traces are nearly
// horizontal so no anti-aliasing is needed.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)

	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}

		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
