package app

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
)

const (
	dpi     float64 = 72
	size    float64 = 14
	spacing float64 = 1.1
)

type Annotator struct {
	context *freetype.Context
}

// NewAnnotator loads the TTF font from fontPath and prepares a drawing
// context for chart labels.
func NewAnnotator(fontPath string) (*Annotator, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

func (a *Annotator) Annotate(img *image.RGBA, chart *Chart) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *Chart) error
	}{
		{"drawing time scale", a.drawTimeScale},
		{"drawing voltage scale", a.drawVoltageScale},
		{"drawing info", a.drawInfo},
	}
	for _, op := range ops {
		if err := op.fn(img, chart); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawTimeScale(img *image.RGBA, chart *Chart) error {
	plot := chart.PlotRect()

	count := plot.Dx() / 200
	if count == 0 {
		count = 1
	}
	secsPerLabel := chart.End.Sub(chart.Start) / time.Duration(count)

	for si := 0; si < count; si++ {
		point := chart.Start.Add(time.Duration(si) * secsPerLabel)
		px := chart.TimeToX(point)

		var str string
		if si == 0 {
			str = point.Format(time.DateTime)
		} else {
			str = point.Format("15:04")
		}

		// guideline above the exact instant
		for y := plot.Min.Y - 8; y < plot.Min.Y; y++ {
			img.Set(px, y, image.White)
		}

		pt := freetype.Pt(px+4, plot.Min.Y-10)
		_, _ = a.context.DrawString(str, pt)
	}

	return nil
}

func (a *Annotator) drawVoltageScale(img *image.RGBA, chart *Chart) error {
	plot := chart.PlotRect()

	for mv := int64(0); mv <= fullScaleMv; mv += 1000 {
		py := chart.MvToY(mv)

		// guideline into the left margin
		for x := plot.Min.X - 10; x < plot.Min.X; x++ {
			img.Set(x, py, image.White)
		}

		pt := freetype.Pt(6, py+5)
		_, _ = a.context.DrawString(a.humanVolts(mv), pt)
	}

	return nil
}

func (a *Annotator) drawInfo(img *image.RGBA, chart *Chart) error {
	var delivered, dropped int
	var minMv, maxMv int64 = fullScaleMv, 0
	for _, b := range chart.Beacons {
		if b.Delivered {
			delivered++
		} else {
			dropped++
		}
		if b.StoredMv < minMv {
			minMv = b.StoredMv
		}
		if b.StoredMv > maxMv {
			maxMv = b.StoredMv
		}
	}

	plot := chart.PlotRect()
	top, left := plot.Max.Y+25, plot.Min.X

	strings := []string{
		"Flight start: " + chart.Start.String(),
		"Flight end: " + chart.End.String(),
		fmt.Sprintf("Beacons: %d delivered, %d dropped", delivered, dropped),
		fmt.Sprintf("Stored rail: %s to %s", a.humanVolts(minMv), a.humanVolts(maxMv)),
	}

	pt := freetype.Pt(left, top)
	for _, s := range strings {
		_, _ = a.context.DrawString(s, pt)
		pt.Y += a.context.PointToFixed(size * spacing)
	}

	return nil
}

func (a *Annotator) humanVolts(mv int64) string {
	return humanize.SIWithDigits(float64(mv)/1000, 2, "V")
}
