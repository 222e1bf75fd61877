package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/stratolink/flightcore/internal/flightlog"
)

// Run renders one logged flight session as a voltage strip chart:
// both power rails over time on a tier-colored background, with
// delivery gaps marked along the bottom edge.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := flightlog.New(config.DBPath)
	defer store.Close()

	beacons, err := store.Beacons(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("reading beacons: %w", err)
	}
	if len(beacons) == 0 {
		return fmt.Errorf("session %d has no beacons", config.SessionID)
	}

	logger.Info("loaded flight session",
		slog.Int64("sessionId", config.SessionID),
		slog.Int("beacons", len(beacons)),
		slog.String("start", beacons[0].Timestamp.Local().Format(time.DateTime)),
		slog.String("end", beacons[len(beacons)-1].Timestamp.Local().Format(time.DateTime)))

	chart := NewChart(beacons)
	img := chart.Render()

	if !config.NoAnnotations {
		annotator, err := NewAnnotator(config.FontPath)
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		if err = annotator.Annotate(img, chart); err != nil {
			return fmt.Errorf("annotating chart: %w", err)
		}
	}

	logger.Info("rendering chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
