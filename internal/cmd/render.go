package cmd

import (
	"fmt"
	"os"

	"github.com/inkforge/brushengine/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render <transcript.json>",
	Short: "Replay a recorded stroke transcript and export a PNG",
	Long:  `Render replays a JSON stroke transcript through the brush engine core and writes the composited canvas as PNG.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "out.png", "Output PNG path")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	if err := viper.BindPFlag("render.output", renderCmd.Flags().Lookup("output")); err != nil {
		panic(fmt.Sprintf("failed to bind flag output: %v", err))
	}
	if err := viper.BindPFlag("render.png_compression", renderCmd.Flags().Lookup("png-compression")); err != nil {
		panic(fmt.Sprintf("failed to bind flag png-compression: %v", err))
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	transcriptPath := args[0]
	outputPath := viper.GetString("render.output")

	t, err := loadTranscript(transcriptPath)
	if err != nil {
		return err
	}

	logger.Info("Replaying stroke transcript",
		"transcript", transcriptPath,
		"css_w", t.CssW,
		"css_h", t.CssH,
		"dpr", t.Dpr,
		"strokes", len(t.Strokes),
	)

	e := engine.New(t.CssW, t.CssH, t.Dpr, logger)

	for i, rec := range t.Strokes {
		h, err := e.BeginStroke(rec.Preset, rec.ColorHex, rec.Seed)
		if err != nil {
			return fmt.Errorf("stroke %d: begin: %w", i, err)
		}
		for _, s := range rec.Samples {
			e.PushSample(h, s.toPathPoint())
		}
		stamps, err := e.EndStroke(h)
		if err != nil {
			return fmt.Errorf("stroke %d: end: %w", i, err)
		}
		logger.Debug("Stroke replayed", "index", i, "preset", rec.Preset.ID, "stamps", stamps)
	}

	pngBytes, err := e.ExportPngCompressed(viper.GetString("render.png_compression"))
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}

	if err := os.WriteFile(outputPath, pngBytes, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("Render complete", "output", outputPath, "strokes", len(t.Strokes))
	return nil
}
