package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/output"
)

// ScreenshotResult is the YAML output of a successful capture.
type ScreenshotResult struct {
	OK     bool   `yaml:"ok"     json:"ok"`
	Action string `yaml:"action" json:"action"`
	File   string `yaml:"file"   json:"file"`
	Bytes  int    `yaml:"bytes"  json:"bytes"`
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a screenshot of a tab",
	Long: `Capture the selected tab as an image. With --annotate, interactive
elements are outlined and labelled with their snapshot IDs so a read and a
screenshot can be cross-referenced.`,
	RunE: runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	addTabFlag(screenshotCmd)
	screenshotCmd.Flags().String("out", "screenshot.png", "Output file path")
	screenshotCmd.Flags().String("image-format", "png", "Image format: png, jpeg")
	screenshotCmd.Flags().Int("quality", 80, "JPEG quality 1-100")
	screenshotCmd.Flags().Bool("full-page", false, "Capture the whole document, not just the viewport")
	screenshotCmd.Flags().Float64("scale", 1.0, "Output scale factor 0.1-1.0")
	screenshotCmd.Flags().Bool("annotate", false, "Draw element IDs and bounding boxes (png, viewport only)")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	imageFormat, _ := cmd.Flags().GetString("image-format")
	quality, _ := cmd.Flags().GetInt("quality")
	fullPage, _ := cmd.Flags().GetBool("full-page")
	scale, _ := cmd.Flags().GetFloat64("scale")
	annotate, _ := cmd.Flags().GetBool("annotate")

	if annotate && (imageFormat != "png" || fullPage) {
		return fmt.Errorf("--annotate requires png format and viewport capture")
	}

	eng, ctx, err := connectEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	tab, err := resolveTab(ctx, eng, cmd)
	if err != nil {
		return err
	}
	data, err := eng.Screenshot(ctx, tab.ID, engine.ScreenshotOptions{
		Format:   imageFormat,
		Quality:  quality,
		FullPage: fullPage,
		Scale:    scale,
	})
	if err != nil {
		return err
	}

	if annotate {
		data, err = annotateCapture(cmd, eng, tab.ID, data)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return output.Print(ScreenshotResult{OK: true, Action: "screenshot", File: out, Bytes: len(data)})
}

// annotateCapture overlays interactive-element boxes and IDs on a viewport
// capture.
func annotateCapture(cmd *cobra.Command, eng *engine.Engine, targetID string, data []byte) ([]byte, error) {
	ctx := cmd.Context()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}

	snap, err := eng.Snapshot(ctx, targetID)
	if err != nil {
		return nil, err
	}
	var interactive []model.FlatElement
	for _, el := range snap.Flat() {
		if model.IsInteractive(el.Role) && el.HasArea() {
			interactive = append(interactive, el)
		}
	}

	raw, err := eng.Evaluate(ctx, targetID, `({w: window.innerWidth, h: window.innerHeight})`)
	if err != nil {
		return nil, err
	}
	var viewport struct {
		W int `json:"w"`
		H int `json:"h"`
	}
	if err := json.Unmarshal(raw, &viewport); err != nil {
		return nil, err
	}

	annotated := AnnotateScreenshot(img, interactive, viewport.W, viewport.H)
	var buf bytes.Buffer
	if err := png.Encode(&buf, annotated); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
