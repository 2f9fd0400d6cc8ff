package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/chrome-cli/internal/model"
)

// AnnotateScreenshot draws bounding boxes and "[id]" labels for elements on
// a viewport capture. Element bounds are viewport CSS pixels; they are
// converted to image pixels using the ratio of image dimensions to viewport
// dimensions, which absorbs both Retina scaling and any capture scale.
func AnnotateScreenshot(img image.Image, elements []model.FlatElement, viewportW, viewportH int) image.Image {
	rgba := imageToRGBA(img)

	imgBounds := img.Bounds()
	scaleX, scaleY := 1.0, 1.0
	if viewportW > 0 {
		scaleX = float64(imgBounds.Dx()) / float64(viewportW)
	}
	if viewportH > 0 {
		scaleY = float64(imgBounds.Dy()) / float64(viewportH)
	}

	boxColor := color.RGBA{R: 255, G: 0, B: 0, A: 100}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	for _, el := range elements {
		drawElementBox(rgba, el, scaleX, scaleY, boxColor, textColor, outlineColor)
	}
	return rgba
}

// imageToRGBA converts any image to RGBA.
func imageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func drawElementBox(img *image.RGBA, el model.FlatElement, scaleX, scaleY float64, boxColor, textColor, outlineColor color.Color) {
	x := int(float64(el.Bounds[0]) * scaleX)
	y := int(float64(el.Bounds[1]) * scaleY)
	w := int(float64(el.Bounds[2]) * scaleX)
	h := int(float64(el.Bounds[3]) * scaleY)

	drawRectangle(img, x, y, x+w, y+h, boxColor)
	drawTextWithOutline(img, fmt.Sprintf("[%d]", el.ID), x+w/2, y+h/2, textColor, outlineColor)
}

// isWithinBounds checks if a point is within the image bounds.
func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline on the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		if isWithinBounds(bounds, x, y1) {
			img.Set(x, y1, c)
		}
		if isWithinBounds(bounds, x, y2-1) {
			img.Set(x, y2-1, c)
		}
	}
	for y := y1; y < y2; y++ {
		if isWithinBounds(bounds, x1, y) {
			img.Set(x1, y, c)
		}
		if isWithinBounds(bounds, x2-1, y) {
			img.Set(x2-1, y, c)
		}
	}
}

// drawTextWithOutline draws text with an outline for better visibility.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13: ~7px per character, ~13px tall.
	textWidth := len(text) * 7
	textHeight := 13

	offsetX := x - textWidth/2
	offsetY := y - textHeight/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := fixed.Point26_6{
				X: fixed.Int26_6((offsetX + dx) * 64),
				Y: fixed.Int26_6((offsetY + dy) * 64),
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(outlineColor),
				Face: basicfont.Face7x13,
				Dot:  p,
			}
			d.DrawString(text)
		}
	}

	point := fixed.Point26_6{
		X: fixed.Int26_6(offsetX * 64),
		Y: fixed.Int26_6(offsetY * 64),
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}
