// Package overlay renders a title caption onto thumbnails using ffmpeg
// drawtext filters: a semi-transparent band across the bottom with
// word-wrapped, outlined, centered text on top.
package overlay

import (
	"fmt"
	"strings"

	"github.com/clipworks/thumbnailer/pkg/ffmpeg"
)

// DefaultFontFile is used when no font is configured.
const DefaultFontFile = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"

// glyphWidthRatio approximates the average advance width of a bold
// sans-serif glyph relative to the font size. Good enough for wrapping;
// drawtext centers each line exactly regardless.
const glyphWidthRatio = 0.55

// Options configures title rendering.
type Options struct {
	FontFile string // path to a TTF font (default DefaultFontFile)
	FontSize int    // 0 picks max(34, width/24) like the band sizing
}

// Filters returns the ffmpeg filter options that draw the title onto a
// width x height image. Returns nil for an empty title.
func Filters(title string, width, height int, opts Options) []ffmpeg.Option {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	fontFile := opts.FontFile
	if fontFile == "" {
		fontFile = DefaultFontFile
	}
	fontSize := opts.FontSize
	if fontSize <= 0 {
		fontSize = max(34, width/24)
	}

	paddingH := width * 4 / 100
	paddingV := height * 2 / 100
	maxLineWidth := width - 2*paddingH

	lines := wrap(title, maxCharsPerLine(maxLineWidth, fontSize))

	lineHeight := fontSize + fontSize*15/100
	bandHeight := 2*paddingV + lineHeight*len(lines)
	if bandHeight > height {
		bandHeight = height
	}
	bandTop := height - bandHeight

	filters := []ffmpeg.Option{
		ffmpeg.Filter(ffmpeg.DrawBoxFilter{
			X:      "0",
			Y:      fmt.Sprintf("%d", bandTop),
			Width:  "iw",
			Height: fmt.Sprintf("%d", bandHeight),
			Color:  "black@0.7",
		}.String()),
	}

	stroke := max(1, fontSize/14)
	for i, line := range lines {
		y := bandTop + paddingV + i*lineHeight
		filters = append(filters, ffmpeg.Filter(ffmpeg.DrawTextFilter{
			Text:        line,
			FontFile:    fontFile,
			FontSize:    fontSize,
			FontColor:   "white",
			BorderWidth: stroke,
			BorderColor: "black",
			X:           "(w-text_w)/2",
			Y:           fmt.Sprintf("%d", y),
		}.String()))
	}

	return filters
}

// maxCharsPerLine estimates how many glyphs of the given size fit in
// pixelWidth.
func maxCharsPerLine(pixelWidth, fontSize int) int {
	chars := int(float64(pixelWidth) / (float64(fontSize) * glyphWidthRatio))
	if chars < 1 {
		chars = 1
	}
	return chars
}

// wrap greedily packs words into lines of at most maxChars characters.
// A single word longer than maxChars gets its own line rather than
// being split.
func wrap(text string, maxChars int) []string {
	words := strings.Fields(text)
	var lines []string
	var cur string

	for _, word := range words {
		test := word
		if cur != "" {
			test = cur + " " + word
		}
		if len(test) <= maxChars {
			cur = test
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
