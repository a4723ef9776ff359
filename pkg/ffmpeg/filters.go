package ffmpeg

import (
	"fmt"
	"strings"
)

// CoverFilter scales the input up so it covers the target box, then
// center-crops to exactly Width x Height. Aspect ratio is preserved,
// overflow is cropped.
type CoverFilter struct {
	Width, Height int
}

// String returns the ffmpeg filter string.
func (c CoverFilter) String() string {
	return fmt.Sprintf(
		"scale=trunc(iw*max(%d/iw\\,%d/ih)):trunc(ih*max(%d/iw\\,%d/ih)),crop=%d:%d",
		c.Width, c.Height, c.Width, c.Height, c.Width, c.Height)
}

// Cover adds a scale-and-center-crop filter to fill the target dimensions.
func Cover(width, height int) Option {
	return Filter(CoverFilter{width, height}.String())
}

// DrawBoxFilter draws a filled rectangle.
type DrawBoxFilter struct {
	X, Y          string // ffmpeg expressions, e.g. "0", "ih-120"
	Width, Height string
	Color         string // e.g. "black@0.7"
}

// String returns the ffmpeg filter string.
func (d DrawBoxFilter) String() string {
	return fmt.Sprintf("drawbox=x=%s:y=%s:w=%s:h=%s:color=%s:t=fill",
		d.X, d.Y, d.Width, d.Height, d.Color)
}

// DrawTextFilter renders a single line of text.
type DrawTextFilter struct {
	Text        string
	FontFile    string
	FontSize    int
	FontColor   string
	BorderWidth int
	BorderColor string
	X, Y        string // ffmpeg position expressions
}

// String returns the ffmpeg filter string.
func (d DrawTextFilter) String() string {
	parts := []string{fmt.Sprintf("drawtext=text='%s'", escapeDrawText(d.Text))}
	if d.FontFile != "" {
		parts = append(parts, "fontfile="+d.FontFile)
	}
	parts = append(parts,
		fmt.Sprintf("fontsize=%d", d.FontSize),
		"fontcolor="+d.FontColor,
	)
	if d.BorderWidth > 0 {
		parts = append(parts,
			fmt.Sprintf("borderw=%d", d.BorderWidth),
			"bordercolor="+d.BorderColor,
		)
	}
	parts = append(parts, "x="+d.X, "y="+d.Y)
	return strings.Join(parts, ":")
}

// escapeDrawText escapes characters with special meaning inside a
// drawtext text='' value.
func escapeDrawText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`%`, `\%`,
		`:`, `\:`,
	)
	return r.Replace(s)
}
