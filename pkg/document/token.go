package document

import "strings"

// Token is one OCR-recognized text fragment as reported by an engine.
// Coordinates are in image pixels with the origin at the top-left corner.
type Token struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Text   string  `json:"text" yaml:"text"`
}

// Position is a point in image pixel coordinates.
type Position struct {
	X float64
	Y float64
}

// BoundingBox is an axis-aligned box described by its four corners.
type BoundingBox struct {
	LeftTop     Position
	RightTop    Position
	RightBottom Position
	LeftBottom  Position
}

// Normalize converts a raw token into a four-corner bounding box and its
// trimmed text. ok is false for tokens whose text is blank. A negative
// width or height extends the box left or up from the reported corner, so
// LeftTop is always the minimum corner.
func Normalize(t Token) (bbox BoundingBox, text string, ok bool) {
	text = strings.TrimSpace(t.Text)
	if text == "" {
		return BoundingBox{}, "", false
	}

	left, right := min(t.Left, t.Left+t.Width), max(t.Left, t.Left+t.Width)
	top, bottom := min(t.Top, t.Top+t.Height), max(t.Top, t.Top+t.Height)
	bbox = BoundingBox{
		LeftTop:     Position{X: left, Y: top},
		RightTop:    Position{X: right, Y: top},
		RightBottom: Position{X: right, Y: bottom},
		LeftBottom:  Position{X: left, Y: bottom},
	}
	return bbox, text, true
}

// Compact returns the box as [left, top, right, bottom].
func (b BoundingBox) Compact() Box {
	return Box{b.LeftTop.X, b.LeftTop.Y, b.RightBottom.X, b.RightBottom.Y}
}

// TokenFromBox is the inverse of Normalize for engines that report boxes
// as corner coordinates.
func TokenFromBox(x1, y1, x2, y2 float64, text string) Token {
	return Token{Left: x1, Top: y1, Width: x2 - x1, Height: y2 - y1, Text: text}
}
