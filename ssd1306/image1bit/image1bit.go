// Package image1bit provides a 1-bit image laid out the way the SSD1306
// stores its display RAM.
//
// Pixels are packed vertically: each byte covers 8 rows of one column, with
// bit 0 as the top pixel. A row of bytes (one page) spans the full width.
//
//	Page 0: x=0 x=1 ... x=W-1   rows 0-7
//	Page 1: x=0 x=1 ... x=W-1   rows 8-15
package image1bit

import (
	"image"
	"image/color"
)

// Bit is a pixel that is either lit or dark.
type Bit bool

const (
	// Off is a dark pixel, a 0 bit in display RAM.
	Off Bit = false
	// On is a lit pixel, a 1 bit in display RAM.
	On Bit = true
)

// RGBA implements color.Color.
func (b Bit) RGBA() (r, g, bl, a uint32) {
	if b {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

func (b Bit) String() string {
	if b {
		return "On"
	}
	return "Off"
}

// toBit lights any color brighter than mid gray.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit(y >= 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// VerticalLSB is a 1-bit image in page layout.
type VerticalLSB struct {
	Pix    []byte          // 8 vertical pixels per byte
	Stride int             // Bytes per page, equal to the width
	Rect   image.Rectangle // Image bounds
}

// NewVerticalLSB creates a blank image. The height must be a multiple of 8.
func NewVerticalLSB(r image.Rectangle) *VerticalLSB {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &VerticalLSB{Rect: r}
	}
	if h%8 != 0 {
		panic("image1bit: height must be a multiple of 8")
	}
	return &VerticalLSB{
		Pix:    make([]byte, w*h/8),
		Stride: w,
		Rect:   r,
	}
}

// ColorModel returns BitModel.
func (p *VerticalLSB) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds.
func (p *VerticalLSB) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *VerticalLSB) At(x, y int) color.Color {
	return p.BitAt(x, y)
}

// BitAt returns the pixel at (x, y). Pixels outside the bounds are Off.
func (p *VerticalLSB) BitAt(x, y int) Bit {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Off
	}
	offset, mask := p.pixOffset(x, y)
	return Bit(p.Pix[offset]&mask != 0)
}

// Set implements draw.Image.
func (p *VerticalLSB) Set(x, y int, c color.Color) {
	p.SetBit(x, y, BitModel.Convert(c).(Bit))
}

// SetBit sets the pixel at (x, y) without color conversion.
func (p *VerticalLSB) SetBit(x, y int, b Bit) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset, mask := p.pixOffset(x, y)
	if b {
		p.Pix[offset] |= mask
	} else {
		p.Pix[offset] &^= mask
	}
}

// Page returns the bytes of page n (rows 8n to 8n+7). The slice aliases Pix.
func (p *VerticalLSB) Page(n int) []byte {
	start := n * p.Stride
	if n < 0 || start+p.Stride > len(p.Pix) {
		return nil
	}
	return p.Pix[start : start+p.Stride]
}

func (p *VerticalLSB) pixOffset(x, y int) (offset int, mask byte) {
	y -= p.Rect.Min.Y
	offset = (y/8)*p.Stride + (x - p.Rect.Min.X)
	mask = 1 << uint(y&7)
	return
}
