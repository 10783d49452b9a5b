// Package ssd1306test emulates the write side of an SSD1306 controller.
//
// Panel implements i2c.Bus. It parses command and data streams the way the
// controller does in page addressing mode and keeps a copy of the display
// RAM, so tests and simulators can look at what a real panel would show.
package ssd1306test

import (
	"fmt"
	"image"
	"sync"

	"github.com/flavioheleno/tinyterm/ssd1306/image1bit"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	width = 128
	pages = 8
)

// Panel is an emulated 128x64 SSD1306 behind a bus address.
type Panel struct {
	// Addr is the 7-bit address the panel answers to.
	Addr uint16

	mu sync.Mutex

	ram [pages][width]byte

	page   int
	column int

	offset    int // display offset in pixel rows
	startLine int
	contrast  byte
	inverted  bool
	on        bool

	// Sessions counts transactions addressed to the panel.
	Sessions int
	// Commands keeps every command byte received, in order.
	Commands []byte
}

// NewPanel returns a panel at addr with the controller's reset state.
func NewPanel(addr uint16) *Panel {
	return &Panel{Addr: addr, contrast: 0x7F}
}

// String implements i2c.Bus.
func (p *Panel) String() string {
	return fmt.Sprintf("ssd1306test.Panel(0x%X)", p.Addr)
}

// SetSpeed implements i2c.Bus.
func (p *Panel) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus. Transactions to other addresses are ignored, as a
// real bus would NAK them.
func (p *Panel) Tx(addr uint16, w, r []byte) error {
	if len(r) != 0 {
		return fmt.Errorf("ssd1306test: reads are not supported")
	}
	if addr != p.Addr || len(w) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.Sessions++
	switch w[0] {
	case 0x00:
		return p.commands(w[1:])
	case 0x40:
		p.data(w[1:])
		return nil
	default:
		return fmt.Errorf("ssd1306test: unsupported control byte 0x%02X", w[0])
	}
}

// commands decodes a command stream. Only the commands used for page mode
// text are understood; anything else is an error.
func (p *Panel) commands(cmds []byte) error {
	p.Commands = append(p.Commands, cmds...)
	for i := 0; i < len(cmds); i++ {
		c := cmds[i]
		arg := func() (byte, error) {
			i++
			if i >= len(cmds) {
				return 0, fmt.Errorf("ssd1306test: command 0x%02X is missing its argument", c)
			}
			return cmds[i], nil
		}

		switch {
		case c <= 0x0F:
			p.column = p.column&0xF0 | int(c)
		case c >= 0x10 && c <= 0x17:
			p.column = p.column&0x0F | int(c&0x07)<<4
		case c == 0x20:
			v, err := arg()
			if err != nil {
				return err
			}
			if v&0x03 != 0x02 {
				return fmt.Errorf("ssd1306test: only page addressing is emulated, got mode %d", v&0x03)
			}
		case c >= 0x40 && c <= 0x7F:
			p.startLine = int(c & 0x3F)
		case c == 0x81:
			v, err := arg()
			if err != nil {
				return err
			}
			p.contrast = v
		case c == 0xA6:
			p.inverted = false
		case c == 0xA7:
			p.inverted = true
		case c == 0xAE:
			p.on = false
		case c == 0xAF:
			p.on = true
		case c >= 0xB0 && c <= 0xB7:
			p.page = int(c & 0x07)
		case c == 0xD3:
			v, err := arg()
			if err != nil {
				return err
			}
			p.offset = int(v & 0x3F)
		case c == 0x8D, c == 0xA8, c == 0xD5, c == 0xD9, c == 0xDA, c == 0xDB:
			if _, err := arg(); err != nil {
				return err
			}
		case c == 0xA0, c == 0xA1, c == 0xA4, c == 0xA5, c == 0xC0, c == 0xC8:
		default:
			return fmt.Errorf("ssd1306test: unsupported command 0x%02X", c)
		}
	}
	return nil
}

// data writes into the current page. The column wraps within the page.
func (p *Panel) data(b []byte) {
	for _, v := range b {
		p.ram[p.page][p.column] = v
		p.column = (p.column + 1) % width
	}
}

// Cursor returns the RAM write position.
func (p *Panel) Cursor() (page, column int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page, p.column
}

// Offset returns the display offset in pixel rows.
func (p *Panel) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Contrast returns the last contrast value.
func (p *Panel) Contrast() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contrast
}

// Inverted reports whether the display is inverted.
func (p *Panel) Inverted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inverted
}

// On reports whether the display is switched on.
func (p *Panel) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Page returns a copy of RAM page n.
func (p *Panel) Page(n int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, width)
	copy(out, p.ram[n&(pages-1)][:])
	return out
}

// Image returns what the panel shows: the RAM remapped by the display offset
// and start line, with inversion applied. A panel that is off is blank.
func (p *Panel) Image() *image1bit.VerticalLSB {
	p.mu.Lock()
	defer p.mu.Unlock()

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, pages*8))
	if !p.on {
		return img
	}
	for y := 0; y < pages*8; y++ {
		src := (y + p.offset + p.startLine) % (pages * 8)
		for x := 0; x < width; x++ {
			lit := p.ram[src/8][x]&(1<<uint(src%8)) != 0
			img.SetBit(x, y, image1bit.Bit(lit != p.inverted))
		}
	}
	return img
}

var _ i2c.Bus = &Panel{}
