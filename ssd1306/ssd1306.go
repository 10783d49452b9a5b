package ssd1306

import (
	"errors"
	"fmt"

	"github.com/flavioheleno/tinyterm/font5x7"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

const (
	// Width is the number of pixel columns.
	Width = 128
	// Rows is the number of 8-pixel-tall pages.
	Rows = 8
	// Height is the number of pixel rows.
	Height = Rows * 8

	// DefaultAddr is the usual 7-bit bus address (SA0 low).
	DefaultAddr = 0x3C

	// GlyphWidth is the number of columns PlotGlyph writes: the font
	// bitmap plus one blank separator.
	GlyphWidth = font5x7.Width + 1
)

// Control bytes sent after the address.
const (
	modeCommand = 0x00 // command stream follows
	modeData    = 0x40 // display RAM data follows
)

// Opts is the configuration for the SSD1306 display.
type Opts struct {
	// Addr is the 7-bit bus address (default: DefaultAddr).
	Addr uint16
}

// Dev is the device handle for the SSD1306 display.
type Dev struct {
	c conn.Conn

	// One session worth of bytes: control byte plus a full page.
	buf [1 + Width]byte

	halted bool
}

// initSequence configures page addressing on a 128x64 panel with the
// internal charge pump. The display RAM is left untouched.
var initSequence = [...]byte{
	0xAE,       // Display OFF
	0xD5, 0x80, // Clock divider and oscillator frequency
	0xA8, 0x3F, // MUX ratio (64)
	0xD3, 0x00, // Display offset
	0x40,       // Start line 0
	0x8D, 0x14, // Charge pump enable
	0x20, 0x02, // Page addressing mode
	0xA1,       // Segment remap (column 127 is SEG0)
	0xC8,       // COM scan direction remapped
	0xDA, 0x12, // COM pins: alternative configuration
	0x81, 0x7F, // Contrast
	0xD9, 0xF1, // Pre-charge period
	0xDB, 0x40, // VCOMH deselect level
	0xA6,       // Normal display mode
	0xAF,       // Display ON
}

// NewI2C returns a device on bus b and sends the initialization sequence.
//
// b is usually a *bitbang.Bus, but any i2c.Bus works. opts can be nil to use
// defaults.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, errors.New("ssd1306: bus is required")
	}
	addr, err := opts.addr()
	if err != nil {
		return nil, err
	}
	return newDev(&i2c.Dev{Bus: b, Addr: addr})
}

// NewTinyGo returns a device on a TinyGo style bus, such as machine.I2C0, and
// sends the initialization sequence. Each session is one WriteRegister call
// with the control byte in place of the register.
//
// opts can be nil to use defaults.
func NewTinyGo(b drivers.I2C, opts *Opts) (*Dev, error) {
	if b == nil {
		return nil, errors.New("ssd1306: bus is required")
	}
	addr, err := opts.addr()
	if err != nil {
		return nil, err
	}
	return newDev(&registerConn{b: b, addr: uint8(addr)})
}

func newDev(c conn.Conn) (*Dev, error) {
	d := &Dev{c: c}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (o *Opts) addr() (uint16, error) {
	var addr uint16
	if o != nil {
		addr = o.Addr
	}
	if addr == 0 {
		addr = DefaultAddr
	}
	if addr != 0x3C && addr != 0x3D {
		return 0, fmt.Errorf("ssd1306: invalid address 0x%X, must be 0x3C or 0x3D", addr)
	}
	return addr, nil
}

// init sends the initialization sequence in a single session.
func (d *Dev) init() error {
	if err := d.sendCommands(initSequence[:]...); err != nil {
		return fmt.Errorf("ssd1306: init failed: %w", err)
	}
	return nil
}

// SetLine points the RAM write cursor at column 0 of page row.
//
// row is a physical page: callers apply their own scroll offset.
func (d *Dev) SetLine(row int) error {
	if d.halted {
		return errHalted
	}
	if row < 0 || row >= Rows {
		return fmt.Errorf("ssd1306: row %d out of range", row)
	}
	return d.sendCommands(
		0xB0|byte(row), // Page start address
		0x00,           // Lower column start address
		0x10,           // Upper column start address
	)
}

// ClearLine blanks all Width columns of page row. The column pointer wraps
// back to 0 afterwards.
func (d *Dev) ClearLine(row int) error {
	if err := d.SetLine(row); err != nil {
		return err
	}
	d.buf[0] = modeData
	clear(d.buf[1:])
	return d.c.Tx(d.buf[:], nil)
}

// ClearScreen blanks every page.
func (d *Dev) ClearScreen() error {
	for row := 0; row < Rows; row++ {
		if err := d.ClearLine(row); err != nil {
			return err
		}
	}
	return nil
}

// SetScroll sets the hardware display offset to offset pages. The page shown
// at the top of the panel becomes page offset.
func (d *Dev) SetScroll(offset int) error {
	if d.halted {
		return errHalted
	}
	return d.sendCommands(0xD3, byte(offset&(Rows-1))<<3)
}

// ScrollUp clears page top, the current top of the window, and moves the
// window down by one page. It returns the new offset.
func (d *Dev) ScrollUp(top int) (int, error) {
	top &= Rows - 1
	if err := d.ClearLine(top); err != nil {
		return top, err
	}
	next := (top + 1) & (Rows - 1)
	if err := d.SetScroll(next); err != nil {
		return top, err
	}
	return next, nil
}

// PlotGlyph writes the bitmap of c followed by a blank column at the RAM
// write cursor. Characters without a glyph are skipped.
func (d *Dev) PlotGlyph(c byte) error {
	if d.halted {
		return errHalted
	}
	g, ok := font5x7.Glyph(c)
	if !ok {
		return nil
	}
	d.buf[0] = modeData
	n := copy(d.buf[1:], g[:])
	d.buf[1+n] = 0x00
	return d.c.Tx(d.buf[:2+n], nil)
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(contrast byte) error {
	if d.halted {
		return errHalted
	}
	return d.sendCommands(0x81, contrast)
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	mode := byte(0xA6) // Normal display
	if invert {
		mode = 0xA7 // Inverted display
	}
	return d.sendCommands(mode)
}

// Halt turns the display off.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	return d.sendCommands(0xAE) // Display OFF
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1306.Dev{%s}", d.c)
}

var errHalted = errors.New("ssd1306: halted")

// registerConn carries sessions over drivers.I2C.WriteRegister.
type registerConn struct {
	b    drivers.I2C
	addr uint8
}

func (r *registerConn) Tx(w, rd []byte) error {
	if len(rd) != 0 {
		return errors.New("ssd1306: reads are not supported")
	}
	if len(w) == 0 {
		return nil
	}
	return r.b.WriteRegister(r.addr, w[0], w[1:])
}

func (r *registerConn) Duplex() conn.Duplex {
	return conn.Half
}

func (r *registerConn) String() string {
	return fmt.Sprintf("drivers.I2C(0x%02X)", r.addr)
}

// sendCommands sends cmds in one command-mode session.
func (d *Dev) sendCommands(cmds ...byte) error {
	d.buf[0] = modeCommand
	n := copy(d.buf[1:], cmds)
	return d.c.Tx(d.buf[:1+n], nil)
}
