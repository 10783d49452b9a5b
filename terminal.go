package tinyterm

import (
	"io"
	"log/slog"
)

const (
	// Columns is the number of characters per line.
	Columns = 21
	// Lines is the number of text lines, one per display page.
	Lines = 8
)

// Control characters acted upon. Other bytes below 0x20 are dropped.
const (
	bell           = 0x07
	lineFeed       = 0x0A
	carriageReturn = 0x0D
)

// Display is the text surface the terminal draws on. *ssd1306.Dev
// implements it.
//
// Rows are physical pages; the terminal applies its scroll offset before
// calling SetLine.
type Display interface {
	SetLine(row int) error
	ClearScreen() error
	// ScrollUp clears row top and makes the next row the top of the window.
	// It returns the new top.
	ScrollUp(top int) (int, error)
	PlotGlyph(c byte) error
}

// Beeper produces the audible signal. Beep blocks until it is done.
type Beeper interface {
	Beep()
}

// Opts is the configuration for the terminal.
type Opts struct {
	// Beeper is sounded on BEL and LF. Optional.
	Beeper Beeper
	// Logger receives display errors. Defaults to discarding them.
	Logger *slog.Logger
}

// Terminal renders a byte stream as scrolling text.
//
// The cursor is (line, column) in the text window plus the scroll offset of
// the window in display RAM. The page being written is always
// (line + scroll) mod Lines.
type Terminal struct {
	d      Display
	beeper Beeper
	log    *slog.Logger

	line   int
	column int
	scroll int

	err error
}

// New returns a terminal drawing on d and clears the screen.
//
// d must already be initialized. opts can be nil to use defaults.
func New(d Display, opts *Opts) *Terminal {
	if opts == nil {
		opts = &Opts{}
	}
	t := &Terminal{
		d:      d,
		beeper: opts.Beeper,
		log:    opts.Logger,
	}
	if t.log == nil {
		t.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t.ClearScreen()
	return t
}

// Consume processes one byte. The top bit is ignored.
//
//   - 0x20-0x7F: draw the glyph and advance, wrapping after Columns characters
//   - LF: go to the start of the next line and beep
//   - CR: go to the start of the current line
//   - BEL: beep
//
// Everything else is dropped.
func (t *Terminal) Consume(c byte) {
	c &= 0x7F
	switch {
	case c >= 0x20:
		t.check(t.d.PlotGlyph(c))
		t.column++
		if t.column >= Columns {
			t.column = 0
			t.advance()
		}
	case c == lineFeed:
		t.column = 0
		t.advance()
		t.beep()
	case c == carriageReturn:
		t.column = 0
		t.check(t.d.SetLine(t.Row()))
	case c == bell:
		t.beep()
	}
}

// WriteByte implements io.ByteWriter. It never fails.
func (t *Terminal) WriteByte(c byte) error {
	t.Consume(c)
	return nil
}

// Write implements io.Writer. All of p is consumed and no error is returned;
// display errors are available through Err.
func (t *Terminal) Write(p []byte) (int, error) {
	for _, c := range p {
		t.Consume(c)
	}
	return len(p), nil
}

// ClearScreen blanks the display and moves the cursor to the start of the
// first line of the window. The scroll offset is kept.
func (t *Terminal) ClearScreen() {
	t.check(t.d.ClearScreen())
	t.line = 0
	t.column = 0
	t.check(t.d.SetLine(t.Row()))
}

// ScrollUp clears the top line of the window and moves the window down by
// one line. The cursor keeps its line in the window and moves to its start.
func (t *Terminal) ScrollUp() {
	t.scrollUp()
	t.column = 0
	t.check(t.d.SetLine(t.Row()))
}

// Cursor returns the line and column in the window and the scroll offset.
func (t *Terminal) Cursor() (line, column, scroll int) {
	return t.line, t.column, t.scroll
}

// Row returns the display page the cursor is on.
func (t *Terminal) Row() int {
	return (t.line + t.scroll) & (Lines - 1)
}

// Err returns the first display error seen, if any.
func (t *Terminal) Err() error {
	return t.err
}

// advance moves to the start of the next line, scrolling on the last one.
func (t *Terminal) advance() {
	if t.line == Lines-1 {
		t.scrollUp()
	} else {
		t.line++
	}
	t.check(t.d.SetLine(t.Row()))
}

// scrollUp leaves the controller cursor on the cleared page; callers must
// follow with SetLine.
func (t *Terminal) scrollUp() {
	next, err := t.d.ScrollUp(t.scroll)
	t.check(err)
	t.scroll = next & (Lines - 1)
}

func (t *Terminal) beep() {
	if t.beeper != nil {
		t.beeper.Beep()
	}
}

func (t *Terminal) check(err error) {
	if err == nil {
		return
	}
	if t.err == nil {
		t.err = err
		t.log.Warn("display error", "err", err)
		return
	}
	t.log.Debug("display error", "err", err)
}
