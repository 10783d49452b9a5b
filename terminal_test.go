package tinyterm

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/flavioheleno/tinyterm/buzzer"
	"github.com/flavioheleno/tinyterm/ssd1306"
	"github.com/flavioheleno/tinyterm/ssd1306/ssd1306test"
)

// fakeDisplay records the calls made by the terminal.
type fakeDisplay struct {
	calls   []string
	glyphs  []byte
	scrolls []int // tops passed to ScrollUp
	clears  int
	fail    error
}

func (f *fakeDisplay) SetLine(row int) error {
	f.calls = append(f.calls, fmt.Sprintf("SetLine(%d)", row))
	return f.fail
}

func (f *fakeDisplay) ClearScreen() error {
	f.calls = append(f.calls, "ClearScreen")
	f.clears++
	return f.fail
}

func (f *fakeDisplay) ScrollUp(top int) (int, error) {
	f.calls = append(f.calls, fmt.Sprintf("ScrollUp(%d)", top))
	f.scrolls = append(f.scrolls, top)
	if f.fail != nil {
		return top, f.fail
	}
	return (top + 1) % Lines, nil
}

func (f *fakeDisplay) PlotGlyph(c byte) error {
	f.calls = append(f.calls, fmt.Sprintf("PlotGlyph(%q)", c))
	f.glyphs = append(f.glyphs, c)
	return f.fail
}

func (f *fakeDisplay) reset() {
	f.calls = nil
	f.glyphs = nil
	f.scrolls = nil
	f.clears = 0
}

func newTestTerminal() (*Terminal, *fakeDisplay, *int) {
	d := &fakeDisplay{}
	beeps := 0
	t := New(d, &Opts{Beeper: buzzer.Func(func() { beeps++ })})
	d.reset()
	return t, d, &beeps
}

func assertCursor(t *testing.T, term *Terminal, line, column, scroll int) {
	t.Helper()
	l, c, s := term.Cursor()
	if l != line || c != column || s != scroll {
		t.Errorf("Cursor() = (%d, %d, %d), want (%d, %d, %d)", l, c, s, line, column, scroll)
	}
}

func TestNewClearsScreen(t *testing.T) {
	d := &fakeDisplay{}
	term := New(d, nil)
	want := []string{"ClearScreen", "SetLine(0)"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	assertCursor(t, term, 0, 0, 0)
}

func TestPrintableColumns(t *testing.T) {
	for _, n := range []int{0, 1, 5, 20, 21, 22, 41, 42, 100} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			term, d, _ := newTestTerminal()
			term.Write(bytes.Repeat([]byte{'x'}, n))

			assertCursor(t, term, n/Columns, n%Columns, 0)
			if len(d.glyphs) != n {
				t.Errorf("plotted %d glyphs, want %d", len(d.glyphs), n)
			}
		})
	}
}

func TestWrapAfter21Characters(t *testing.T) {
	term, d, beeps := newTestTerminal()

	term.Write([]byte(strings.Repeat("a", 20)))
	assertCursor(t, term, 0, 20, 0)

	term.Consume('b')
	assertCursor(t, term, 1, 0, 0)

	last := d.calls[len(d.calls)-2:]
	if want := []string{"PlotGlyph('b')", "SetLine(1)"}; !reflect.DeepEqual(last, want) {
		t.Errorf("last calls = %v, want %v", last, want)
	}
	if len(d.scrolls) != 0 {
		t.Error("wrap on the first line should not scroll")
	}
	if *beeps != 0 {
		t.Error("wrap should not beep")
	}
}

func TestWrapOnLastLineScrolls(t *testing.T) {
	term, d, _ := newTestTerminal()

	term.Write([]byte(strings.Repeat("\r\n", Lines-1)))
	assertCursor(t, term, Lines-1, 0, 0)
	d.reset()

	term.Write(bytes.Repeat([]byte{'z'}, Columns))
	assertCursor(t, term, Lines-1, 0, 1)

	if !reflect.DeepEqual(d.scrolls, []int{0}) {
		t.Errorf("scrolls = %v, want [0]", d.scrolls)
	}
	// Cursor lands on the page that was just cleared.
	if got := d.calls[len(d.calls)-1]; got != "SetLine(0)" {
		t.Errorf("last call = %s, want SetLine(0)", got)
	}
}

func TestLineFeed(t *testing.T) {
	tests := []struct {
		name       string
		before     string
		wantLine   int
		wantScroll int
	}{
		{"at start", "", 1, 0},
		{"mid line", "hello", 1, 0},
		{"end of line", strings.Repeat("x", 20), 1, 0},
		{"on last line", strings.Repeat("\r\n", 7) + "abc", 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, d, beeps := newTestTerminal()
			term.Write([]byte(tt.before))
			*beeps = 0
			d.reset()

			term.Consume('\n')

			assertCursor(t, term, tt.wantLine, 0, tt.wantScroll)
			if *beeps != 1 {
				t.Errorf("beeps = %d, want 1", *beeps)
			}
			if n := len(d.scrolls); n != tt.wantScroll {
				t.Errorf("scrolls = %d, want %d", n, tt.wantScroll)
			}
			if len(d.glyphs) != 0 {
				t.Error("LF should not plot anything")
			}
		})
	}
}

func TestCarriageReturn(t *testing.T) {
	term, d, beeps := newTestTerminal()
	term.Write([]byte("ab\nxyz"))
	line, _, scroll := term.Cursor()
	*beeps = 0
	d.reset()

	term.Consume('\r')

	assertCursor(t, term, line, 0, scroll)
	if *beeps != 0 {
		t.Error("CR should not beep")
	}
	if want := []string{"SetLine(1)"}; !reflect.DeepEqual(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
}

func TestBell(t *testing.T) {
	term, d, beeps := newTestTerminal()
	term.Write([]byte("abc"))
	d.reset()

	term.Consume(0x07)

	assertCursor(t, term, 0, 3, 0)
	if *beeps != 1 {
		t.Errorf("beeps = %d, want 1", *beeps)
	}
	if len(d.calls) != 0 {
		t.Errorf("BEL touched the display: %v", d.calls)
	}
}

func TestOtherControlCharactersDropped(t *testing.T) {
	term, d, beeps := newTestTerminal()
	term.Write([]byte("ab"))
	d.reset()

	for c := byte(0); c < 0x20; c++ {
		switch c {
		case 0x07, 0x0A, 0x0D:
			continue
		}
		term.Consume(c)
	}

	assertCursor(t, term, 0, 2, 0)
	if len(d.calls) != 0 || *beeps != 0 {
		t.Errorf("control characters had effects: calls %v, beeps %d", d.calls, *beeps)
	}
}

func TestHighBitIgnored(t *testing.T) {
	input := []byte("Hi!\r\n\a~\x7F\x01 ")

	plain, pd, pb := newTestTerminal()
	plain.Write(input)

	high := make([]byte, len(input))
	for i, c := range input {
		high[i] = c | 0x80
	}
	masked, md, mb := newTestTerminal()
	masked.Write(high)

	if !reflect.DeepEqual(pd.calls, md.calls) {
		t.Errorf("calls differ:\n plain  %v\n masked %v", pd.calls, md.calls)
	}
	if *pb != *mb {
		t.Errorf("beeps differ: %d vs %d", *pb, *mb)
	}
	l1, c1, s1 := plain.Cursor()
	assertCursor(t, masked, l1, c1, s1)
}

func TestCursorStaysInRange(t *testing.T) {
	term, _, _ := newTestTerminal()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20000; i++ {
		term.Consume(byte(rng.Intn(256)))
		line, column, scroll := term.Cursor()
		if line < 0 || line >= Lines || scroll < 0 || scroll >= Lines || column < 0 || column >= Columns {
			t.Fatalf("step %d: cursor out of range (%d, %d, %d)", i, line, column, scroll)
		}
		if row := term.Row(); row != (line+scroll)%Lines {
			t.Fatalf("step %d: Row() = %d, want %d", i, row, (line+scroll)%Lines)
		}
	}
}

func TestClearScreenRoundTrip(t *testing.T) {
	term, _, _ := newTestTerminal()

	term.ClearScreen()
	l0, c0, s0 := term.Cursor()

	term.Consume('Q')
	term.ClearScreen()
	assertCursor(t, term, l0, c0, s0)

	// From anywhere, after scrolling too.
	term.Write([]byte(strings.Repeat("line\n", 11) + "tail"))
	_, _, scroll := term.Cursor()
	term.ClearScreen()
	assertCursor(t, term, 0, 0, scroll)
	term.ClearScreen()
	assertCursor(t, term, 0, 0, scroll)
}

func TestScrollFullRing(t *testing.T) {
	term, d, _ := newTestTerminal()
	term.Write([]byte("abc"))
	_, _, start := term.Cursor()

	for i := 0; i < Lines; i++ {
		term.ScrollUp()
	}

	_, _, end := term.Cursor()
	if end != start {
		t.Errorf("scroll after %d steps = %d, want %d", Lines, end, start)
	}
	seen := map[int]int{}
	for _, top := range d.scrolls {
		seen[top]++
	}
	for row := 0; row < Lines; row++ {
		if seen[row] != 1 {
			t.Errorf("row %d cleared %d times, want 1", row, seen[row])
		}
	}
}

func TestDisplayErrorsAreAbsorbed(t *testing.T) {
	d := &fakeDisplay{}
	var logs bytes.Buffer
	term := New(d, &Opts{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	boom := errors.New("bus stuck")
	d.fail = boom
	n, err := term.Write([]byte(strings.Repeat("y", 200) + "\n\r"))
	if n != 202 || err != nil {
		t.Errorf("Write() = %d, %v, want 202, nil", n, err)
	}
	if !errors.Is(term.Err(), boom) {
		t.Errorf("Err() = %v, want %v", term.Err(), boom)
	}
	line, column, scroll := term.Cursor()
	if line < 0 || line >= Lines || column < 0 || column >= Columns || scroll != 0 {
		t.Errorf("cursor out of range after errors: (%d, %d, %d)", line, column, scroll)
	}
	if got := strings.Count(logs.String(), "display error"); got != 1 {
		t.Errorf("logged %d warnings, want 1", got)
	}
}

func TestWriteByte(t *testing.T) {
	term, d, _ := newTestTerminal()
	if err := term.WriteByte('k'); err != nil {
		t.Errorf("WriteByte() error = %v", err)
	}
	if !bytes.Equal(d.glyphs, []byte("k")) {
		t.Errorf("glyphs = %q", d.glyphs)
	}
}

func TestRendersOnPanel(t *testing.T) {
	p := ssd1306test.NewPanel(ssd1306.DefaultAddr)
	dev, err := ssd1306.NewI2C(p, nil)
	if err != nil {
		t.Fatalf("NewI2C() error = %v", err)
	}
	term := New(dev, nil)

	term.Write([]byte("AB\r\nC"))
	if term.Err() != nil {
		t.Fatalf("Err() = %v", term.Err())
	}

	wantRow0 := []byte{0x7E, 0x11, 0x11, 0x11, 0x7E, 0x00, 0x7F, 0x49, 0x49, 0x49, 0x36, 0x00}
	if got := p.Page(0)[:len(wantRow0)]; !bytes.Equal(got, wantRow0) {
		t.Errorf("page 0 = % X, want % X", got, wantRow0)
	}
	wantRow1 := []byte{0x3E, 0x41, 0x41, 0x41, 0x22, 0x00}
	if got := p.Page(1)[:len(wantRow1)]; !bytes.Equal(got, wantRow1) {
		t.Errorf("page 1 = % X, want % X", got, wantRow1)
	}

	img := p.Image()
	// Left column of 'A' spans rows 1 to 6.
	for y := 0; y < 8; y++ {
		want := y >= 1 && y <= 6
		if got := bool(img.BitAt(0, y)); got != want {
			t.Errorf("pixel (0, %d) = %v, want %v", y, got, want)
		}
	}
}

func TestScrollOnPanel(t *testing.T) {
	p := ssd1306test.NewPanel(ssd1306.DefaultAddr)
	dev, err := ssd1306.NewI2C(p, nil)
	if err != nil {
		t.Fatalf("NewI2C() error = %v", err)
	}
	term := New(dev, nil)

	// Nine lines: the first one scrolls off the top.
	for i := 0; i < 9; i++ {
		fmt.Fprintf(term, "%d\r\n", i)
	}
	if term.Err() != nil {
		t.Fatalf("Err() = %v", term.Err())
	}
	assertCursor(t, term, Lines-1, 0, 2)
	if p.Offset() != 16 {
		t.Errorf("display offset = %d, want 16", p.Offset())
	}

	// The top of the screen now shows "2".
	img := p.Image()
	glyph2 := []byte{0x42, 0x61, 0x51, 0x49, 0x46}
	for x, col := range glyph2 {
		for y := 0; y < 8; y++ {
			want := col&(1<<uint(y)) != 0
			if got := bool(img.BitAt(x, y)); got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
	// The bottom line, where the cursor is, is blank.
	for x := 0; x < ssd1306.Width; x++ {
		for y := 56; y < 64; y++ {
			if img.BitAt(x, y) {
				t.Fatalf("pixel (%d, %d) lit on the cursor line", x, y)
			}
		}
	}
}

func TestScrollUpRepositionsOnPanel(t *testing.T) {
	p := ssd1306test.NewPanel(ssd1306.DefaultAddr)
	dev, err := ssd1306.NewI2C(p, nil)
	if err != nil {
		t.Fatalf("NewI2C() error = %v", err)
	}
	term := New(dev, nil)

	term.Write([]byte("ab"))
	term.ScrollUp()
	assertCursor(t, term, 0, 0, 1)
	if page, column := p.Cursor(); page != term.Row() || column != 0 {
		t.Fatalf("controller cursor = page %d column %d, want page %d column 0", page, column, term.Row())
	}

	term.Consume('c')
	if term.Err() != nil {
		t.Fatalf("Err() = %v", term.Err())
	}
	want := []byte{0x38, 0x44, 0x44, 0x44, 0x20, 0x00}
	if got := p.Page(1)[:len(want)]; !bytes.Equal(got, want) {
		t.Errorf("page 1 = % X, want % X", got, want)
	}
	// The old top line was cleared by the scroll and stays blank.
	for x, b := range p.Page(0) {
		if b != 0 {
			t.Fatalf("page 0 column %d = 0x%02X, want blank", x, b)
		}
	}
	assertCursor(t, term, 0, 1, 1)
}
