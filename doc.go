// Package tinyterm turns a 128x64 SSD1306 OLED into a scrolling text
// console fed by a byte stream.
//
// The console has 8 lines of 21 characters drawn with a 5x7 font. Printable
// ASCII is drawn at the cursor, long lines wrap, and reaching past the last
// line scrolls the screen using the controller's display offset instead of
// redrawing it. Line feed and BEL sound a buzzer.
//
// # Architecture
//
// The stack is split in small packages that can be used on their own:
//
//	byte source → tinyterm.Terminal → ssd1306.Dev → bitbang.Bus → GPIO
//	                     ↓
//	               buzzer.Pin / sound.Speaker
//
// bitbang.Bus implements periph.io's i2c.Bus, so ssd1306.Dev also runs on a
// hardware I²C controller. ssd1306.NewTinyGo takes a TinyGo drivers.I2C
// instead, and tinyterm.Terminal draws on anything that
// implements Display.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"io"
//		"os"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/host/v3"
//		"github.com/flavioheleno/tinyterm"
//		"github.com/flavioheleno/tinyterm/bitbang"
//		"github.com/flavioheleno/tinyterm/buzzer"
//		"github.com/flavioheleno/tinyterm/ssd1306"
//	)
//
//	func main() {
//		host.Init()
//
//		bus, _ := bitbang.New(gpioreg.ByName("GPIO2"), gpioreg.ByName("GPIO3"), nil)
//		dev, _ := ssd1306.NewI2C(bus, nil)
//		bz, _ := buzzer.NewPin(gpioreg.ByName("GPIO18"), nil)
//
//		term := tinyterm.New(dev, &tinyterm.Opts{Beeper: bz})
//		io.Copy(term, os.Stdin)
//	}
//
// # Control Characters
//
// Input is 7-bit: the top bit of every byte is cleared first.
//
//	0x07 BEL  beep
//	0x0A LF   start of next line (scrolling if needed), beep
//	0x0D CR   start of current line
//
// Other control characters are dropped.
//
// # Errors
//
// The terminal keeps going whatever the display does. Write never fails;
// the first display error is logged and kept for Err. The cursor stays in
// range no matter how much is written.
package tinyterm
