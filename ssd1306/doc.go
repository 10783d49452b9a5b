// Package ssd1306 drives a 128x64 SSD1306 OLED controller as a text surface
// over a two-wire bus.
//
// The driver only speaks the write half of the controller protocol: every
// session is the bus address, a control byte (0x00 for a command stream, 0x40
// for display RAM data) and the payload. Nothing is read back.
//
// # Display Characteristics
//
// - Monochrome, 128×64 pixels
// - Display RAM split into 8 pages of 8 pixel rows each
// - Page addressing mode: each data byte fills one column of the current page
// - Hardware display offset used for vertical scrolling
//
// # Hardware Connection
//
// Connect the SSD1306 module to two GPIO lines with pull-up resistors:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCL         → GPIO (clock, open drain)
//	SDA         → GPIO (data, open drain)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/host/v3"
//		"github.com/flavioheleno/tinyterm/bitbang"
//		"github.com/flavioheleno/tinyterm/ssd1306"
//	)
//
//	func main() {
//		host.Init()
//
//		bus, _ := bitbang.New(gpioreg.ByName("GPIO2"), gpioreg.ByName("GPIO3"), nil)
//		defer bus.Close()
//
//		dev, _ := ssd1306.NewI2C(bus, nil)
//		defer dev.Halt()
//
//		dev.ClearScreen()
//		dev.SetLine(0)
//		for _, c := range []byte("Hello") {
//			dev.PlotGlyph(c)
//		}
//	}
//
// # Text Layout
//
// PlotGlyph writes a 5-column glyph plus a blank column, so a page holds 21
// characters (126 pixels) with 2 columns to spare. The write cursor advances
// by itself; SetLine moves it to column 0 of another page.
//
// # Scrolling
//
// ScrollUp clears the page at the top of the window and bumps the display
// offset by one page, so the cleared page reappears at the bottom. No other
// page is rewritten:
//
//	offset := 0
//	offset, _ = dev.ScrollUp(offset)
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
package ssd1306
