package bitbang

import (
	"time"

	"periph.io/x/host/v3/cpu"
)

// Spin waits for d with periph's cpu.Nanospin. It is the default step
// delay; periph expects steps of 10µs or less.
func Spin(d time.Duration) {
	if d <= 0 {
		return
	}
	cpu.Nanospin(d)
}

// Sleep waits for d with time.Sleep. It is far coarser than Spin on most
// hosts and only suits slow buses.
func Sleep(d time.Duration) {
	time.Sleep(d)
}
