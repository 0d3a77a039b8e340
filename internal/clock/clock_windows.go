//go:build windows

package clock

import (
	"sync"
	"syscall"
	"unsafe"

	"vlmcollector/internal/model"
)

var (
	kernel32                    = syscall.NewLazyDLL("kernel32.dll")
	procQueryPerformanceCounter = kernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFreq    = kernel32.NewProc("QueryPerformanceFrequency")
)

// QPC wraps the Windows high-resolution performance counter.
type QPC struct {
	once sync.Once
	freq uint64
}

// NewQPC returns a Clock backed by QueryPerformanceCounter/Frequency.
func NewQPC() *QPC {
	return &QPC{}
}

func (q *QPC) Now() model.Tick {
	var counter int64
	procQueryPerformanceCounter.Call(uintptr(unsafe.Pointer(&counter)))
	return model.Tick(counter)
}

func (q *QPC) Frequency() uint64 {
	q.once.Do(func() {
		var freq int64
		procQueryPerformanceFreq.Call(uintptr(unsafe.Pointer(&freq)))
		q.freq = uint64(freq)
	})
	return q.freq
}
