//go:build !windows

package win32

import (
	"errors"
	"unicode/utf16"
)

// ErrUnsupported is returned by every OS-backed call on non-Windows
// builds, mirroring the original collector's non-Windows stub (raw input
// and foreground-window queries are Windows-only concepts).
var ErrUnsupported = errors.New("win32: not supported on this platform")

func GetForegroundWindow() (Handle, error) {
	return 0, ErrUnsupported
}

func GetWindowThreadProcessId(hwnd Handle) (uint32, uint32, error) {
	return 0, 0, ErrUnsupported
}

func GetWindowText(hwnd Handle) (string, error) {
	return "", ErrUnsupported
}

func GetWindowRect(hwnd Handle) (*Rect, error) {
	return nil, ErrUnsupported
}

func GetClientRect(hwnd Handle) (*Rect, error) {
	return nil, ErrUnsupported
}

func GetLastInputInfo() (uint32, error) {
	return 0, ErrUnsupported
}

func GetTickCount() uint32 {
	return 0
}

func GetIdleTime() (uint32, error) {
	return 0, ErrUnsupported
}

func QueryUserNotificationState() (uint32, error) {
	return 0, ErrUnsupported
}

func IsGameRunning() (bool, error) {
	return false, nil
}

func IsBusy() (bool, error) {
	return false, nil
}

func UTF16ToString(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			return string(utf16.Decode(s[:i]))
		}
	}
	return string(utf16.Decode(s))
}

// ScreenToClient and GetDPIForWindow have no meaning off Windows; callers
// (internal/geometry consumers) only invoke them from Windows-only code
// paths, so the stubs exist purely to keep the package compiling.
func ScreenToClient(hwnd Handle, x, y int32) (int32, int32, error) {
	return 0, 0, ErrUnsupported
}

func GetDPIForWindow(hwnd Handle) (float64, error) {
	return 96, ErrUnsupported
}

func GetCursorPos() (int32, int32, error) {
	return 0, 0, ErrUnsupported
}

func IsCursorVisible() (bool, error) {
	return false, ErrUnsupported
}
