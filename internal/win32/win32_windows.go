//go:build windows

// Package win32 provides low-level Windows API wrappers using syscall (NO CGO).
// This is the only module allowed to use unsafe operations.
package win32

import (
	"fmt"
	"sync"
	"syscall"
	"unicode/utf16"
	"unsafe"
)

// Lazy-loaded Windows DLLs
var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")
	shell32  = syscall.NewLazyDLL("shell32.dll")
)

// Windows API functions
var (
	procGetForegroundWindow          = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId     = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowTextW               = user32.NewProc("GetWindowTextW")
	procGetLastInputInfo             = user32.NewProc("GetLastInputInfo")
	procGetTickCount                 = kernel32.NewProc("GetTickCount")
	procSHQueryUserNotificationState = shell32.NewProc("SHQueryUserNotificationState")
	procGetWindowRect                = user32.NewProc("GetWindowRect")
	procGetClientRect                = user32.NewProc("GetClientRect")
	procScreenToClient               = user32.NewProc("ScreenToClient")
	procGetDpiForWindow              = user32.NewProc("GetDpiForWindow")
	procGetCursorPos                 = user32.NewProc("GetCursorPos")
	procGetCursorInfo                = user32.NewProc("GetCursorInfo")
	procRegisterRawInputDevices      = user32.NewProc("RegisterRawInputDevices")
	procGetRawInputData              = user32.NewProc("GetRawInputData")
	procCreateWindowExW              = user32.NewProc("CreateWindowExW")
	procDefWindowProcW               = user32.NewProc("DefWindowProcW")
	procDestroyWindow                = user32.NewProc("DestroyWindow")
	procRegisterClassExW             = user32.NewProc("RegisterClassExW")
	procGetMessageW                  = user32.NewProc("GetMessageW")
	procTranslateMessage             = user32.NewProc("TranslateMessage")
	procDispatchMessageW             = user32.NewProc("DispatchMessageW")
	procPostMessageW                 = user32.NewProc("PostMessageW")
	procPostQuitMessage              = user32.NewProc("PostQuitMessage")
	procSetWindowLongPtrW            = user32.NewProc("SetWindowLongPtrW")
	procGetWindowLongPtrW            = user32.NewProc("GetWindowLongPtrW")
)

// LASTINPUTINFO structure for GetLastInputInfo
type LASTINPUTINFO struct {
	CBSize uint32
	DwTime uint32
}

// CURSORINFO structure for GetCursorInfo.
type CURSORINFO struct {
	CBSize  uint32
	Flags   uint32
	HCursor Handle
	PtScreenX, PtScreenY int32
}

const cursorShowing = 0x00000001

// RAWINPUTDEVICE registers a top-level HID collection for raw input.
type RAWINPUTDEVICE struct {
	UsUsagePage uint16
	UsUsage     uint16
	DwFlags     uint32
	HwndTarget  Handle
}

// RAWINPUTHEADER is the common prefix of every RAWINPUT record.
type RAWINPUTHEADER struct {
	DwType uint32
	DwSize uint32
	HDevice Handle
	WParam  uintptr
}

// RAWMOUSE mirrors the subset of the union this collector reads.
type RAWMOUSE struct {
	UsFlags            uint16
	_                  uint16
	UlButtons          uint32
	UsButtonFlags      uint16
	UsButtonData       int16
	UlRawButtons       uint32
	LLastX             int32
	LLastY             int32
	UlExtraInformation uint32
}

// RAWKEYBOARD mirrors the keyboard member of the RAWINPUT union.
type RAWKEYBOARD struct {
	MakeCode         uint16
	Flags            uint16
	Reserved         uint16
	VKey             uint16
	Message          uint32
	ExtraInformation uint32
}

// RAWINPUT is large enough to hold either the mouse or keyboard union
// member following the header.
type RAWINPUT struct {
	Header RAWINPUTHEADER
	Mouse  RAWMOUSE
	// RAWKEYBOARD is narrower than RAWMOUSE; callers reinterpret the same
	// backing bytes via rawInputAsKeyboard when Header.DwType == RimTypeKeyboard.
}

// WNDCLASSEXW registers the hidden message-sink window class.
type WNDCLASSEXW struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     Handle
	HIcon         Handle
	HCursor       Handle
	HbrBackground Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       Handle
}

// MSG is the Win32 message struct GetMessage/DispatchMessage operate on.
type MSG struct {
	Hwnd    Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// TextBufferPool manages reusable buffers for window text to minimize allocations
type TextBufferPool struct {
	pool sync.Pool
}

// NewTextBufferPool creates a new pool of text buffers
func NewTextBufferPool() *TextBufferPool {
	return &TextBufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				// Allocate buffer for 512 UTF-16 characters (1024 bytes)
				// This should cover most window titles
				buf := make([]uint16, 512)
				return buf
			},
		},
	}
}

// Get retrieves a buffer from the pool
func (p *TextBufferPool) Get() []uint16 {
	return p.pool.Get().([]uint16)
}

// Put returns a buffer to the pool
func (p *TextBufferPool) Put(buf []uint16) {
	p.pool.Put(buf)
}

// Global text buffer pool for window titles
var textBufferPool = NewTextBufferPool()

// GetForegroundWindow retrieves the handle to the foreground window.
// Returns 0 if no foreground window exists (e.g., workstation locked).
func GetForegroundWindow() (Handle, error) {
	ret, _, err := procGetForegroundWindow.Call()
	if ret == 0 {
		return 0, fmt.Errorf("no foreground window: %w", err)
	}
	return Handle(ret), nil
}

// GetWindowThreadProcessId retrieves the identifier of the thread
// that created the specified window and, optionally, the identifier
// of the process that created the window.
func GetWindowThreadProcessId(hwnd Handle) (uint32, uint32, error) {
	var pid uint32
	ret, _, err := procGetWindowThreadProcessId.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&pid)),
	)
	if ret == 0 {
		return 0, 0, fmt.Errorf("failed to get thread/process ID: %w", err)
	}
	return uint32(ret), pid, nil
}

// GetWindowText retrieves the text of the specified window's title bar.
// Uses a reusable buffer from the pool to minimize allocations.
func GetWindowText(hwnd Handle) (string, error) {
	buf := textBufferPool.Get()
	defer textBufferPool.Put(buf)

	ret, _, err := procGetWindowTextW.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if ret == 0 {
		return "", fmt.Errorf("failed to get window text: %w", err)
	}

	// Convert UTF-16 to Go string
	// Find null terminator
	length := int(ret)
	if length > len(buf) {
		length = len(buf)
	}

	// Convert to string
	str := syscall.UTF16ToString(buf[:length])
	return str, nil
}

// GetWindowRect retrieves the dimensions of the bounding rectangle of the specified window.
func GetWindowRect(hwnd Handle) (*Rect, error) {
	var rect Rect
	ret, _, err := procGetWindowRect.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&rect)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("failed to get window rect: %w", err)
	}
	return &rect, nil
}

// GetClientRect retrieves a window's client area, in client coordinates
// (Left/Top are always 0).
func GetClientRect(hwnd Handle) (*Rect, error) {
	var rect Rect
	ret, _, err := procGetClientRect.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&rect)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("failed to get client rect: %w", err)
	}
	return &rect, nil
}

// ScreenToClient converts screen coordinates to hwnd's client coordinates.
func ScreenToClient(hwnd Handle, x, y int32) (int32, int32, error) {
	pt := struct{ X, Y int32 }{x, y}
	ret, _, err := procScreenToClient.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&pt)),
	)
	if ret == 0 {
		return 0, 0, fmt.Errorf("ScreenToClient failed: %w", err)
	}
	return pt.X, pt.Y, nil
}

// GetDPIForWindow returns the DPI a window is rendering at. Falls back to
// 96 (100%) on the rare system where GetDpiForWindow is unavailable.
func GetDPIForWindow(hwnd Handle) (float64, error) {
	ret, _, err := procGetDpiForWindow.Call(uintptr(hwnd))
	if ret == 0 {
		return 96, fmt.Errorf("GetDpiForWindow failed: %w", err)
	}
	return float64(ret), nil
}

// GetCursorPos retrieves the screen coordinates of the cursor.
func GetCursorPos() (int32, int32, error) {
	pt := struct{ X, Y int32 }{}
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos failed: %w", err)
	}
	return pt.X, pt.Y, nil
}

// IsCursorVisible reports whether the system cursor is currently shown.
func IsCursorVisible() (bool, error) {
	var ci CURSORINFO
	ci.CBSize = uint32(unsafe.Sizeof(ci))
	ret, _, err := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci)))
	if ret == 0 {
		return false, fmt.Errorf("GetCursorInfo failed: %w", err)
	}
	return ci.Flags&cursorShowing != 0, nil
}

// GetLastInputInfo retrieves the time of the last input event.
// Returns the tick count of the last input event.
func GetLastInputInfo() (uint32, error) {
	var info LASTINPUTINFO
	info.CBSize = uint32(unsafe.Sizeof(info))

	ret, _, err := procGetLastInputInfo.Call(
		uintptr(unsafe.Pointer(&info)),
	)
	if ret == 0 {
		return 0, fmt.Errorf("failed to get last input info: %w", err)
	}

	return info.DwTime, nil
}

// GetTickCount retrieves the number of milliseconds that have elapsed
// since the system was started.
func GetTickCount() uint32 {
	ret, _, _ := procGetTickCount.Call()
	return uint32(ret)
}

// GetIdleTime returns the number of milliseconds since the last input event.
func GetIdleTime() (uint32, error) {
	lastInput, err := GetLastInputInfo()
	if err != nil {
		return 0, err
	}

	current := GetTickCount()

	// Handle tick count overflow (approximately every 49.7 days)
	if current < lastInput {
		// Tick count wrapped around
		current += 0xFFFFFFFF
	}

	return current - lastInput, nil
}

// QueryUserNotificationState retrieves the current state of the user notification system.
// This is used for "Smart Full Stop" - detecting games and Do Not Disturb mode.
func QueryUserNotificationState() (uint32, error) {
	var state uint32
	ret, _, err := procSHQueryUserNotificationState.Call(
		uintptr(unsafe.Pointer(&state)),
	)
	if ret != 0 {
		return 0, fmt.Errorf("SHQueryUserNotificationState failed: %w", err)
	}

	return state, nil
}

// IsGameRunning checks if a full-screen DirectX/OpenGL game is running.
// This implements the "Smart Full Stop" feature.
func IsGameRunning() (bool, error) {
	state, err := QueryUserNotificationState()
	if err != nil {
		return false, err
	}

	// QunsRunningD3DFullScreen (3) indicates a full-screen game
	return state == QunsRunningD3DFullScreen, nil
}

// IsBusy checks if the user is in a busy state (e.g., presentation mode).
func IsBusy() (bool, error) {
	state, err := QueryUserNotificationState()
	if err != nil {
		return false, err
	}

	// QunsBusy (2) indicates busy state
	return state == QunsBusy, nil
}

// UTF16ToString converts a UTF-16 byte slice to a Go string.
// This is a helper function that handles null termination.
func UTF16ToString(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			return string(utf16.Decode(s[:i]))
		}
	}
	return string(utf16.Decode(s))
}

// ---- raw input message-sink window ----
//
// RegisterRawInputDevices delivers WM_INPUT only to a window's message
// queue, so receiving raw mouse/keyboard input requires a real (if
// invisible) HWND and a message loop. MessageSink owns both; the
// gwlpUserdata slot on the HWND carries a pointer back to the Go struct
// so the trampoline window procedure can recover it (the same pattern the
// stdlib's own syscall callbacks use for C-callable function pointers).

const gwlpUserdata = ^uintptr(20) // GWLP_USERDATA (-21) as a two's-complement uintptr

var msgSinkClassName = syscall.StringToUTF16Ptr("VlmCollectorMessageSink")

// RawInputHandler receives one decoded raw input record per WM_INPUT
// message. Implementations must not block: the handler runs on the
// message-pump goroutine.
type RawInputHandler interface {
	HandleMouse(m *RAWMOUSE)
	HandleKeyboard(k *RAWKEYBOARD)
}

// MessageSink is a hidden window that registers for raw mouse/keyboard
// input and pumps WM_INPUT messages to a RawInputHandler until Close is
// called or the window receives WM_NCDESTROY.
type MessageSink struct {
	hwnd    Handle
	handler RawInputHandler
	done    chan struct{}
}

var (
	classRegisterOnce sync.Once
	classRegisterErr  error
)

func registerMessageSinkClass() error {
	classRegisterOnce.Do(func() {
		wc := WNDCLASSEXW{
			LpfnWndProc:   syscall.NewCallback(messageSinkWndProc),
			LpszClassName: msgSinkClassName,
		}
		wc.CbSize = uint32(unsafe.Sizeof(wc))
		ret, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		if ret == 0 {
			classRegisterErr = fmt.Errorf("RegisterClassExW failed: %w", err)
		}
	})
	return classRegisterErr
}

// HWND_MESSAGE: a message-only window, never shown, never receives
// keyboard/mouse focus from the shell.
const hwndMessage = ^uintptr(0) - 2

// NewMessageSink creates the hidden window and registers it for raw
// mouse and keyboard input with RIDEV_INPUTSINK, so events keep arriving
// even while the target application has focus instead of this process.
func NewMessageSink(handler RawInputHandler) (*MessageSink, error) {
	if err := registerMessageSinkClass(); err != nil {
		return nil, err
	}
	sink := &MessageSink{handler: handler, done: make(chan struct{})}

	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(msgSinkClassName)),
		0,
		0, 0, 0, 0, 0,
		hwndMessage,
		0, 0, 0,
	)
	if hwnd == 0 {
		return nil, fmt.Errorf("CreateWindowExW failed: %w", err)
	}
	sink.hwnd = Handle(hwnd)

	procSetWindowLongPtrW.Call(uintptr(sink.hwnd), gwlpUserdata, uintptr(unsafe.Pointer(sink)))

	devices := [2]RAWINPUTDEVICE{
		{UsUsagePage: HIDUsagePageGeneric, UsUsage: HIDUsageGenericMouse, DwFlags: RIDEVInputSink, HwndTarget: sink.hwnd},
		{UsUsagePage: HIDUsagePageGeneric, UsUsage: HIDUsageGenericKeyboard, DwFlags: RIDEVInputSink, HwndTarget: sink.hwnd},
	}
	ret, _, err := procRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&devices[0])),
		uintptr(len(devices)),
		unsafe.Sizeof(devices[0]),
	)
	if ret == 0 {
		procDestroyWindow.Call(uintptr(sink.hwnd))
		return nil, fmt.Errorf("RegisterRawInputDevices failed: %w", err)
	}
	return sink, nil
}

// Run pumps the message sink's queue until Close is called. It must run
// on a single dedicated goroutine locked to its OS thread (Win32 message
// queues are thread-affine).
func (s *MessageSink) Run() {
	var msg MSG
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), uintptr(s.hwnd), 0, 0)
		if ret == 0 || int32(ret) == -1 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
	close(s.done)
}

// Close requests the message loop exit and destroys the hidden window.
func (s *MessageSink) Close() {
	procPostMessageW.Call(uintptr(s.hwnd), WMClose, 0, 0)
	<-s.done
}

func messageSinkWndProc(hwnd Handle, msg uint32, wparam, lparam uintptr) uintptr {
	switch msg {
	case WMInput:
		userdata, _, _ := procGetWindowLongPtrW.Call(uintptr(hwnd), gwlpUserdata)
		if userdata != 0 {
			sink := (*MessageSink)(unsafe.Pointer(userdata))
			sink.dispatchRawInput(lparam)
		}
		return 0
	case WMClose:
		procDestroyWindow.Call(uintptr(hwnd))
		return 0
	case WMNCDestroy, WMDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	return ret
}

// dispatchRawInput reads one RAWINPUT record named by an lParam
// HRAWINPUT handle and forwards the decoded mouse/keyboard payload to
// the registered handler.
func (s *MessageSink) dispatchRawInput(lparam uintptr) {
	var size uint32
	procGetRawInputData.Call(lparam, RIDInput, 0, uintptr(unsafe.Pointer(&size)), unsafe.Sizeof(RAWINPUTHEADER{}))
	if size == 0 {
		return
	}
	buf := make([]byte, size)
	got, _, _ := procGetRawInputData.Call(
		lparam, RIDInput,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		unsafe.Sizeof(RAWINPUTHEADER{}),
	)
	if int32(got) <= 0 {
		return
	}
	header := (*RAWINPUTHEADER)(unsafe.Pointer(&buf[0]))
	payload := buf[unsafe.Sizeof(RAWINPUTHEADER{}):]
	switch header.DwType {
	case RimTypeMouse:
		if len(payload) >= int(unsafe.Sizeof(RAWMOUSE{})) {
			s.handler.HandleMouse((*RAWMOUSE)(unsafe.Pointer(&payload[0])))
		}
	case RimTypeKeyboard:
		if len(payload) >= int(unsafe.Sizeof(RAWKEYBOARD{})) {
			s.handler.HandleKeyboard((*RAWKEYBOARD)(unsafe.Pointer(&payload[0])))
		}
	}
}
