// Package geometry implements the single letterbox transform shared by
// frame rescaling and cursor mapping (spec.md §4.4, design note "Geometry
// duplication risk"). Computing scale/pad in two places risks divergence
// that would make the cursor track the wrong sub-pixel; both FrameSource
// and CursorGeometry call through Letterbox.
package geometry

import "vlmcollector/internal/model"

// Letterbox is the uniform-scale-fit transform of a src_w x src_h source
// into a dst_w x dst_h destination, preserving aspect ratio by padding the
// shorter axis.
type Letterbox struct {
	Scale    float64
	PadX     float64
	PadY     float64
	ScaledW  int
	ScaledH  int
}

// ComputeLetterbox derives scale/pad for fitting (srcW,srcH) into
// (dstW,dstH). Scaled dimensions are rounded to at least 1. Returns the
// zero value when any dimension is 0 (callers must check before using it).
func ComputeLetterbox(srcW, srcH, dstW, dstH int) (Letterbox, bool) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Letterbox{}, false
	}
	scaleW := float64(dstW) / float64(srcW)
	scaleH := float64(dstH) / float64(srcH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)
	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}
	padX := float64(dstW-scaledW) / 2
	padY := float64(dstH-scaledH) / 2
	return Letterbox{Scale: scale, PadX: padX, PadY: padY, ScaledW: scaledW, ScaledH: scaledH}, true
}

// LetterboxBGRA copies src (srcW x srcH, BGRA8) into dst (dstW x dstH,
// BGRA8, must be pre-sized), nearest-neighbor sampling the scaled region
// and zeroing the padding, per spec.md §4.3 step (iv).
func LetterboxBGRA(src []byte, srcW, srcH int, dst []byte, dstW, dstH int) {
	for i := range dst {
		dst[i] = 0
	}
	lb, ok := ComputeLetterbox(srcW, srcH, dstW, dstH)
	if !ok {
		return
	}
	for y := 0; y < lb.ScaledH; y++ {
		srcY := y * srcH / lb.ScaledH
		for x := 0; x < lb.ScaledW; x++ {
			srcX := x * srcW / lb.ScaledW
			srcIdx := (srcY*srcW + srcX) * 4
			dstIdx := ((y+int(lb.PadY))*dstW + (x + int(lb.PadX))) * 4
			if srcIdx+4 <= len(src) && dstIdx+4 <= len(dst) {
				copy(dst[dstIdx:dstIdx+4], src[srcIdx:srcIdx+4])
			}
		}
	}
}

// WindowGeometry is the caller-supplied window state CursorGeometry needs:
// foreground status, cursor visibility/position, client rect, and DPI.
type WindowGeometry struct {
	IsForeground bool
	CursorVisible bool
	// CursorScreenX/Y is the raw screen cursor position.
	CursorScreenX, CursorScreenY int32
	// ClientX/Y is CursorScreenX/Y converted to the target's client
	// coordinates (screen-to-client).
	ClientX, ClientY int32
	ClientW, ClientH int32
	DPI              float64
}

// Debug carries the intermediate values of a cursor sample. The
// orchestrator's --debug-cursor log line does not print them; it logs
// only the foreground flag, cursor visibility and the normalized cursor.
type Debug struct {
	DPI                    float64
	ClientX, ClientY       int32
	ClientW, ClientH       float64
	SrcX, SrcY             float64
	SrcW, SrcH             int
	RecordW, RecordH       int
	Scale                  float64
	PadX, PadY             float64
	RecordX, RecordY       float64
}

// Sample implements spec.md §4.4's algorithm: foreground test, cursor
// visibility, client-space conversion, DPI compensation, the shared
// letterbox transform, and normalization with clamping.
func Sample(w WindowGeometry, srcW, srcH, recordW, recordH int) (isForeground bool, cursor model.CursorSample, dbg *Debug) {
	isForeground = w.IsForeground

	// spec.md §4.4: "When record_w, record_h, src_w, src_h, or client
	// dims are 0, return (false, zero cursor)" — regardless of the
	// actual foreground state, since no geometry can be trusted here.
	if recordW <= 0 || recordH <= 0 || srcW <= 0 || srcH <= 0 || w.ClientW <= 0 || w.ClientH <= 0 {
		return false, model.CursorSample{}, nil
	}

	dpiScale := w.DPI / 96.0
	if dpiScale < 0.0001 {
		dpiScale = 0.0001
	}

	scaleX := float64(srcW) / float64(w.ClientW)
	scaleY := float64(srcH) / float64(w.ClientH)
	srcX := (float64(w.ClientX) / dpiScale) * scaleX
	srcY := (float64(w.ClientY) / dpiScale) * scaleY

	lb, ok := ComputeLetterbox(srcW, srcH, recordW, recordH)
	if !ok {
		return false, model.CursorSample{}, nil
	}

	recordX := srcX*lb.Scale + lb.PadX
	recordY := srcY*lb.Scale + lb.PadY

	xNorm := clamp01(recordX / float64(recordW))
	yNorm := clamp01(recordY / float64(recordH))

	cursor = model.CursorSample{
		Visible: w.CursorVisible,
		XNorm:   float32(xNorm),
		YNorm:   float32(yNorm),
	}
	dbg = &Debug{
		DPI: w.DPI, ClientX: w.ClientX, ClientY: w.ClientY,
		ClientW: float64(w.ClientW), ClientH: float64(w.ClientH),
		SrcX: srcX, SrcY: srcY, SrcW: srcW, SrcH: srcH,
		RecordW: recordW, RecordH: recordH,
		Scale: lb.Scale, PadX: lb.PadX, PadY: lb.PadY,
		RecordX: recordX, RecordY: recordY,
	}
	return isForeground, cursor, dbg
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
