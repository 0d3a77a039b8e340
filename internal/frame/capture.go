package frame

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenCapturer implements Capturer on top of kbinani/screenshot,
// grabbing a screen rectangle and repacking it from RGBA into the
// BGRA8 wire format spec.md's options.json advertises.
type ScreenCapturer struct{}

// CaptureBGRA grabs the (x,y,w,h) screen rectangle and returns it as
// tightly-packed BGRA8.
func (ScreenCapturer) CaptureBGRA(x, y, w, h int) ([]byte, error) {
	rect := image.Rect(x, y, x+w, y+h)
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("frame: capture rect: %w", err)
	}
	return rgbaToBGRA(img), nil
}

// rgbaToBGRA swaps the R and B channels, dropping image.RGBA's stride
// padding so the result is exactly w*h*4 bytes.
func rgbaToBGRA(img *image.RGBA) []byte {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		srcRow := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dstRow := out[y*w*4 : (y+1)*w*4]
		for x := 0; x < w; x++ {
			si := x * 4
			di := x * 4
			dstRow[di+0] = srcRow[si+2] // B
			dstRow[di+1] = srcRow[si+1] // G
			dstRow[di+2] = srcRow[si+0] // R
			dstRow[di+3] = srcRow[si+3] // A
		}
	}
	return out
}
