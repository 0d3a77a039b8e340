package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLetterboxSquareIntoWide(t *testing.T) {
	lb, ok := ComputeLetterbox(100, 100, 200, 100)
	require.True(t, ok)
	assert.InDelta(t, 1.0, lb.Scale, 1e-9)
	assert.Equal(t, 100, lb.ScaledW)
	assert.Equal(t, 100, lb.ScaledH)
	assert.InDelta(t, 50.0, lb.PadX, 1e-9)
	assert.InDelta(t, 0.0, lb.PadY, 1e-9)
}

func TestComputeLetterboxZeroDims(t *testing.T) {
	_, ok := ComputeLetterbox(0, 100, 200, 100)
	assert.False(t, ok)
	_, ok = ComputeLetterbox(100, 100, 0, 0)
	assert.False(t, ok)
}

func TestComputeLetterboxRoundsToAtLeastOne(t *testing.T) {
	lb, ok := ComputeLetterbox(1000, 1, 10, 10)
	require.True(t, ok)
	assert.GreaterOrEqual(t, lb.ScaledH, 1)
}

// TestSampleAgreesWithLetterbox exercises P9: the cursor's mapped record
// point should match where LetterboxBGRA would place the same source
// pixel, up to nearest-neighbor rounding.
func TestSampleAgreesWithLetterbox(t *testing.T) {
	srcW, srcH := 1920, 1080
	recordW, recordH := 1280, 720

	lb, ok := ComputeLetterbox(srcW, srcH, recordW, recordH)
	require.True(t, ok)

	// A client point dead center of a 1920x1080 client at 96 DPI (no
	// scaling) maps to the center of the source, which by symmetry must
	// land at the center of the scaled+padded record region.
	w := WindowGeometry{
		IsForeground:  true,
		CursorVisible: true,
		ClientX:       int32(srcW / 2),
		ClientY:       int32(srcH / 2),
		ClientW:       int32(srcW),
		ClientH:       int32(srcH),
		DPI:           96,
	}
	_, cursor, dbg := Sample(w, srcW, srcH, recordW, recordH)
	require.NotNil(t, dbg)

	wantX := (float64(srcW/2))*lb.Scale + lb.PadX
	wantY := (float64(srcH/2))*lb.Scale + lb.PadY
	assert.InDelta(t, wantX, dbg.RecordX, 1.0)
	assert.InDelta(t, wantY, dbg.RecordY, 1.0)

	assert.InDelta(t, wantX/float64(recordW), float64(cursor.XNorm), 0.01)
	assert.InDelta(t, wantY/float64(recordH), float64(cursor.YNorm), 0.01)
}

// TestSampleClampsNormalizedCoords covers P8: x_norm/y_norm must always
// land in [0,1], even for cursor positions far outside the client rect.
func TestSampleClampsNormalizedCoords(t *testing.T) {
	w := WindowGeometry{
		IsForeground: true,
		ClientX:      100_000,
		ClientY:      -100_000,
		ClientW:      800,
		ClientH:      600,
		DPI:          96,
	}
	_, cursor, _ := Sample(w, 800, 600, 1280, 720)
	assert.GreaterOrEqual(t, cursor.XNorm, float32(0))
	assert.LessOrEqual(t, cursor.XNorm, float32(1))
	assert.GreaterOrEqual(t, cursor.YNorm, float32(0))
	assert.LessOrEqual(t, cursor.YNorm, float32(1))
}

func TestSampleZeroDimsReturnsZeroCursor(t *testing.T) {
	w := WindowGeometry{IsForeground: true, ClientW: 0, ClientH: 0}
	isFg, cursor, dbg := Sample(w, 800, 600, 1280, 720)
	assert.False(t, isFg)
	assert.False(t, cursor.Visible)
	assert.Equal(t, float32(0), cursor.XNorm)
	assert.Equal(t, float32(0), cursor.YNorm)
	assert.Nil(t, dbg)
}

func TestSampleDPICompensation(t *testing.T) {
	// At 2x DPI, a client-space point of (200,200) should map to the
	// same source point as (100,100) would at 1x DPI.
	base := WindowGeometry{
		IsForeground: true,
		ClientX:      100, ClientY: 100,
		ClientW: 800, ClientH: 600,
		DPI: 96,
	}
	scaled := WindowGeometry{
		IsForeground: true,
		ClientX:      200, ClientY: 200,
		ClientW: 800, ClientH: 600,
		DPI: 192,
	}
	_, c1, _ := Sample(base, 800, 600, 1280, 720)
	_, c2, _ := Sample(scaled, 800, 600, 1280, 720)
	assert.InDelta(t, float64(c1.XNorm), float64(c2.XNorm), 0.001)
	assert.InDelta(t, float64(c1.YNorm), float64(c2.YNorm), 0.001)
}

func TestLetterboxBGRAZeroesPadding(t *testing.T) {
	src := make([]byte, 2*2*4)
	for i := range src {
		src[i] = 0xFF
	}
	// 2x2 into 8x4 leaves padding on the left/right.
	dst := make([]byte, 8*4*4)
	LetterboxBGRA(src, 2, 2, dst, 8, 4)
	// (0,0) falls in the left pad region.
	assert.Equal(t, byte(0), dst[0])
}
