//go:build !windows

package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveByTitleUnimplemented(t *testing.T) {
	w, err := ResolveByTitle("anything")
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrTitleResolutionUnsupported)
}

func TestDisplayTargetGeometryHasNoFixedCursor(t *testing.T) {
	tgt := NewDisplayTarget(0)
	geom, err := tgt.Geometry()
	assert := assert.New(t)
	assert.NoError(err)
	assert.True(geom.IsForeground)
	assert.False(geom.CursorVisible)
	assert.Zero(geom.ClientW)
	assert.Zero(geom.ClientH)
}

func TestDisplayTargetRectOutOfRange(t *testing.T) {
	tgt := NewDisplayTarget(-1)
	_, _, _, _, err := tgt.Rect()
	assert.Error(t, err)
}
