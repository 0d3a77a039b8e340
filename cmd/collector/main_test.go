package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHWNDEmpty(t *testing.T) {
	v, err := parseHWND("")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
}

func TestParseHWNDDecimal(t *testing.T) {
	v, err := parseHWND("12345")
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), v)
}

func TestParseHWNDHex(t *testing.T) {
	v, err := parseHWND("0x1A2B")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1A2B), v)
}

func TestParseHWNDInvalid(t *testing.T) {
	_, err := parseHWND("not-a-number")
	assert.Error(t, err)
}
