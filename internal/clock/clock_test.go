package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vlmcollector/internal/model"
)

func TestVirtualAdvance(t *testing.T) {
	v := NewVirtual(1_000_000)
	assert.Equal(t, model.Tick(0), v.Now())
	assert.Equal(t, model.Tick(500), v.Advance(500))
	assert.Equal(t, model.Tick(500), v.Now())
	v.Set(1000)
	assert.Equal(t, model.Tick(1000), v.Now())
}

func TestVirtualDefaultFrequency(t *testing.T) {
	v := NewVirtual(0)
	assert.Equal(t, uint64(1_000_000), v.Frequency())
}

func TestStepTicks(t *testing.T) {
	v := NewVirtual(1_000_000)
	assert.Equal(t, uint64(200_000), StepTicks(v, 200))
}

func TestStepTicksMinimumOne(t *testing.T) {
	v := NewVirtual(1)
	assert.Equal(t, uint64(1), StepTicks(v, 200))
}

func TestStepTicksDefaultStepMs(t *testing.T) {
	v := NewVirtual(1_000_000)
	assert.Equal(t, StepTicks(v, model.StepMsDefault), StepTicks(v, 0))
}
