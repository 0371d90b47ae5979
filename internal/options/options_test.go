package options

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestTimerSlots(t *testing.T) {
	opts := NewDecompiler()
	assert.Equal(t, 0, len(opts.TimerSlots()))

	opts.TimerIndex = 32
	slots := opts.TimerSlots()
	assert.Equal(t, 2, len(slots))
	assert.True(t, slots.Contains(32))
	assert.True(t, slots.Contains(33))
}

func TestScopeArrays(t *testing.T) {
	opts := NewDecompiler()
	opts.KnownArrays = []KnownArray{
		{Slot: 528, Type: "INT", Count: 4},
		{Scope: "RIOT2", Slot: 37, Type: "INT", Count: 6},
		{Scope: "RIOT2", Slot: 43, Type: "INT", Count: 6},
	}

	assert.Empty(t, opts.ScopeArrays(""))

	opts.Arrays = true
	assert.Len(t, opts.ScopeArrays(""), 1)
	assert.Len(t, opts.ScopeArrays("RIOT2"), 2)
	assert.Empty(t, opts.ScopeArrays("MISSING"))
}
