package address

import (
	"slices"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a    Address
		b    Address
		want int
	}{
		{name: "equal", a: New(Main, 0, 3), b: New(Main, 0, 3), want: 0},
		{name: "index", a: New(Main, 0, 2), b: New(Main, 0, 3), want: -1},
		{name: "block before index", a: New(Mission, 1, 0), b: New(Mission, 0, 99), want: 1},
		{name: "kind before block", a: New(Main, 0, 500), b: New(Mission, 0, 0), want: -1},
		{name: "streamed last", a: New(Streamed, 0, 0), b: New(Mission, 7, 7), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
			assert.Equal(t, tt.want < 0, tt.a.Less(tt.b))
		})
	}
}

func TestOrderIsStrictTotal(t *testing.T) {
	var all []Address
	for _, kind := range []Kind{Main, Mission, Streamed} {
		for block := range 3 {
			for index := range 3 {
				all = append(all, New(kind, block, index))
			}
		}
	}

	for _, a := range all {
		assert.False(t, a.Less(a))
		for _, b := range all {
			if a == b {
				continue
			}
			assert.True(t, a.Less(b) != b.Less(a))
			for _, c := range all {
				if a.Less(b) && b.Less(c) {
					assert.True(t, a.Less(c))
				}
			}
		}
	}

	shuffled := slices.Clone(all)
	slices.Reverse(shuffled)
	slices.SortFunc(shuffled, Address.Compare)
	assert.Equal(t, all, shuffled)
}

func TestNext(t *testing.T) {
	a := New(Mission, 2, 4)
	next := a.Next()

	assert.Equal(t, New(Mission, 2, 5), next)
	assert.True(t, a.SameBlock(next))
	assert.False(t, a.SameBlock(New(Mission, 3, 5)))
	assert.Equal(t, "mission:2:4", a.String())
}
