package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeTRSRotatesThenTranslates(t *testing.T) {
	s := float32(math.Sqrt2 / 2)
	var m [16]float32
	// quarter turn about Z
	ComposeTRS(m[:], [3]float32{5, 0, 0}, [4]float32{0, 0, s, s}, UnitScale)

	// x axis maps to y
	assert.InDelta(t, 0, m[0], 1e-6)
	assert.InDelta(t, 1, m[1], 1e-6)
	assert.Equal(t, float32(5), m[12])
	assert.Equal(t, float32(1), m[15])
}

func TestMul4WithIdentity(t *testing.T) {
	var id, m, out [16]float32
	ComposeTRS(id[:], [3]float32{}, IdentityRotation, UnitScale)
	ComposeTRS(m[:], [3]float32{1, 2, 3}, IdentityRotation, [3]float32{2, 3, 4})

	Mul4(out[:], id[:], m[:])
	assert.Equal(t, m, out)

	Mul4(out[:], m[:], id[:])
	assert.Equal(t, m, out)
}
