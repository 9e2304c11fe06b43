package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandStreamsReproducible(t *testing.T) {
	a := SetSeedDevice(10, nil)
	b := SetSeedDevice(10, nil)

	for _, stream := range []string{"data", "loader", "model"} {
		ra, rb := a.Rand(stream), b.Rand(stream)
		for i := 0; i < 16; i++ {
			assert.Equal(t, ra.Int63(), rb.Int63(), stream)
		}
	}
}

func TestRandStreamsIndependent(t *testing.T) {
	d := SetSeedDevice(10, nil)
	assert.NotEqual(t, d.Rand("data").Int63(), d.Rand("model").Int63())

	other := SetSeedDevice(11, nil)
	assert.NotEqual(t, d.Rand("data").Int63(), other.Rand("data").Int63())
}

func TestDerive(t *testing.T) {
	d := SetSeedDevice(3, nil)
	assert.Equal(t, d.Derive("disc", 0), d.Derive("disc", 0))
	assert.NotEqual(t, d.Derive("disc", 0), d.Derive("disc", 1))
}

func TestString(t *testing.T) {
	d := SetSeedDevice(1, nil)
	assert.NotEmpty(t, d.String())
}
