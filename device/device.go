package device

import "fmt"
import "hash/fnv"
import "math/rand"
import "runtime"
import "strings"

import "github.com/klauspost/cpuid/v2"
import "github.com/sirupsen/logrus"

// Device is the seeded execution context of a run.
type Device struct {
	Seed int64

	// CUDA is set when a CUDA device was found. Graph execution stays on the
	// CPU unless the binary is built with the cuda tag.
	CUDA     bool
	CUDAName string

	Threads int
}

// SetSeedDevice creates a fresh device for seed. Calling it again with the
// same seed resets every random stream to its initial state.
func SetSeedDevice(seed int64, log logrus.FieldLogger) *Device {
	d := &Device{
		Seed:    seed,
		Threads: runtime.NumCPU(),
	}
	if name, ok := probeCUDA(); ok {
		d.CUDA = true
		d.CUDAName = name
		if log != nil {
			log.Info("cuda is available")
		}
	}
	return d
}

// Rand returns the random stream named stream. Streams with different names
// are independent, streams with the same name and seed are identical.
func (d *Device) Rand(stream string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(stream))
	return rand.New(rand.NewSource(d.Seed ^ int64(h.Sum64())))
}

// Derive returns the seed of the i-th repetition of stream.
func (d *Device) Derive(stream string, i int) int64 {
	return d.Rand(fmt.Sprintf("%s/%d", stream, i)).Int63()
}

func (d *Device) String() string {
	if d.CUDA {
		return "cuda:0 (" + d.CUDAName + ")"
	}
	var features []string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.AVX2, "avx2"},
		{cpuid.FMA3, "fma3"},
		{cpuid.AVX512F, "avx512f"},
	} {
		if cpuid.CPU.Supports(f.id) {
			features = append(features, f.name)
		}
	}
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = runtime.GOARCH
	}
	return fmt.Sprintf("cpu (%s, %d threads, [%s])", brand, d.Threads, strings.Join(features, " "))
}
