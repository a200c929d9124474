// Package rng provides the seedable random number capability used by the
// resampling driver and the probability transforms.
//
// An *Rng is not safe for concurrent use. Use Derive to hand independent,
// reproducible streams to workers.
package rng

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrInvalidArgument is returned for invalid sizes, populations or weights.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultSeed is the seed used by Default.
const DefaultSeed uint64 = 0

// pcgIncrement is the fixed PCG stream selector paired with every seed.
const pcgIncrement uint64 = 0xda3e39cb94b95bdb

// Rng wraps a *rand.Rand together with the seed it was created from.
type Rng struct {
	src  *rand.Rand
	seed uint64
}

// New returns a generator seeded with seed. Equal seeds give equal streams.
func New(seed uint64) *Rng {
	return &Rng{
		src:  rand.New(rand.NewPCG(seed, pcgIncrement)),
		seed: seed,
	}
}

// Default returns a generator seeded with DefaultSeed.
func Default() *Rng {
	return New(DefaultSeed)
}

// Wrap adopts an existing *rand.Rand. The stream is shared with the caller.
func Wrap(src *rand.Rand) *Rng {
	return &Rng{src: src, seed: src.Uint64()}
}

// From returns a generator sharing other's stream. A nil other yields Default().
func From(other *Rng) *Rng {
	if other == nil {
		return Default()
	}

	return &Rng{src: other.src, seed: other.seed}
}

// Seed returns the seed the generator was created from.
func (r *Rng) Seed() uint64 {
	return r.seed
}

// Derive returns an independent generator for the given stream id. The result
// depends only on the parent seed and stream, never on how much of the parent
// stream has been consumed.
func (r *Rng) Derive(stream uint64) *Rng {
	return New(DeriveSeed(r.seed, stream))
}

// DeriveSeed mixes a parent seed and a stream identifier with a SplitMix64 finalizer.
func DeriveSeed(parent, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return x
}

// Random returns n uniform values in [0, 1).
func (r *Rng) Random(n int) []float64 {
	out := make([]float64, n)

	for i := range out {
		out[i] = r.src.Float64()
	}

	return out
}

// Uniform returns n uniform values in [low, high).
func (r *Rng) Uniform(low, high float64, n int) []float64 {
	out := r.Random(n)

	for i, u := range out {
		out[i] = low + (high-low)*u
	}

	return out
}

// StandardNormal returns n draws from N(0, 1).
func (r *Rng) StandardNormal(n int) []float64 {
	out := make([]float64, n)

	for i := range out {
		out[i] = r.src.NormFloat64()
	}

	return out
}

// Normal returns n draws from N(mu, sigma²).
func (r *Rng) Normal(mu, sigma float64, n int) []float64 {
	out := r.StandardNormal(n)

	for i, z := range out {
		out[i] = mu + sigma*z
	}

	return out
}

// IntN returns a uniform integer in [0, n).
func (r *Rng) IntN(n int) int {
	return r.src.IntN(n)
}

// Choice draws size indices from [0, population). With replace == false no
// index repeats. Weights, when non-nil, must have length population, be
// non-negative and have a positive sum; they need not be normalized.
func (r *Rng) Choice(population, size int, replace bool, weights []float64) ([]int, error) {
	if population < 0 || size < 0 {
		return nil, fmt.Errorf("%w: population %d, size %d", ErrInvalidArgument, population, size)
	}

	if !replace && size > population {
		return nil, fmt.Errorf("%w: cannot take %d of %d without replacement", ErrInvalidArgument, size, population)
	}

	if size > 0 && population == 0 {
		return nil, fmt.Errorf("%w: empty population", ErrInvalidArgument)
	}

	if weights == nil {
		return r.choiceUniform(population, size, replace), nil
	}

	err := checkWeights(weights, population)
	if err != nil {
		return nil, err
	}

	if replace {
		return r.choiceWeighted(weights, size), nil
	}

	return r.choiceWeightedNoReplace(weights, size)
}

func (r *Rng) choiceUniform(population, size int, replace bool) []int {
	if !replace {
		return r.src.Perm(population)[:size]
	}

	out := make([]int, size)

	for i := range out {
		out[i] = r.src.IntN(population)
	}

	return out
}

func (r *Rng) choiceWeighted(weights []float64, size int) []int {
	cdf := make([]float64, len(weights))
	floats.CumSum(cdf, weights)
	total := cdf[len(cdf)-1]
	out := make([]int, size)

	for i := range out {
		u := r.src.Float64() * total
		// First bin whose cumulative weight exceeds u; zero-weight bins are never chosen.
		idx := sort.Search(len(cdf), func(k int) bool { return cdf[k] > u })
		out[i] = min(idx, len(cdf)-1)
	}

	return out
}

func (r *Rng) choiceWeightedNoReplace(weights []float64, size int) ([]int, error) {
	sampler := sampleuv.NewWeighted(weights, r.src)
	out := make([]int, 0, size)

	for range size {
		idx, ok := sampler.Take()
		if !ok {
			return nil, fmt.Errorf("%w: fewer non-zero weights than requested draws", ErrInvalidArgument)
		}

		out = append(out, idx)
	}

	return out, nil
}

func checkWeights(weights []float64, population int) error {
	if len(weights) != population {
		return fmt.Errorf("%w: %d weights for population %d", ErrInvalidArgument, len(weights), population)
	}

	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %v", ErrInvalidArgument, w)
		}
	}

	if population > 0 && floats.Sum(weights) <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidArgument)
	}

	return nil
}

// Permutation returns a random permutation of [0, n).
func (r *Rng) Permutation(n int) []int {
	return r.src.Perm(n)
}

// Shuffle randomizes the order of n elements through swap.
func (r *Rng) Shuffle(n int, swap func(i, j int)) {
	r.src.Shuffle(n, swap)
}

// UniformSphere returns n unit vectors distributed uniformly on the sphere.
func (r *Rng) UniformSphere(n int) [][3]float64 {
	cosTheta := r.Uniform(-1, 1, n)
	phi := r.Uniform(0, 2*math.Pi, n)
	out := make([][3]float64, n)

	for i := range out {
		sinTheta := math.Sqrt(1 - cosTheta[i]*cosTheta[i])
		out[i] = [3]float64{sinTheta * math.Cos(phi[i]), sinTheta * math.Sin(phi[i]), cosTheta[i]}
	}

	return out
}
