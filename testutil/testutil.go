package testutil

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Weight returns a pseudo-random weight in [1, maxWeight].
func (r *RNG) Weight(maxWeight int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return 1 + r.rand.Int63n(maxWeight)
}

// Tuple returns order coordinates drawn uniformly from [0, domain).
func (r *RNG) Tuple(order, domain int) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	coords := make([]uint32, order)
	for m := range coords {
		coords[m] = uint32(r.rand.Intn(domain))
	}
	return coords
}

// ZipfTuple returns order coordinates drawn from a Zipfian distribution
// over [0, domain), so a few attribute values collect most of the mass.
func (r *RNG) ZipfTuple(order, domain int, s float64) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	coords := make([]uint32, order)
	for m := range coords {
		coords[m] = uint32(r.zipfLocked(domain, s))
	}
	return coords
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Op is one mutation of a synthetic stream.
type Op struct {
	Coords []uint32
	Weight int64
	Delete bool
}

// StreamConfig shapes a synthetic stream.
type StreamConfig struct {
	Order      int
	Domain     int
	MaxWeight  int64
	DeleteRate float64
	Ops        int
	// Skew switches coordinates to a Zipfian distribution when > 0.
	Skew float64
}

// Stream generates a mixed insert/delete stream. Deletions pick a live
// tuple and may remove more than its remaining weight.
func (r *RNG) Stream(cfg StreamConfig) []Op {
	live := make(map[string]int64)
	var keys []string
	coordsOf := make(map[string][]uint32)

	ops := make([]Op, 0, cfg.Ops)
	for range cfg.Ops {
		w := r.Weight(cfg.MaxWeight)
		if len(keys) > 0 && r.Float64() < cfg.DeleteRate {
			sort.Strings(keys)
			k := keys[r.Intn(len(keys))]
			ops = append(ops, Op{Coords: coordsOf[k], Weight: w, Delete: true})
			if live[k] -= w; live[k] <= 0 {
				delete(live, k)
				keys = liveKeys(live)
			}
			continue
		}

		var coords []uint32
		if cfg.Skew > 0 {
			coords = r.ZipfTuple(cfg.Order, cfg.Domain, cfg.Skew)
		} else {
			coords = r.Tuple(cfg.Order, cfg.Domain)
		}
		k := Key(coords)
		if _, ok := live[k]; !ok {
			keys = append(keys, k)
			coordsOf[k] = coords
		}
		live[k] += w
		ops = append(ops, Op{Coords: coords, Weight: w})
	}
	return ops
}

func liveKeys(live map[string]int64) []string {
	keys := make([]string, 0, len(live))
	for k := range live {
		keys = append(keys, k)
	}
	return keys
}

// Key renders coordinates as a comparable string.
func Key(coords []uint32) string {
	b := make([]byte, 0, 4*len(coords))
	for i, a := range coords {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(a), 10)
	}
	return string(b)
}

// Strings renders coordinates as external string ids.
func Strings(coords []uint32) []string {
	out := make([]string, len(coords))
	for m, a := range coords {
		out[m] = strconv.FormatUint(uint64(a), 10)
	}
	return out
}

// Grid returns every tuple of the hypercube [offset, offset+size)^order
// in lexicographic order.
func Grid(order, size int, offset uint32) [][]uint32 {
	total := 1
	for range order {
		total *= size
	}
	out := make([][]uint32, 0, total)
	for i := range total {
		coords := make([]uint32, order)
		n := i
		for m := order - 1; m >= 0; m-- {
			coords[m] = offset + uint32(n%size)
			n /= size
		}
		out = append(out, coords)
	}
	return out
}
