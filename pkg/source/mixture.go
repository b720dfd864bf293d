package source

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-mcrt/pkg/core"
)

// Mixture picks one of several sources per packet with fixed probabilities.
// Weights are normalized to sum to 1; all-zero weights select uniformly.
type Mixture struct {
	sources []Source
	weights []float64
	cdf     []float64
}

// NewMixture creates a weighted mixture. weights must match sources in length.
func NewMixture(sources []Source, weights []float64) (*Mixture, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("mixture needs at least one source")
	}
	if len(sources) != len(weights) {
		return nil, fmt.Errorf("sources length (%d) must match weights length (%d)", len(sources), len(weights))
	}

	normalized := make([]float64, len(weights))
	for i, w := range weights {
		if !(w >= 0) || math.IsInf(w, 1) {
			return nil, fmt.Errorf("weight %d must be finite and non-negative, got %v", i, w)
		}
		normalized[i] = w
	}

	total := floats.Sum(normalized)
	if total == 0 {
		for i := range normalized {
			normalized[i] = 1
		}
		total = float64(len(normalized))
	}
	floats.Scale(1/total, normalized)

	cdf := make([]float64, len(normalized))
	floats.CumSum(cdf, normalized)
	cdf[len(cdf)-1] = 1

	return &Mixture{sources: sources, weights: normalized, cdf: cdf}, nil
}

// NewUniformMixture gives every source the same weight
func NewUniformMixture(sources ...Source) (*Mixture, error) {
	return NewMixture(sources, make([]float64, len(sources)))
}

// Pick selects a source by cumulative probability. Returns the source, its
// selection probability and its index.
func (m *Mixture) Pick(u float64) (Source, float64, int) {
	i := sort.Search(len(m.cdf), func(i int) bool { return u < m.cdf[i] })
	if i == len(m.cdf) {
		i = len(m.cdf) - 1
	}
	return m.sources[i], m.weights[i], i
}

func (m *Mixture) Emit(sampler core.Sampler) Emission {
	s, _, _ := m.Pick(sampler.Get1D())
	return s.Emit(sampler)
}

func (m *Mixture) Type() string {
	return "mixture"
}

// Probability returns the selection probability of the source at index
func (m *Mixture) Probability(index int) float64 {
	if index < 0 || index >= len(m.weights) {
		return 0
	}
	return m.weights[index]
}

// Len returns the number of sources
func (m *Mixture) Len() int {
	return len(m.sources)
}

func (m *Mixture) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mixture{%d sources:\n", len(m.sources))
	for i, s := range m.sources {
		fmt.Fprintf(&sb, "  [%d] %s: %.1f%%\n", i, s.Type(), m.weights[i]*100)
	}
	sb.WriteString("}")
	return sb.String()
}
