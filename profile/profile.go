// Package profile keeps approximate national code frequencies.
//
// One count-min sketch per statistical attribute is filled from the whole
// dataset at startup. The dashboard uses it to show what share of all
// schools carry a code, next to the exact per-state counts.
package profile

import (
	"sync"

	boom "github.com/tylertreat/BoomFilters"

	"github.com/spektr-org/campusmap/engine"
)

// Sketch accuracy: counts overestimate by at most Epsilon*total with
// probability 1-Delta.
const (
	Epsilon = 0.001
	Delta   = 0.01
)

// Histogram is a frequency sketch over one attribute's codes.
type Histogram struct {
	cms *boom.CountMinSketch
}

// NewHistogram creates an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{cms: boom.NewCountMinSketch(Epsilon, Delta)}
}

// AddValue records one occurrence of a code.
func (h *Histogram) AddValue(s string) {
	h.cms.Add([]byte(s))
}

// Count estimates the occurrences of a code.
func (h *Histogram) Count(s string) uint64 {
	return h.cms.Count([]byte(s))
}

// Total is the number of values added.
func (h *Histogram) Total() uint64 {
	return h.cms.TotalCount()
}

// EstimateShare returns the estimated fraction of values equal to s.
func (h *Histogram) EstimateShare(s string) float64 {
	total := h.cms.TotalCount()
	if total == 0 {
		return 0
	}
	return float64(h.cms.Count([]byte(s))) / float64(total)
}

// Profile holds one Histogram per attribute. Built once, then read-only;
// the mutex guards the sketches' internal hashers, which are not safe for
// concurrent use.
type Profile struct {
	mu    sync.Mutex
	hists map[string]*Histogram
}

// Build sketches every listed attribute over the whole view.
func Build(view engine.RecordView, attributes []string) *Profile {
	p := &Profile{hists: make(map[string]*Histogram, len(attributes))}
	for _, attr := range attributes {
		if !engine.HasDimension(view, attr) {
			continue
		}
		h := NewHistogram()
		for i := 0; i < view.Len(); i++ {
			h.AddValue(view.Dimension(i, attr))
		}
		p.hists[attr] = h
	}
	return p
}

// Share implements engine.ShareEstimator. Unknown attributes yield 0.
func (p *Profile) Share(attribute, value string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.hists[attribute]
	if !ok {
		return 0
	}
	return h.EstimateShare(value)
}

// Count estimates the national number of schools carrying value.
func (p *Profile) Count(attribute, value string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.hists[attribute]
	if !ok {
		return 0
	}
	return h.Count(value)
}

// Has reports whether an attribute was profiled.
func (p *Profile) Has(attribute string) bool {
	_, ok := p.hists[attribute]
	return ok
}
