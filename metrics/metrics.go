// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/gridd/counter"
)

// Namespace - prefix of every metric name
const Namespace = "gridd"

// Set - the collectors of one component, registered and unregistered
// together
type Set struct {
	sync.Mutex
	labels     prometheus.Labels
	collectors []prometheus.Collector
}

// New - create an empty set, labels are attached to every collector
func New(labels map[string]string) *Set {
	return &Set{
		labels: prometheus.Labels(labels),
	}
}

// Counter - export a statistics counter
func (s *Set) Counter(subsystem string, name string, help string, c *counter.Counter) {
	s.add(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: s.labels,
		},
		func() float64 {
			return float64(c.Uint64())
		},
	))
}

// Gauge - export a value read when scraped
func (s *Set) Gauge(subsystem string, name string, help string, f func() float64) {
	s.add(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: s.labels,
		},
		f,
	))
}

// Histogram - a distribution observed by the caller
func (s *Set) Histogram(subsystem string, name string, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   Namespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: s.labels,
			Buckets:     buckets,
		},
	)
	s.add(h)
	return h
}

func (s *Set) add(c prometheus.Collector) {
	s.Lock()
	s.collectors = append(s.collectors, c)
	s.Unlock()
}

// Collectors - everything in the set
func (s *Set) Collectors() []prometheus.Collector {
	s.Lock()
	defer s.Unlock()
	return append([]prometheus.Collector{}, s.collectors...)
}

// Register - add the whole set to r, nothing is left registered on
// failure
func (s *Set) Register(r prometheus.Registerer) error {
	collectors := s.Collectors()
	for i, c := range collectors {
		if err := r.Register(c); nil != err {
			for _, done := range collectors[:i] {
				r.Unregister(done)
			}
			return err
		}
	}
	return nil
}

// Unregister - remove the whole set from r
func (s *Set) Unregister(r prometheus.Registerer) {
	for _, c := range s.Collectors() {
		r.Unregister(c)
	}
}
