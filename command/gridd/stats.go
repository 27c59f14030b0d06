// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/gridd/mode"
)

// registry with the process collectors and the member mode
func newRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(prometheus.NewGoCollector())
	r.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	r.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "gridd",
		Name:      "mode",
		Help:      "lifecycle mode of this member",
	}, func() float64 {
		return float64(mode.Current())
	}))
	return r
}

// serve /metrics until the process exits
func serveMetrics(log *logger.L, listen string, r *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}))

	log.Infof("metrics listener on: %s", listen)
	err := http.ListenAndServe(listen, mux)
	log.Errorf("metrics listener error: %s", err)
}
