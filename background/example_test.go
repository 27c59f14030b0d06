// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"fmt"

	"github.com/bitmark-inc/gridd/background"
)

type reaper struct {
	passes int
}

func Example() {
	proc := &reaper{}

	// list of background processes to start
	processes := background.Processes{
		proc,
	}

	p := background.Start(processes, nil)
	p.Stop()
	fmt.Printf("stopped\n")

	// Output:
	// initialise
	// finalise
	// stopped
}

func (state *reaper) Run(args interface{}, shutdown <-chan struct{}) {
	fmt.Printf("initialise\n")
	<-shutdown
	state.passes += 1
	fmt.Printf("finalise\n")
}
