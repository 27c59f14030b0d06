// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"context"

	"github.com/bitmark-inc/gridd/commands"
)

// sends each drained batch of the replication queue as one
// MultipleRPC to every other member
type queueSender struct {
	c *core
}

func (s *queueSender) Send(ctx context.Context, batch []commands.ReplicableCommand) error {
	_, err := s.c.manager.rpc.InvokeRemotely(ctx, nil, s.c.factory.NewMultipleRPC(batch), false)
	return err
}
