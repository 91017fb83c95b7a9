/*
 * MIT License
 *
 * Copyright (c) 2026 Sabouaram
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package main

import (
	"fmt"
	"net"

	"github.com/sabouaram/uacore/clock"
	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/network/protocol"
	"github.com/sabouaram/uacore/pubsub"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/timer"
	"github.com/sabouaram/uacore/transport/config"
)

// publishIntervalMs is the cadence the publisher's timer entry re-sends
// its one demonstration variable on.
const publishIntervalMs = 50

func wirePubSub(lp *loop.Loop, cfg appConfig, log runlog.Logger) (*pubsub.Publisher, *pubsub.Subscriber, error) {
	dest, err := net.ResolveUDPAddr("udp", cfg.PubSub.Destination)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve pubsub destination %s: %w", cfg.PubSub.Destination, err)
	}

	header := pubsub.Header{
		PublisherID:     cfg.PubSub.PublisherID,
		WriterGroupID:   cfg.PubSub.WriterGroupID,
		DataSetWriterID: cfg.PubSub.DataSetWriterID,
	}

	pub, err := pubsub.NewPublisher("pubsub-publisher", lp, config.Server{Network: protocol.UDP, Port: 0}, dest, header, log)
	if err != nil {
		return nil, nil, fmt.Errorf("new publisher: %w", err)
	}

	sub, err := pubsub.NewSubscriber("pubsub-subscriber", lp, config.Server{Network: protocol.UDP, Port: cfg.PubSub.Port}, header, log)
	if err != nil {
		return nil, nil, fmt.Errorf("new subscriber: %w", err)
	}

	return pub, sub, nil
}

// schedulePublishCadence registers a cyclic timer entry that republishes
// the demonstration variable (ns=1;i=1000, value 42, per spec.md §8
// scenario 3) on the loop's own timer wheel rather than a free-running
// goroutine, so the publish cadence is itself driven by C2.
func schedulePublishCadence(lp *loop.Loop, pub *pubsub.Publisher, cfg appConfig) {
	target := pubsub.NodeID{Namespace: 1, Identifier: 1000}
	_, _ = lp.Timer().Add(func(app, data interface{}) {
		p := app.(*pubsub.Publisher)
		_ = p.PublishInt32(target, 42)
	}, pub, nil, publishIntervalMs, clock.NowMonotonic(), nil, timer.CurrentTime)
}
