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

// Package pubsub is the observable UDP publish/subscribe path (C15): a
// publisher and a subscriber exchanging fixed-width datagrams carrying
// the identifying fields of a UADP NetworkMessage header
// (publisher-id, writer-group-id, dataset-writer-id) and a single Int32
// payload. The binary layout of a real NetworkMessage, including its
// version/flags byte and variable-length fields, is out of scope; this
// package exists only to exercise C4, C9, and the publish cadence end
// to end, not to be wire-compatible with a real UADP encoder.
package pubsub

import (
	"encoding/binary"

	"github.com/sabouaram/uacore/errs"
)

// frameLen is the fixed wire size of a message: publisher-id (2),
// writer-group-id (2), dataset-writer-id (2), node-id namespace (2),
// node-id numeric identifier (4), Int32 value (4).
const frameLen = 16

// NodeID is the reduced two-field identifier used by scenario 3
// (ns=1;i=1000-style addressing); string/GUID/opaque identifiers are
// out of scope.
type NodeID struct {
	Namespace  uint16
	Identifier uint32
}

// Header carries the fields of a NetworkMessage a subscriber uses to
// decide whether a datagram belongs to it: publisher id, writer group
// id, and dataset writer id.
type Header struct {
	PublisherID     uint16
	WriterGroupID   uint16
	DataSetWriterID uint16
}

// Message is one published DataSetMessage reduced to a single Int32
// variable.
type Message struct {
	Header Header
	Target NodeID
	Value  int32
}

// Encode renders m as a fixed-width frame.
func Encode(m Message) []byte {
	b := make([]byte, frameLen)
	binary.BigEndian.PutUint16(b[0:2], m.Header.PublisherID)
	binary.BigEndian.PutUint16(b[2:4], m.Header.WriterGroupID)
	binary.BigEndian.PutUint16(b[4:6], m.Header.DataSetWriterID)
	binary.BigEndian.PutUint16(b[6:8], m.Target.Namespace)
	binary.BigEndian.PutUint32(b[8:12], m.Target.Identifier)
	binary.BigEndian.PutUint32(b[12:16], uint32(m.Value))
	return b
}

// Decode parses a frame produced by Encode.
func Decode(b []byte) (Message, error) {
	if len(b) != frameLen {
		return Message{}, errs.New(errs.BadInvalidArgument, "malformed pubsub frame length", nil)
	}
	return Message{
		Header: Header{
			PublisherID:     binary.BigEndian.Uint16(b[0:2]),
			WriterGroupID:   binary.BigEndian.Uint16(b[2:4]),
			DataSetWriterID: binary.BigEndian.Uint16(b[4:6]),
		},
		Target: NodeID{
			Namespace:  binary.BigEndian.Uint16(b[6:8]),
			Identifier: binary.BigEndian.Uint32(b[8:12]),
		},
		Value: int32(binary.BigEndian.Uint32(b[12:16])),
	}, nil
}
