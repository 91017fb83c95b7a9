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

// Package protocol names the transport protocols a connection manager (C8,
// C9, and the Unix-socket siblings) can bind or dial.
package protocol

import "strings"

// Protocol is the wire family a transport/config Client or Server targets.
type Protocol uint8

const (
	Empty Protocol = iota
	Unix
	TCP
	TCP4
	TCP6
	UDP
	UDP4
	UDP6
	IP
	IP4
	IP6
	UnixGram
)

var names = map[Protocol]string{
	Unix:     "unix",
	TCP:      "tcp",
	TCP4:     "tcp4",
	TCP6:     "tcp6",
	UDP:      "udp",
	UDP4:     "udp4",
	UDP6:     "udp6",
	IP:       "ip",
	IP4:      "ip4",
	IP6:      "ip6",
	UnixGram: "unixgram",
}

var byName = func() map[string]Protocol {
	m := make(map[string]Protocol, len(names))
	for p, s := range names {
		m[s] = p
	}
	return m
}()

// String returns the net package dial/listen network name, or "" for
// Empty or an out-of-range value.
func (p Protocol) String() string {
	return names[p]
}

// Code is an alias of String, kept distinct so callers written against
// either method name (common across the teacher's own enum types) work.
func (p Protocol) Code() string {
	return p.String()
}

// Int returns the protocol's numeric value, or 0 for Empty/out-of-range.
func (p Protocol) Int() int {
	if _, ok := names[p]; !ok {
		return 0
	}
	return int(p)
}

// Int64 is Int widened to int64.
func (p Protocol) Int64() int64 {
	return int64(p.Int())
}

// IsUDP reports whether p is one of the UDP family members.
func (p Protocol) IsUDP() bool {
	return p == UDP || p == UDP4 || p == UDP6
}

// IsUnix reports whether p is Unix or UnixGram.
func (p Protocol) IsUnix() bool {
	return p == Unix || p == UnixGram
}

// Parse recognizes a protocol name case-insensitively, trimming
// surrounding whitespace and then every leading and trailing quote
// character (", ' or `); unknown input returns Empty.
func Parse(s string) Protocol {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`+"`")
	s = strings.ToLower(s)
	if p, ok := byName[s]; ok {
		return p
	}
	return Empty
}

// MarshalJSON renders the protocol as its lowercase JSON string form.
func (p Protocol) MarshalJSON() ([]byte, error) {
	s := p.String()
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	out = append(out, s...)
	out = append(out, '"')
	return out, nil
}

// UnmarshalJSON accepts a quoted protocol name via Parse.
func (p *Protocol) UnmarshalJSON(data []byte) error {
	*p = Parse(string(data))
	return nil
}

// MarshalYAML renders the protocol as a plain YAML string, the idiomatic
// form expected by spf13/viper's YAML decoder.
func (p Protocol) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML accepts any scalar YAML node as a protocol name.
func (p *Protocol) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*p = Parse(s)
	return nil
}
