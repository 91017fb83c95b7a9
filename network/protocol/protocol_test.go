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

package protocol_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/sabouaram/uacore/network/protocol"
)

var _ = Describe("Protocol", func() {
	Describe("String/Code", func() {
		It("matches the net package dial/listen network name", func() {
			Expect(TCP.String()).To(Equal("tcp"))
			Expect(UDP6.String()).To(Equal("udp6"))
			Expect(UnixGram.String()).To(Equal("unixgram"))
			Expect(Empty.String()).To(Equal(""))
			Expect(Protocol(255).String()).To(Equal(""))
		})

		It("Code is an alias of String", func() {
			Expect(TCP4.Code()).To(Equal(TCP4.String()))
		})
	})

	Describe("Int/Int64", func() {
		It("assigns the stable wire values from the component table", func() {
			Expect(Unix.Int()).To(Equal(1))
			Expect(TCP.Int()).To(Equal(2))
			Expect(TCP4.Int()).To(Equal(3))
			Expect(TCP6.Int()).To(Equal(4))
			Expect(UDP.Int()).To(Equal(5))
			Expect(UDP4.Int()).To(Equal(6))
			Expect(UDP6.Int()).To(Equal(7))
			Expect(IP.Int()).To(Equal(8))
			Expect(IP4.Int()).To(Equal(9))
			Expect(IP6.Int()).To(Equal(10))
			Expect(UnixGram.Int()).To(Equal(11))
			Expect(UnixGram.Int64()).To(Equal(int64(11)))
		})

		It("returns 0 for Empty and out-of-range values", func() {
			Expect(Empty.Int()).To(Equal(0))
			Expect(Protocol(200).Int()).To(Equal(0))
		})
	})

	Describe("IsUDP/IsUnix", func() {
		It("classifies UDP family members", func() {
			Expect(UDP.IsUDP()).To(BeTrue())
			Expect(UDP4.IsUDP()).To(BeTrue())
			Expect(UDP6.IsUDP()).To(BeTrue())
			Expect(TCP.IsUDP()).To(BeFalse())
		})

		It("classifies Unix family members", func() {
			Expect(Unix.IsUnix()).To(BeTrue())
			Expect(UnixGram.IsUnix()).To(BeTrue())
			Expect(TCP.IsUnix()).To(BeFalse())
		})
	})

	Describe("Parse", func() {
		It("is case-insensitive and trims whitespace and quotes", func() {
			Expect(Parse("tcp")).To(Equal(TCP))
			Expect(Parse("TCP")).To(Equal(TCP))
			Expect(Parse(" udp ")).To(Equal(UDP))
			Expect(Parse("\tudp6\n")).To(Equal(UDP6))
			Expect(Parse(`"unix"`)).To(Equal(Unix))
			Expect(Parse("`unixgram`")).To(Equal(UnixGram))
		})

		It("returns Empty for unknown input", func() {
			Expect(Parse("http")).To(Equal(Empty))
			Expect(Parse("")).To(Equal(Empty))
		})
	})

	Describe("JSON round-trip", func() {
		It("marshals and parses back to the same protocol", func() {
			data, err := TCP6.MarshalJSON()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`"tcp6"`))

			var p Protocol
			Expect(p.UnmarshalJSON(data)).To(Succeed())
			Expect(p).To(Equal(TCP6))
		})
	})
})
