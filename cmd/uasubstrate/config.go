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
	"github.com/sabouaram/uacore/transport/config"
)

// appConfig is the YAML-decoded shape of the wiring this command
// stands up: one TCP listener, one UDP publisher/subscriber pair, and
// a file-backed trust store, all driven off a single loop.
type appConfig struct {
	LogLevel string `mapstructure:"log-level" yaml:"log-level"`

	TCP struct {
		Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
		Listen  config.Server `mapstructure:"listen" yaml:"listen"`
	} `mapstructure:"tcp" yaml:"tcp"`

	PubSub struct {
		Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
		Port            uint16 `mapstructure:"port" yaml:"port"`
		Destination     string `mapstructure:"destination" yaml:"destination"`
		PublisherID     uint16 `mapstructure:"publisher-id" yaml:"publisher-id"`
		WriterGroupID   uint16 `mapstructure:"writer-group-id" yaml:"writer-group-id"`
		DataSetWriterID uint16 `mapstructure:"dataset-writer-id" yaml:"dataset-writer-id"`
	} `mapstructure:"pubsub" yaml:"pubsub"`

	Trust struct {
		Root        string `mapstructure:"root" yaml:"root"`
		RejectedCap int    `mapstructure:"rejected-cap" yaml:"rejected-cap"`
	} `mapstructure:"trust" yaml:"trust"`

	Interrupt struct {
		Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	} `mapstructure:"interrupt" yaml:"interrupt"`
}

func defaultConfig() appConfig {
	var c appConfig
	c.LogLevel = "info"
	c.TCP.Enabled = true
	c.TCP.Listen.Port = 4840
	c.PubSub.Enabled = true
	c.PubSub.Port = 4801
	c.PubSub.Destination = "127.0.0.1:4801"
	c.PubSub.PublisherID = 2234
	c.PubSub.WriterGroupID = 100
	c.PubSub.DataSetWriterID = 62541
	c.Trust.Root = "./trust"
	c.Trust.RejectedCap = 128
	c.Interrupt.Enabled = true
	return c
}
