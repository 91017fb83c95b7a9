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

// Command uasubstrate wires the event loop, TCP listener, UDP
// publisher/subscriber, interrupt manager, and file-backed trust store
// from a YAML configuration file, exercising the whole runtime
// substrate end to end the way a real OPC UA server process would at
// startup.
package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mitchellh/mapstructure"

	"github.com/sabouaram/uacore/interrupt"
	"github.com/sabouaram/uacore/loop"
	"github.com/sabouaram/uacore/network/protocol"
	"github.com/sabouaram/uacore/pubsub"
	"github.com/sabouaram/uacore/runlog"
	"github.com/sabouaram/uacore/security/trustfile"
	"github.com/sabouaram/uacore/transport"
	"github.com/sabouaram/uacore/transport/tcp"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "uasubstrate",
		Short: "Run the OPC UA runtime substrate (loop, TCP, UDP pub/sub, trust store)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to a YAML config file (defaults built in if omitted)")
	return cmd
}

func loadConfig(path string) (appConfig, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		decodeHook := mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			protocol.ViperDecoderHook(),
		)
		if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	return cfg, nil
}

func run(cfg appConfig) error {
	log := runlog.New(os.Stderr)
	log.SetLevel(parseLevel(cfg.LogLevel))

	lp := loop.New(log)

	if cfg.TCP.Enabled {
		tcpCfg := cfg.TCP.Listen
		if tcpCfg.Network == protocol.Empty {
			tcpCfg.Network = protocol.TCP
		}
		listener := tcp.NewListener("tcp-listener", tcpCfg, tcpHandler(log), log)
		if err := lp.RegisterSource(listener); err != nil {
			return fmt.Errorf("register tcp listener: %w", err)
		}
	}

	var (
		pub *pubsub.Publisher
		sub *pubsub.Subscriber
	)
	if cfg.PubSub.Enabled {
		var err error
		pub, sub, err = wirePubSub(lp, cfg, log)
		if err != nil {
			return fmt.Errorf("wire pubsub: %w", err)
		}
	}

	store, err := trustfile.Open(cfg.Trust.Root, trustfile.ApplCerts, cfg.Trust.RejectedCap, log)
	if err != nil {
		return fmt.Errorf("open trust store: %w", err)
	}
	defer func() { _ = store.Close() }()

	var irq *interrupt.Manager
	if cfg.Interrupt.Enabled {
		irq = interrupt.New("interrupt", log)
		stop := func(sig syscall.Signal) {
			log.Info("received signal, stopping", runlog.Fields{"signal": sig.String()})
			_ = lp.Stop()
		}
		if err := irq.Register(syscall.SIGINT, stop); err != nil {
			return fmt.Errorf("register SIGINT: %w", err)
		}
		if err := irq.Register(syscall.SIGTERM, stop); err != nil {
			return fmt.Errorf("register SIGTERM: %w", err)
		}
		if err := lp.RegisterSource(irq); err != nil {
			return fmt.Errorf("register interrupt manager: %w", err)
		}
	}

	if err := lp.Start(); err != nil {
		return fmt.Errorf("start loop: %w", err)
	}

	if pub != nil && sub != nil {
		schedulePublishCadence(lp, pub, cfg)
	}

	log.Info("uasubstrate started", runlog.Fields{"tcp": cfg.TCP.Enabled, "pubsub": cfg.PubSub.Enabled})
	if err := lp.RunUntilStopped(250 * time.Millisecond); err != nil {
		return fmt.Errorf("run loop: %w", err)
	}
	return lp.Free()
}

func tcpHandler(log runlog.Logger) transport.HandlerFunc {
	return func(state transport.ConnState, ctx interface{}, buf []byte, err error) {
		if err != nil {
			log.Warn("tcp connection error", runlog.Fields{"error": err.Error()})
			return
		}
		log.Debug("tcp event", runlog.Fields{"state": int(state), "bytes": len(buf)})
	}
}

func parseLevel(s string) runlog.Level {
	switch s {
	case "trace":
		return runlog.TraceLevel
	case "debug":
		return runlog.DebugLevel
	case "warn":
		return runlog.WarnLevel
	case "error":
		return runlog.ErrorLevel
	default:
		return runlog.InfoLevel
	}
}
