/*
 * S370 - TOD clock main
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	getopt "github.com/pborman/getopt/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	reader "github.com/rcornwell/todclock/command/reader"
	"github.com/rcornwell/todclock/config/clockconfig"
	config "github.com/rcornwell/todclock/config/configparser"
	core "github.com/rcornwell/todclock/emu/core"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/rcornwell/todclock/emu/tod"
	"github.com/rcornwell/todclock/util/hex"
	logger "github.com/rcornwell/todclock/util/logger"

	_ "github.com/rcornwell/todclock/config/debugconfig"
)

// Clock engine stamping log lines, nil until the core is created.
var stampEngine atomic.Pointer[tod.Engine]

// Log stamp in architected clock format. Uses the last guest clock
// value, or the record time before the guest clock has been read.
func todStamp(t time.Time) string {
	value := uint64(0)
	if engine := stampEngine.Load(); engine != nil {
		value = engine.LastStoreClock()
	}
	if value == 0 {
		value = etod.FromTime(t, etod.Precision64).TOD()
	}
	var str strings.Builder
	hex.FormatTOD(&str, value)
	return strings.TrimSpace(str.String())
}

func main() {
	optConfig := getopt.StringLong("config", 'c', "tod.cfg", "Configuration file")
	optTOML := getopt.StringLong("toml", 't', "", "TOML settings file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optRestore := getopt.StringLong("restore", 'r', "", "Restore clock from checkpoint file")
	optMetrics := getopt.StringLong("metrics", 'm', "", "Address to serve metrics on")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error("Unable to create log file", "file", *optLogFile, "error", err)
			os.Exit(1)
		}
		defer file.Close()
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	handler := logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, *optDebug)
	handler.SetStamp(todStamp)
	Logger := slog.New(handler)
	slog.SetDefault(Logger)

	Logger.Info("TOD clock started")

	_, err := os.Stat(*optConfig)
	switch {
	case err == nil:
		if err = config.LoadConfigFile(*optConfig); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	case os.IsNotExist(err) && !getopt.IsSet("config"):
		Logger.Info("No configuration file, using defaults")
	default:
		Logger.Error("Configuration file can't be read", "file", *optConfig, "error", err)
		os.Exit(1)
	}

	if *optTOML != "" {
		if err = clockconfig.LoadTOML(*optTOML, clockconfig.Default); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}

	clock, err := core.NewCore(clockconfig.Default, nil)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
	stampEngine.Store(clock.Engine())

	if *optRestore != "" {
		if err = clock.RestoreFile(*optRestore); err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	}

	var server *http.Server
	if *optMetrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server = &http.Server{Addr: *optMetrics, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				Logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start clock core and timer checking.
	clock.Start()
	clock.SendStart()

	msg := make(chan string, 1)
	go func() {
		reader.ConsoleReader(clock)
		msg <- ""
	}()

	// Wait on shutdown option
	<-msg

	clock.Stop()
	if server != nil {
		_ = server.Close()
	}
	Logger.Info("Clock stopped.")
}
