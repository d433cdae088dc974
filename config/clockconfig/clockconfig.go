/*
 * S370 - Clock configuration options
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

package clockconfig

import (
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	config "github.com/rcornwell/todclock/config/configparser"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/rcornwell/todclock/emu/hostclock"
	"github.com/rcornwell/todclock/emu/tod"
)

// Clock settings from the configuration file or TOML file.
type Settings struct {
	Epoch         int      `toml:"epoch"`          // SYSEPOCH, 1900 or 1960.
	YearOffset    int      `toml:"year-offset"`    // YROFFSET.
	TZOffset      int      `toml:"tz-offset"`      // TZOFFSET, signed hhmm.
	MaxCPU        int      `toml:"max-cpu"`        // MAXCPU.
	NumCPU        int      `toml:"num-cpu"`        // NUMCPU, CPUs brought online.
	Precision     int      `toml:"precision"`      // CLOCKPREC, 64, 95 or 120.
	Steering      float64  `toml:"steering"`       // STEERING, initial slew rate.
	TimerInterval int      `toml:"timer-interval"` // TIMERINT, milliseconds.
	Calibrate     bool     `toml:"calibrate"`      // CALIBRATE, calibrate at start.
	Debug         []string `toml:"debug"`          // Clock debug options.
}

type tomlFile struct {
	Clock *Settings `toml:"clock"`
}

// Settings filled in by configuration file statements.
var Default = NewSettings()

// Return settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Epoch:         1900,
		MaxCPU:        1,
		NumCPU:        1,
		Precision:     int(etod.Precision120),
		TimerInterval: 10,
	}
}

// register configuration statements on initialize.
func init() {
	Register(Default)
}

// Register configuration file statements that update s.
func Register(s *Settings) {
	config.RegisterOption("SYSEPOCH", intOption(&s.Epoch))
	config.RegisterOption("YROFFSET", intOption(&s.YearOffset))
	config.RegisterOption("TZOFFSET", intOption(&s.TZOffset))
	config.RegisterOption("MAXCPU", intOption(&s.MaxCPU))
	config.RegisterOption("NUMCPU", intOption(&s.NumCPU))
	config.RegisterOption("CLOCKPREC", intOption(&s.Precision))
	config.RegisterOption("TIMERINT", intOption(&s.TimerInterval))
	config.RegisterSwitch("CALIBRATE", func(string, []config.Option) error {
		s.Calibrate = true
		return nil
	})
	config.RegisterOption("STEERING", func(value string, _ []config.Option) error {
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Errorf("STEERING requires a number: %s", value)
		}
		s.Steering = rate
		return nil
	})
}

// Handler storing a decimal option into v.
func intOption(v *int) func(string, []config.Option) error {
	return func(value string, _ []config.Option) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("option requires a number: %s", value)
		}
		*v = n
		return nil
	}
}

// Add clock debug option.
func (s *Settings) AddDebug(opt string) error {
	opt = strings.ToUpper(opt)
	if !tod.ValidDebug(opt) {
		return errors.New("clock debug option invalid: " + opt)
	}
	s.Debug = append(s.Debug, opt)
	return nil
}

// Load [clock] table of a TOML file over s.
func LoadTOML(path string, s *Settings) error {
	file := tomlFile{Clock: s}
	_, err := toml.DecodeFile(path, &file)
	return errors.Trace(err)
}

// Check settings are usable.
func (s *Settings) Validate() error {
	if _, err := etod.ParsePrecision(s.Precision); err != nil {
		return err
	}
	if s.MaxCPU < 1 || s.MaxCPU > tod.MaxCPUs {
		return errors.Annotatef(tod.ErrMaxCPU, "max cpu %d", s.MaxCPU)
	}
	if s.NumCPU < 1 || s.NumCPU > s.MaxCPU {
		return errors.Errorf("number of CPUs %d must be between 1 and %d", s.NumCPU, s.MaxCPU)
	}
	if s.TimerInterval < 1 {
		return errors.Errorf("timer interval %d must be positive", s.TimerInterval)
	}
	return nil
}

// Timer interval as a duration.
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.TimerInterval) * time.Millisecond
}

// Build a clock engine from settings. NumCPU CPUs are brought online.
func (s *Settings) NewEngine(host hostclock.Reader, irq tod.Interrupter) (*tod.Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	engine, err := tod.New(tod.Config{
		Precision:   etod.Precision(s.Precision),
		MaxCPU:      s.MaxCPU,
		Host:        host,
		Interrupter: irq,
	})
	if err != nil {
		return nil, err
	}
	if err := engine.Configure(s.Epoch, s.YearOffset, s.TZOffset); err != nil {
		return nil, err
	}
	for cpu := range s.NumCPU {
		if err := engine.Online(cpu); err != nil {
			return nil, err
		}
	}
	if s.Steering != 0 {
		engine.SetSteering(s.Steering)
	}
	if s.Calibrate {
		engine.Calibrate()
	}
	for _, opt := range s.Debug {
		if err := engine.Debug(opt); err != nil {
			return nil, err
		}
	}
	return engine, nil
}
