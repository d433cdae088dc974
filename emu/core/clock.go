/*
 * S370 - Clock console commands
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

package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pingcap/errors"
	command "github.com/rcornwell/todclock/command/command"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/rcornwell/todclock/emu/steering"
	"github.com/rcornwell/todclock/emu/tod"
	"github.com/rcornwell/todclock/util/hex"
)

// Console access to the clock engine.
type clockCmd struct {
	core *Core
}

// Command interface of the clock.
func (core *Core) Clock() command.Command {
	return &clockCmd{core: core}
}

var clockOptions = []command.Options{
	{Name: "epoch", OptionType: command.OptionNumber, OptionValid: command.ValidSet | command.ValidShow},
	{Name: "yroffset", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
	{Name: "tzoffset", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
	{Name: "steering", OptionType: command.OptionFloat, OptionValid: command.ValidSet | command.ValidShow},
	{Name: "clock", OptionType: command.OptionHex, OptionValid: command.ValidSet | command.ValidShow},
	{Name: "fine", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
	{Name: "gross", OptionType: command.OptionNumber, OptionValid: command.ValidSet},
	{Name: "offset", OptionType: command.OptionNumber, OptionValid: command.ValidSet | command.ValidShow},
	{Name: "timers", OptionType: command.OptionSwitch, OptionValid: command.ValidShow},
}

// Return list of supported options.
func (c *clockCmd) Options(_ string) []command.Options {
	return clockOptions
}

// Apply set options in order.
func (c *clockCmd) Set(options []*command.CmdOption) error {
	engine := c.core.engine
	for _, opt := range options {
		var err error
		switch opt.Name {
		case "epoch":
			err = engine.ConfigureEpoch(int(opt.Value))
		case "yroffset":
			err = engine.ConfigureYearOffset(int(opt.Value))
		case "tzoffset":
			err = engine.ConfigureTimezoneOffset(int(opt.Value))
		case "steering":
			engine.SetSteering(opt.Float)
		case "clock":
			engine.SetClock(uint64(opt.Value))
		case "fine":
			err = checkRate(opt)
			if err == nil {
				engine.SetFineSteeringRate(int32(opt.Value))
			}
		case "gross":
			err = checkRate(opt)
			if err == nil {
				engine.SetGrossSteeringRate(int32(opt.Value))
			}
		case "offset":
			engine.SetTODOffset(opt.Value)
		default:
			err = errors.New("clock option can't be set: " + opt.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkRate(opt *command.CmdOption) error {
	if opt.Value < -1<<31 || opt.Value > 1<<31-1 {
		return errors.Errorf("%s steering rate out of range: %d", opt.Name, opt.Value)
	}
	return nil
}

// Show clock state, everything when no options given.
func (c *clockCmd) Show(options []*command.CmdOption) (string, error) {
	names := []string{"clock", "steering", "epoch", "offset", "timers"}
	if len(options) != 0 {
		names = names[:0]
		for _, opt := range options {
			names = append(names, opt.Name)
		}
	}
	var str strings.Builder
	for _, name := range names {
		switch name {
		case "clock":
			c.showClock(&str)
		case "steering":
			c.showSteering(&str)
		case "epoch":
			c.showEpoch(&str)
		case "offset":
			c.showOffset(&str)
		case "timers":
			c.showTimers(&str)
		default:
			return "", errors.New("clock option can't be shown: " + name)
		}
	}
	return strings.TrimSuffix(str.String(), "\n"), nil
}

// Return clock to power on state.
func (c *clockCmd) Reset() error {
	c.core.SendReset()
	return nil
}

func (c *clockCmd) showClock(str *strings.Builder) {
	value := c.core.engine.ArchitectedClock(tod.NoCPU, tod.Fast)
	str.WriteString("Clock: ")
	hex.FormatTOD(str, value.TOD())
	str.WriteString(todTime(value.High).Format(time.DateTime))
	str.WriteString("\n")
}

// Wall time of clock high word.
func todTime(high uint64) time.Time {
	units := int64(high - etod.Epoch1970)
	sec := units / int64(etod.Second)
	nsec := (units % int64(etod.Second)) * 125 / 2
	return time.Unix(sec, nsec).UTC()
}

func (c *clockCmd) showSteering(str *strings.Builder) {
	engine := c.core.engine
	info := engine.QuerySteeringInformation()
	str.WriteString("Steering: rate=" + strconv.FormatFloat(engine.Steering(), 'g', -1, 64) + "\n")
	writeCSR(str, "Old", info.Old)
	writeCSR(str, "New", info.New)
}

func writeCSR(str *strings.Builder, name string, csr steering.CSR) {
	fmt.Fprintf(str, "  %s: start=", name)
	hex.FormatDouble(str, csr.StartTime)
	fmt.Fprintf(str, " base=%d fine=%d gross=%d\n", csr.BaseOffset, csr.FineRate, csr.GrossRate)
}

func (c *clockCmd) showEpoch(str *strings.Builder) {
	year, yrOffset, tz := c.core.engine.EpochConfig()
	fmt.Fprintf(str, "Epoch: year=%d yroffset=%d tzoffset=%+05d epoch=", year, yrOffset, tz)
	hex.FormatSigned(str, c.core.engine.Epoch())
	str.WriteString("\n")
}

func (c *clockCmd) showOffset(str *strings.Builder) {
	info, err := c.core.engine.QueryTODOffset(tod.NoCPU)
	if err != nil {
		return
	}
	str.WriteString("Physical: ")
	hex.FormatDouble(str, info.PhysicalClock)
	fmt.Fprintf(str, " offset=%d logical=%d\n", info.TODOffset, info.LogicalOffset)
}

func (c *clockCmd) showTimers(str *strings.Builder) {
	engine := c.core.engine
	for cpu := range engine.MaxCPU() {
		if !engine.IsOnline(cpu) {
			continue
		}
		cpuTimer, _ := engine.CPUTimer(cpu)
		interval, _ := engine.IntervalTimer(cpu)
		comparator, _ := engine.ClockComparator(cpu)
		fmt.Fprintf(str, "CPU %d: timer=", cpu)
		hex.FormatSigned(str, cpuTimer)
		fmt.Fprintf(str, " interval=%d comparator=", interval)
		hex.FormatDouble(str, comparator)
		fmt.Fprintf(str, " pending=%02x\n", int(c.core.Pending(cpu)))
	}
}
