/*
 * S370 - TOD clock debug options
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

package tod

import (
	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/util/debug"
)

const (
	// Debug options.
	debugSteering = 1 << iota
	debugEpoch
	debugCalibrate
	debugTimer
	debugCheckpoint
)

var debugOption = map[string]int{
	"STEERING":   debugSteering,
	"EPOCH":      debugEpoch,
	"CALIBRATE":  debugCalibrate,
	"TIMER":      debugTimer,
	"CHECKPOINT": debugCheckpoint,
}

// Check if debug option name is valid.
func ValidDebug(opt string) bool {
	_, ok := debugOption[opt]
	return ok
}

// Enable debug options.
func (e *Engine) Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("clock debug option invalid: " + opt)
	}
	e.debugMsk.Or(int32(flag))
	return nil
}

// Return true if debug level enabled.
func (e *Engine) debugOn(level int) bool {
	return int(e.debugMsk.Load())&level != 0
}

func (e *Engine) debugf(level int, format string, a ...interface{}) {
	debug.Debugf("TOD", int(e.debugMsk.Load()), level, format, a...)
}
