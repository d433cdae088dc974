/*
 * S370 - Debug options configuration
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

package debugconfig

import (
	"strings"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/config/clockconfig"
	config "github.com/rcornwell/todclock/config/configparser"
	"github.com/rcornwell/todclock/emu/timer"
)

// register debug statement on initialize.
func init() {
	config.RegisterModel("DEBUG", config.TypeOptions, setDebug)
}

// Set debug options for a subsystem.
func setDebug(module string, options []config.Option) error {
	switch strings.ToUpper(module) {
	case "CLOCK":
		// Clock options are applied when the engine is built.
		return eachOption(options, clockconfig.Default.AddDebug)
	case "TIMER":
		return eachOption(options, timer.Debug)
	default:
		return errors.New("debug option invalid: " + module)
	}
}

// Call set for each option name and value.
func eachOption(options []config.Option, set func(string) error) error {
	for _, opt := range options {
		err := set(strings.ToUpper(opt.Name))
		if err != nil {
			return err
		}
		for _, value := range opt.Value {
			err = set(strings.ToUpper(*value))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
