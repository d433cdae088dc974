/*
 * S370 - Console commands
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

package parser

import (
	"fmt"
	"log/slog"

	"github.com/pingcap/errors"
	command "github.com/rcornwell/todclock/command/command"
	core "github.com/rcornwell/todclock/emu/core"
)

var cmdList = []cmd{
	{Name: "set", Min: 3, Process: set, Complete: func(line *cmdLine, core *core.Core) []string {
		return line.scanOpts(core.Clock(), command.ValidSet)
	}},
	{Name: "show", Min: 2, Process: show, Complete: func(line *cmdLine, core *core.Core) []string {
		return line.scanOpts(core.Clock(), command.ValidShow)
	}},
	{Name: "reset", Min: 5, Process: reset},
	{Name: "save", Min: 2, Process: save},
	{Name: "restore", Min: 4, Process: restore},
	{Name: "start", Min: 3, Process: start},
	{Name: "stop", Min: 3, Process: stop},
	{Name: "quit", Min: 4, Process: quit},
}

// Handle set commands.
func set(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Set")
	clock := core.Clock()
	optlist, err := line.getOptions(clock, command.ValidSet)
	if err != nil {
		return false, err
	}
	if len(optlist) == 0 {
		return false, errors.New("no options give to set command")
	}
	return false, clock.Set(optlist)
}

// Process the show command.
func show(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Show")
	clock := core.Clock()
	optlist, err := line.getOptions(clock, command.ValidShow)
	if err != nil {
		return false, err
	}
	out, err := clock.Show(optlist)
	if err != nil {
		return false, err
	}
	fmt.Println(out)
	return false, nil
}

// Reset the clock.
func reset(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Reset")
	line.skipSpace()
	if !line.isEOL() {
		return false, errors.New("reset takes no options")
	}
	return false, core.Clock().Reset()
}

// Get file name argument.
func (line *cmdLine) getFileName() (string, error) {
	name, ok := line.parseQuoteString()
	if !ok || name == "" {
		return "", errors.New("file name required")
	}
	line.skipSpace()
	if !line.isEOL() {
		return "", errors.New("only one file name allowed")
	}
	return name, nil
}

// Save clock state.
func save(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Save")
	name, err := line.getFileName()
	if err != nil {
		return false, err
	}
	return false, core.SaveFile(name)
}

// Restore clock state.
func restore(line *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Restore")
	name, err := line.getFileName()
	if err != nil {
		return false, err
	}
	return false, core.RestoreFile(name)
}

// Start checking timers.
func start(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Start")
	core.SendStart()
	return false, nil
}

// Stop checking timers.
func stop(_ *cmdLine, core *core.Core) (bool, error) {
	slog.Debug("Command Stop")
	core.SendStop()
	return false, nil
}

// Handle commands that quit simulation.
func quit(_ *cmdLine, _ *core.Core) (bool, error) {
	slog.Debug("Command Quit")
	return true, nil
}
