/*
 * S370 - Command completion
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
	"slices"
	"strings"

	command "github.com/rcornwell/todclock/command/command"
	core "github.com/rcornwell/todclock/emu/core"
)

// Called to complete a command line, during line editing.
func CompleteCmd(commandLine string, core *core.Core) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	// We have a command, let it try and complete it.
	if !line.isEOL() {
		if !line.atSeparator() {
			return nil
		}
		match := matchList(name)
		if len(match) != 1 || match[0].Complete == nil {
			return nil
		}
		return match[0].Complete(&line, core)
	}

	// Try and match one command.
	var matches []string
	for _, m := range cmdList {
		if strings.HasPrefix(m.Name, name) {
			matches = append(matches, m.Name+" ")
		}
	}
	slices.Sort(matches)
	return matches
}

// Complete last option name of line.
func (line *cmdLine) scanOpts(device command.Command, cmdType int) []string {
	// Skip over completed options.
	var start int
	for {
		line.skipSpace()
		start = line.pos
		if line.getToken() == "" || line.pos >= len(line.line) {
			break
		}
	}
	partial := line.line[start:]
	if strings.ContainsRune(partial, '=') {
		return nil
	}
	leading := line.line[:start]

	var matches []string
	for _, opt := range device.Options("") {
		if (opt.OptionValid&cmdType) == 0 || !strings.HasPrefix(opt.Name, partial) {
			continue
		}
		suffix := " "
		if cmdType == command.ValidSet && opt.OptionType != command.OptionSwitch {
			suffix = "="
		}
		matches = append(matches, leading+opt.Name+suffix)
	}
	slices.Sort(matches)
	return matches
}
