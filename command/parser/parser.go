/*
 * S370 - Command parser
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
	"strconv"
	"strings"
	"unicode"

	"github.com/pingcap/errors"
	command "github.com/rcornwell/todclock/command/command"
	core "github.com/rcornwell/todclock/emu/core"
)

type cmd struct {
	Name     string // Command name.
	Min      int    // Minimum match size.
	Process  func(*cmdLine, *core.Core) (bool, error)
	Complete func(*cmdLine, *core.Core) []string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

// Execute the command line given. Returns true when the console
// should exit.
func ProcessCommand(commandLine string, core *core.Core) (bool, error) {
	line := cmdLine{line: commandLine}
	command := line.getWord()
	if command == "" {
		if !line.isEOL() {
			return false, errors.New("command not found: " + line.getToken())
		}
		return false, nil
	}
	if !line.atSeparator() {
		return false, errors.New("command not found: " + command + line.getToken())
	}

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}

	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].Process(&line, core)
}

// Check if command matches at least to minimum length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.Name) {
		return false
	}
	return strings.HasPrefix(match.Name, command) && len(command) >= match.Min
}

// Check if command matches one of the commands.
func matchList(command string) []cmd {
	// If command empty just return.
	if command == "" {
		return []cmd{}
	}

	// Try and match one command.
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

// Match list of options.
func matchOption(option string, optList []command.Options, cmdType int) command.Options {
	for _, opt := range optList {
		if (opt.OptionValid & cmdType) == 0 {
			continue
		}
		if opt.Name == option {
			return opt
		}
	}
	return command.Options{OptionType: -1}
}

// Skip forward over line until none whitespace character found.
func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line.
func (line *cmdLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

// True at end of line or before whitespace.
func (line *cmdLine) atSeparator() bool {
	return line.isEOL() || unicode.IsSpace(rune(line.line[line.pos]))
}

// Parse word of letters, stops at first other character.
func (line *cmdLine) getWord() string {
	line.skipSpace()
	start := line.pos
	for line.pos < len(line.line) && unicode.IsLetter(rune(line.line[line.pos])) {
		line.pos++
	}
	return strings.ToLower(line.line[start:line.pos])
}

// Return characters up to whitespace or end of line.
func (line *cmdLine) getToken() string {
	start := line.pos
	for !line.atSeparator() {
		line.pos++
	}
	return line.line[start:line.pos]
}

// Parse string that is "string" or just string.
func (line *cmdLine) parseQuoteString() (string, bool) {
	line.skipSpace()
	if line.isEOL() {
		return "", false
	}
	if line.line[line.pos] != '"' {
		return line.getToken(), true
	}

	var value strings.Builder
	line.pos++
	for line.pos < len(line.line) {
		by := line.line[line.pos]
		line.pos++
		if by != '"' {
			value.WriteByte(by)
			continue
		}
		// Doubled quote stands for one quote.
		if line.pos < len(line.line) && line.line[line.pos] == '"' {
			value.WriteByte(by)
			line.pos++
			continue
		}
		return value.String(), line.atSeparator()
	}
	return "", false
}

// Require '=' at current position.
func (line *cmdLine) getEqual(name string) error {
	if line.pos >= len(line.line) || line.line[line.pos] != '=' {
		return errors.New("option must be followed by =: " + name)
	}
	line.pos++
	return nil
}

// Parse a signed decimal number.
func (line *cmdLine) getNumber() (int64, error) {
	value, err := strconv.ParseInt(line.getToken(), 10, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return value, nil
}

// Parse hex number.
func (line *cmdLine) getHex() (uint64, error) {
	value, err := strconv.ParseUint(line.getToken(), 16, 64)
	if err != nil {
		return 0, errors.New("not a hex number")
	}
	return value, nil
}

// Parse floating point number.
func (line *cmdLine) getFloat() (float64, error) {
	value, err := strconv.ParseFloat(line.getToken(), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return value, nil
}

// Get an option. Returns nil at end of line.
func (line *cmdLine) getOption(opts []command.Options, cmdType int) (*command.CmdOption, error) {
	name := line.getWord()
	if name == "" {
		if line.isEOL() {
			return nil, nil
		}
		return nil, errors.New("invalid option: " + line.getToken())
	}

	opt := command.CmdOption{Name: name}
	match := matchOption(name, opts, cmdType)
	switch match.OptionType {
	case -1:
		return nil, errors.New("unknown option: " + name)
	case command.OptionSwitch:
		if !line.atSeparator() {
			return nil, errors.New("switch option can't have arguments: " + name)
		}
		return &opt, nil
	}

	// Show only takes option names.
	if cmdType == command.ValidShow {
		if !line.atSeparator() {
			return nil, errors.New("show option can't have arguments: " + name)
		}
		return &opt, nil
	}

	if err := line.getEqual(name); err != nil {
		return nil, err
	}
	var err error
	switch match.OptionType {
	case command.OptionFile:
		file, ok := line.parseQuoteString()
		if !ok {
			return nil, errors.New("file name not valid: " + name)
		}
		opt.EqualOpt = file
	case command.OptionNumber:
		opt.Value, err = line.getNumber()
	case command.OptionHex:
		var value uint64
		value, err = line.getHex()
		opt.Value = int64(value)
	case command.OptionFloat:
		opt.Float, err = line.getFloat()
	case command.OptionList:
		opt.EqualOpt = line.getWord()
		err = errors.New("option not valid for type: " + name)
		for _, mod := range match.OptionList {
			if strings.ToLower(mod) == opt.EqualOpt && line.atSeparator() {
				err = nil
				break
			}
		}
	default:
		err = errors.New("invalid option type: " + name)
	}
	if err != nil {
		return nil, errors.Annotate(err, name)
	}
	return &opt, nil
}

// Scan options and return a list of options.
func (line *cmdLine) getOptions(device command.Command, cmdType int) ([]*command.CmdOption, error) {
	optlist := []*command.CmdOption{}
	opts := device.Options("")
	for {
		opt, err := line.getOption(opts, cmdType)
		if err != nil {
			return optlist, err
		}
		if opt == nil {
			break
		}
		optlist = append(optlist, opt)
	}
	return optlist, nil
}
