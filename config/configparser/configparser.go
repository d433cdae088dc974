/*
 * S370 - Configuration file parser
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

package configparser

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/pingcap/errors"
)

// List of options to pass to create routine.
type Option struct {
	Name     string    // Name of option.
	EqualOpt string    // Value of string after =.
	Value    []*string // Value of option.
}

// Option after keyword.
type FirstOption struct {
	value string // String value of option.
}

// Current option line being parsed.
type optionLine struct {
	line string // Current option line.
	pos  int    // Current position in line.
}

/* Configuration file format:
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <keyword> <whitespace> <value> <whitespace> <options> |
 *           <keyword> <whitespace> <quoteopt> |
 *           <keyword>
 * <value> ::= <string> | <number>
 * <number> ::= ['+'|'-'] *(<digit>|'.')
 * <options> ::= *(<option> *(<whitespace>))
 * <option> ::= <string> ['=' <quoteopt>] *(<commaopt>)
 * <commaopt> ::= ',' *(<whitespace>) <string>
 * <quoteopt> ::= <string> | '"' *(<letter> | <whitespace>) '"'
 * <string> ::= *(<letter> | <number>)
 */

const (
	TypeOption  = 1 + iota // Accepts a option parameter.
	TypeOptions            // Accepts a list of options.
	TypeSwitch             // Option only used to set a flag.
	TypeFile               // Accepts a file name.
)

// Keyword handler list.
type modelDef struct {
	create func(string, []Option) error
	ty     int
}

var models = map[string]modelDef{}

var lineNumber int

// Return type of keyword or 0 if not registered.
func getModel(mod string) int {
	model, ok := models[mod]
	if !ok {
		return 0
	}
	return model.ty
}

func register(mod string, ty int, fn func(string, []Option) error) {
	mod = strings.ToUpper(mod)
	slog.Debug("Registering configuration option", "name", mod, "type", ty)
	models[mod] = modelDef{create: fn, ty: ty}
}

// Register should be called from init functions.
func RegisterModel(mod string, ty int, fn func(string, []Option) error) {
	register(mod, ty, fn)
}

// Register should be called from init functions.
func RegisterSwitch(mod string, fn func(string, []Option) error) {
	register(mod, TypeSwitch, fn)
}

// Register should be called from init functions.
func RegisterOption(mod string, fn func(string, []Option) error) {
	register(mod, TypeOption, fn)
}

// Register should be called from init functions.
func RegisterFile(mod string, fn func(string, []Option) error) {
	register(mod, TypeFile, fn)
}

// Look up handler of given type.
func getHandler(mod string, ty int, kind string) (modelDef, error) {
	mod = strings.ToUpper(mod)
	model, ok := models[mod]
	if !ok {
		return model, errors.New("Unknown " + kind + ": " + mod)
	}
	if model.ty != ty {
		return model, errors.New("Not a " + kind + " type: " + mod)
	}
	return model, nil
}

// Create a option with one parameter.
func createOption(mod string, first *FirstOption) error {
	model, err := getHandler(mod, TypeOption, "option")
	if err != nil {
		return err
	}
	return model.create(first.value, []Option{})
}

// Create a option with options.
func createOptions(mod string, first *FirstOption, options []Option) error {
	model, err := getHandler(mod, TypeOptions, "options")
	if err != nil {
		return err
	}
	return model.create(first.value, options)
}

// Create a file option.
func createFile(mod string, name string) error {
	model, err := getHandler(mod, TypeFile, "file")
	if err != nil {
		return err
	}
	return model.create(name, nil)
}

// Create switch option.
func createSwitch(mod string) error {
	model, err := getHandler(mod, TypeSwitch, "switch")
	if err != nil {
		return err
	}
	return model.create("", nil)
}

// Load in a configuration file.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	return LoadConfig(file)
}

// Load configuration statements from reader.
func LoadConfig(in io.Reader) error {
	lineNumber = 0
	reader := bufio.NewReader(in)
	for {
		var err error

		line := optionLine{}
		line.line, err = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && err != nil {
			if err == io.EOF {
				break
			}
			return errors.Trace(err)
		}
		err = line.parseLine()
		if err != nil {
			return err
		}
	}
	return nil
}

// Parse one line from file.
func (line *optionLine) parseLine() error {
	model := line.parseModel()
	if model == "" {
		return nil
	}
	switch getModel(model) {
	case TypeOption:
		first := line.parseFirst()
		line.skipSpace()
		if !line.isEOL() || first == nil {
			return errors.Errorf("Option: %s not followed by value, line: %d", model, lineNumber)
		}
		return createOption(model, first)

	case TypeOptions:
		first := line.parseFirst()
		if first == nil {
			return errors.Errorf("Option: %s not followed by value, line: %d", model, lineNumber)
		}
		options, err := line.parseOptions()
		if err != nil {
			return err
		}
		return createOptions(model, first, options)

	case TypeFile:
		line.skipSpace()
		if line.isEOL() {
			return errors.Errorf("File option: %s not followed by name, line: %d", model, lineNumber)
		}
		line.pos--
		name, ok := line.parseQuoteString()
		line.skipSpace()
		if !ok || name == "" || !line.isEOL() {
			return errors.Errorf("File option: %s invalid name, line: %d", model, lineNumber)
		}
		return createFile(model, name)

	case TypeSwitch:
		line.skipSpace()
		if !line.isEOL() {
			return errors.Errorf("Switch Option: %s followed by options, line: %d", model, lineNumber)
		}
		return createSwitch(model)
	}
	return errors.Errorf("No type: %s registered, line: %d", model, lineNumber)
}

// Skip forward over line until none whitespace character found.
func (line *optionLine) skipSpace() {
	for {
		if line.pos >= len(line.line) {
			return
		}
		if unicode.IsSpace(rune(line.line[line.pos])) {
			line.pos++
			continue
		}
		return
	}
}

// Check if at end of line.
func (line *optionLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}

	if line.line[line.pos] == '#' {
		return true
	}
	return false
}

// Return next letter or digit in line. 0 if EOL or space.
func (line *optionLine) getNext() byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) {
		return by
	}
	return 0
}

// Peek at next character.
func (line *optionLine) getPeek() byte {
	if (line.pos + 1) >= len(line.line) {
		return 0
	}
	return line.line[line.pos+1]
}

// Parse keyword.
func (line *optionLine) parseModel() string {
	// Skip leading space
	line.skipSpace()
	// Check if end of line.
	if line.isEOL() {
		return ""
	}

	model := ""
	for !line.isEOL() {
		by := line.line[line.pos]
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) {
			model += string([]byte{by})
			line.pos++
			continue
		}
		break
	}
	return strings.ToUpper(model)
}

// Parse first option parameter, a word or signed number.
func (line *optionLine) parseFirst() *FirstOption {
	// Skip leading space
	line.skipSpace()
	// Check if end of line.
	if line.isEOL() {
		return nil
	}

	value := ""
	for !line.isEOL() {
		by := line.line[line.pos]
		// Sign may start a number or follow an exponent.
		sign := (by == '+' || by == '-') &&
			(value == "" || strings.HasSuffix(strings.ToUpper(value), "E"))
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || by == '.' || sign {
			value += string([]byte{by})
			line.pos++
			continue
		}
		break
	}
	if value == "" {
		return nil
	}
	return &FirstOption{value: value}
}

// Parse string that is "string" or just string. Starts at the
// character before the string.
func (line *optionLine) parseQuoteString() (string, bool) {
	inQuote := false
	value := ""

	// If quote, set we are in quoted string
	if line.getPeek() == '"' {
		inQuote = true
		line.pos++
	}

	for {
		line.pos++
		if line.pos >= len(line.line) {
			return value, !inQuote
		}
		by := line.line[line.pos]
		if inQuote {
			// "" gets replaced by single quote.
			if by == '"' {
				if line.getPeek() != '"' {
					// Hit end of string.
					line.pos++
					return value, true
				}
				line.pos++
			}
			if by == '\n' || by == '\r' {
				return value, false
			}
			value += string(by)
			continue
		}

		// Space or comma terminates a no quoted string.
		if unicode.IsSpace(rune(by)) || by == ',' || by == '#' {
			return value, true
		}
		value += string(by)
	}
}

// Parse option name.
func (line *optionLine) getName() (string, error) {
	// Check if end of line.
	if line.isEOL() {
		return "", nil
	}

	// First character must be alphabetic.
	by := line.line[line.pos]
	if !unicode.IsLetter(rune(by)) {
		return "", errors.Errorf("Invalid option encountered line: %d [%d]", lineNumber, line.pos)
	}
	value := ""

	// Already verified that first character is letter,
	// so grab until not letter or number.
	for by != 0 {
		value += string([]byte{by})
		by = line.getNext()
	}

	return value, nil
}

// Parse options for a line.
func (line *optionLine) parseOption() (*Option, error) {
	// Skip leading space
	line.skipSpace()

	// Grab option name
	value, err := line.getName()
	if value == "" {
		return nil, err
	}

	// Empty option.
	option := Option{Name: value}

	// If at end of line done.
	if line.isEOL() {
		return &option, nil
	}

	// Check if equals option.
	if line.line[line.pos] == '=' {
		v, ok := line.parseQuoteString()
		if !ok {
			return nil, errors.Errorf("Invalid quoted string line: %d [%d]", lineNumber, line.pos)
		}
		option.EqualOpt = v
	}

	// Skip any spaces.
	line.skipSpace()

	// Grab all , options
	for !line.isEOL() && line.line[line.pos] == ',' {
		line.pos++ // Skip comma
		// Skip space between , and next option
		line.skipSpace()
		v, err := line.getName()
		if err != nil {
			return nil, err
		}
		if v != "" {
			option.Value = append(option.Value, &v)
		}
		// Skip any trailing spaces.
		line.skipSpace()
	}

	return &option, nil
}

// Collect all options for line.
func (line *optionLine) parseOptions() ([]Option, error) {
	options := []Option{}
	for {
		option, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if option == nil {
			break
		}
		options = append(options, *option)
	}
	return options, nil
}
