/*
 * S370 - Clock checkpoint files
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
	"bufio"
	"log/slog"
	"os"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/util/checkpoint"
)

// Save clock state to file.
func (core *Core) SaveFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return errors.Trace(err)
	}
	buf := bufio.NewWriter(file)
	err = core.engine.Save(checkpoint.NewWriter(buf))
	if err == nil {
		err = errors.Trace(buf.Flush())
	}
	if cerr := file.Close(); err == nil {
		err = errors.Trace(cerr)
	}
	if err == nil {
		slog.Info("Clock saved", "file", name)
	}
	return err
}

// Restore clock state from file.
func (core *Core) RestoreFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	return core.engine.Restore(checkpoint.NewReader(file))
}
