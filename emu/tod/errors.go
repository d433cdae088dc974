/*
 * S370 - TOD clock errors
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

import "github.com/pingcap/errors"

var (
	ErrEpochYear       = errors.New("epoch year must be 1900 or 1960")
	ErrYearOffset      = errors.New("year offset must be between -142 and 142")
	ErrTimezoneOffset  = errors.New("timezone offset must be between -2359 and 2359")
	ErrMaxCPU          = errors.New("number of CPUs must be between 1 and 256")
	ErrCPUAddress      = errors.New("CPU address out of range")
	ErrCPUOffline      = errors.New("CPU is not online")
	ErrCheckpointValue = errors.New("invalid TOD checkpoint value")
)
