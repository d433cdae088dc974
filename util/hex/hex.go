/*
 * S370 - Format clock values in hex
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

package hex

import "strings"

var hexMap = "0123456789ABCDEF"

// Format list of 32 bit words, each followed by a space.
func FormatWord(str *strings.Builder, word []uint32) {
	for _, full := range word {
		shift := 28
		for range 8 {
			str.WriteByte(hexMap[(full>>shift)&0xf])

			shift -= 4
		}
		str.WriteByte(' ')
	}
}

// Format a 64 bit value as 16 hex digits.
func FormatDouble(str *strings.Builder, value uint64) {
	shift := 60
	for range 16 {
		str.WriteByte(hexMap[(value>>shift)&0xf])
		shift -= 4
	}
}

// Format a signed 64 bit value, negative values get a leading minus.
func FormatSigned(str *strings.Builder, value int64) {
	if value < 0 {
		str.WriteByte('-')
		FormatDouble(str, uint64(-value))
		return
	}
	FormatDouble(str, uint64(value))
}

// Format a 64 bit value as two words split by a space.
func FormatTOD(str *strings.Builder, value uint64) {
	FormatWord(str, []uint32{uint32(value >> 32), uint32(value)})
}
