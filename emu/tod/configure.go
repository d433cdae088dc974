/*
 * S370 - TOD epoch configuration
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
	"log/slog"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/emu/etod"
)

// Operator epoch settings. Written holding Engine.epochMu and Engine.mu,
// read holding Engine.mu.
type epochConfig struct {
	year     int // 1900 or 1960.
	yrOffset int // Years subtracted from the clock.
	tzOffset int // Timezone as signed hhmm.
}

func validEpochYear(year int) error {
	if year != 1900 && year != 1960 {
		return errors.Annotatef(ErrEpochYear, "epoch %d", year)
	}
	return nil
}

func validYearOffset(offset int) error {
	if offset < -142 || offset > 142 {
		return errors.Annotatef(ErrYearOffset, "year offset %d", offset)
	}
	return nil
}

func validTimezone(tz int) error {
	if tz < -2359 || tz > 2359 || abs(tz)%100 > 59 {
		return errors.Annotatef(ErrTimezoneOffset, "timezone offset %d", tz)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Set epoch year, 1900 or 1960.
func (e *Engine) ConfigureEpoch(year int) error {
	if err := validEpochYear(year); err != nil {
		return err
	}
	e.epochMu.Lock()
	defer e.epochMu.Unlock()
	cfg := e.epochConfig()
	cfg.year = year
	return e.applyEpochConfig(cfg)
}

// Set number of years to offset the clock by.
func (e *Engine) ConfigureYearOffset(offset int) error {
	if err := validYearOffset(offset); err != nil {
		return err
	}
	e.epochMu.Lock()
	defer e.epochMu.Unlock()
	cfg := e.epochConfig()
	cfg.yrOffset = offset
	return e.applyEpochConfig(cfg)
}

// Set timezone offset as signed hhmm.
func (e *Engine) ConfigureTimezoneOffset(tz int) error {
	if err := validTimezone(tz); err != nil {
		return err
	}
	e.epochMu.Lock()
	defer e.epochMu.Unlock()
	cfg := e.epochConfig()
	cfg.tzOffset = tz
	return e.applyEpochConfig(cfg)
}

// Set all three epoch parameters. Nothing changes unless every value
// is valid.
func (e *Engine) Configure(year, yrOffset, tz int) error {
	if err := validEpochYear(year); err != nil {
		return err
	}
	if err := validYearOffset(yrOffset); err != nil {
		return err
	}
	if err := validTimezone(tz); err != nil {
		return err
	}
	e.epochMu.Lock()
	defer e.epochMu.Unlock()
	return e.applyEpochConfig(epochConfig{year: year, yrOffset: yrOffset, tzOffset: tz})
}

// Current epoch settings.
func (e *Engine) EpochConfig() (year, yrOffset, tz int) {
	cfg := e.epochConfig()
	return cfg.year, cfg.yrOffset, cfg.tzOffset
}

func (e *Engine) epochConfig() epochConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sysEpoch
}

// Compute and install epoch for settings. Caller must hold e.epochMu.
func (e *Engine) applyEpochConfig(cfg epochConfig) error {
	n := int64(cfg.year - 1900 - cfg.yrOffset)
	day := int64(etod.Day)
	epoch := -(n*365 + n/4) * day
	epoch += e.leapYearAdjust(n)
	if cfg.year == 1960 {
		epoch += day
	}
	tzMinutes := int64((cfg.tzOffset/100)*60 + cfg.tzOffset%100)
	epoch += tzMinutes * int64(etod.Minute)

	e.mu.Lock()
	e.sysEpoch = cfg
	e.mu.Unlock()
	e.setEpochLocked(epoch)

	slog.Info("TOD epoch configured", "epoch", cfg.year, "yroffset", cfg.yrOffset, "tzoffset", cfg.tzOffset)
	return nil
}

// Correct the n*365 + n/4 day estimate to the exact day count between
// today and the same date n years earlier.
func (e *Engine) leapYearAdjust(n int64) int64 {
	if n == 0 {
		return 0
	}
	days := int64(e.HardwareClock()/etod.Day) - etod.Days1900To1970
	y, m, d := civilFromDays(days)
	t := y - n
	if m == 2 && d == 29 && !isLeap(t) {
		d = 28
	}
	exact := days - daysFromCivil(t, m, d)
	return -(exact - (n*365 + n/4)) * int64(etod.Day)
}

func isLeap(y int64) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// Proleptic Gregorian date of days since 1970-01-01.
func civilFromDays(z int64) (y, m, d int64) {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y = yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = doy - (153*mp+2)/5 + 1
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return y, m, d
}

// Days since 1970-01-01 of a proleptic Gregorian date.
func daysFromCivil(y, m, d int64) int64 {
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	var mp int64
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
