/*
 * S370 - TOD epoch tests
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
	"testing"
	"time"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func day(n int64) int64 {
	return n * int64(etod.Day)
}

func TestSetEpochPropagates(t *testing.T) {
	re := require.New(t)
	e, err := New(Config{MaxCPU: 3, Host: newFakeHost(june2024, time.Microsecond)})
	re.NoError(err)
	re.NoError(e.Online(0))
	re.NoError(e.Online(1))

	e.SetEpoch(100)
	re.Equal(int64(100), e.Epoch())
	for cpu, want := range []int64{100, 100, 0} {
		got, err := e.CPUEpoch(cpu)
		re.NoError(err)
		re.Equal(want, got, "cpu %d", cpu)
	}
	re.NoError(e.Online(2))
	got, err := e.CPUEpoch(2)
	re.NoError(err)
	re.Equal(int64(100), got)

	e.AdjustEpoch(-50)
	re.Equal(int64(50), e.Epoch())
	got, err = e.CPUEpoch(2)
	re.NoError(err)
	re.Equal(int64(50), got)

	_, err = e.CPUEpoch(3)
	re.Equal(ErrCPUAddress, errors.Cause(err))
}

func TestSetEpochConcurrent(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 4)

	var g errgroup.Group
	for i := range 8 {
		g.Go(func() error {
			for j := range 100 {
				e.SetEpoch(int64(i*1000 + j))
			}
			return nil
		})
	}
	for cpu := range 4 {
		g.Go(func() error {
			for range 100 {
				e.ArchitectedClock(cpu, Fast)
			}
			return nil
		})
	}
	re.NoError(g.Wait())

	epoch := e.Epoch()
	for cpu := range 4 {
		got, err := e.CPUEpoch(cpu)
		re.NoError(err)
		re.Equal(epoch, got, "cpu %d", cpu)
	}
}

func TestSetEpochClearsSteeringRegisters(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 1)
	e.SetSteering(1e-6)
	e.SetFineSteeringRate(5)
	e.SetTODOffset(99)

	e.SetEpoch(0)
	info := e.QuerySteeringInformation()
	re.Zero(info.Old)
	re.Zero(info.New)
	re.Equal(1e-6, e.Steering())
}

func TestSetClock(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 1)
	want := 100 * etod.Second

	e.SetClock(want)
	got := e.ArchitectedClock(NoCPU, Raw).High
	re.GreaterOrEqual(got, want)
	re.Less(got, want+etod.Millisecond)
}

func TestArchitectedClockAddsCPUEpoch(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 1)
	e.SetEpoch(day(-1))

	hw := e.HardwareClock()
	got := e.ArchitectedClock(0, Fast).High
	re.Greater(got, hw-etod.Day)
	re.Less(got, hw-etod.Day+etod.Millisecond)
}

// Engine with frozen host at the given unix time.
func engineAt(t *testing.T, unix int64) *Engine {
	t.Helper()
	return newTestEngine(t, newFakeHost(time.Unix(unix, 0), 0), etod.Precision64, 1)
}

func TestConfigureEpoch(t *testing.T) {
	re := require.New(t)
	e := engineAt(t, 1717200000)

	re.NoError(e.Configure(1900, 0, 0))
	re.Zero(e.Epoch())

	re.NoError(e.Configure(1960, 0, 0))
	re.Equal(day(-21915)+day(1), e.Epoch())
	year, yr, tz := e.EpochConfig()
	re.Equal(1960, year)
	re.Zero(yr)
	re.Zero(tz)
}

func TestConfigureTimezone(t *testing.T) {
	re := require.New(t)
	e := engineAt(t, 1717200000)

	re.NoError(e.ConfigureTimezoneOffset(530))
	re.Equal(int64(330*etod.Minute), e.Epoch())
	re.NoError(e.ConfigureTimezoneOffset(-530))
	re.Equal(-int64(330*etod.Minute), e.Epoch())
	re.NoError(e.ConfigureTimezoneOffset(-2359))
	re.Equal(-int64(23*60+59)*int64(etod.Minute), e.Epoch())
}

func TestConfigureYearOffset(t *testing.T) {
	for _, tc := range []struct {
		name string
		unix int64
		days int64
	}{
		{"after leap day", 1717200000, 366},
		{"common year", 1748736000, 365},
		{"before leap day", 1705276800, 365},
		{"on leap day", 1709164800, 366},
	} {
		t.Run(tc.name, func(t *testing.T) {
			re := require.New(t)
			e := engineAt(t, tc.unix)
			re.NoError(e.ConfigureYearOffset(-1))
			re.Equal(day(-tc.days), e.Epoch())
		})
	}
}

func TestConfigureConcurrent(t *testing.T) {
	re := require.New(t)
	e := engineAt(t, 1717200000)

	var g errgroup.Group
	g.Go(func() error {
		for range 50 {
			if err := e.ConfigureEpoch(1960); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for range 50 {
			if err := e.ConfigureYearOffset(-1); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for range 50 {
			if err := e.ConfigureTimezoneOffset(530); err != nil {
				return err
			}
		}
		return nil
	})
	re.NoError(g.Wait())

	year, yr, tz := e.EpochConfig()
	re.Equal(1960, year)
	re.Equal(-1, yr)
	re.Equal(530, tz)

	want := engineAt(t, 1717200000)
	re.NoError(want.Configure(1960, -1, 530))
	re.Equal(want.Epoch(), e.Epoch())
}

func TestConfigureRejects(t *testing.T) {
	re := require.New(t)
	e := engineAt(t, 1717200000)
	re.NoError(e.Configure(1960, 2, 100))
	epoch := e.Epoch()

	re.Equal(ErrTimezoneOffset, errors.Cause(e.Configure(1900, 0, 2400)))
	re.Equal(ErrTimezoneOffset, errors.Cause(e.ConfigureTimezoneOffset(160)))
	re.Equal(ErrYearOffset, errors.Cause(e.ConfigureYearOffset(143)))
	re.Equal(ErrYearOffset, errors.Cause(e.Configure(1900, -143, 0)))
	re.Equal(ErrEpochYear, errors.Cause(e.ConfigureEpoch(1970)))

	re.Equal(epoch, e.Epoch())
	year, yr, tz := e.EpochConfig()
	re.Equal(1960, year)
	re.Equal(2, yr)
	re.Equal(100, tz)
}

func TestCivilDays(t *testing.T) {
	re := require.New(t)
	for _, days := range []int64{-25567, -1, 0, 59, 19875, 19782, 100000} {
		y, m, d := civilFromDays(days)
		re.Equal(days, daysFromCivil(y, m, d))
	}
	y, m, d := civilFromDays(19875)
	re.Equal([]int64{2024, 6, 1}, []int64{y, m, d})
	re.True(isLeap(2000))
	re.False(isLeap(1900))
	re.True(isLeap(2024))
	re.Equal(int64(-1), floorDiv(-1, 4))
	re.Equal(int64(1), floorDiv(7, 4))
}
