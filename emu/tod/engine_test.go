/*
 * S370 - TOD clock engine tests
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
	"sync"
	"testing"
	"time"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Host clock under test control. Each read advances by step.
type fakeHost struct {
	mu   sync.Mutex
	sec  int64
	nsec int64
	step int64
}

func newFakeHost(t time.Time, step time.Duration) *fakeHost {
	return &fakeHost{sec: t.Unix(), nsec: int64(t.Nanosecond()), step: int64(step)}
}

func (f *fakeHost) Now() (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sec, nsec := f.sec, f.nsec
	f.advanceLocked(f.step)
	return sec, nsec, nil
}

func (f *fakeHost) advance(d time.Duration) {
	f.mu.Lock()
	f.advanceLocked(int64(d))
	f.mu.Unlock()
}

func (f *fakeHost) advanceLocked(ns int64) {
	f.nsec += ns
	f.sec += f.nsec / 1e9
	f.nsec %= 1e9
}

var june2024 = time.Unix(1717200000, 0).UTC()

// Engine with every CPU online.
func newTestEngine(t *testing.T, host *fakeHost, prec etod.Precision, cpus int) *Engine {
	t.Helper()
	e, err := New(Config{Precision: prec, MaxCPU: cpus, Host: host})
	require.NoError(t, err)
	for i := range cpus {
		require.NoError(t, e.Online(i))
	}
	return e
}

func TestNewDefaults(t *testing.T) {
	re := require.New(t)
	e, err := New(Config{Host: newFakeHost(june2024, time.Microsecond)})
	re.NoError(err)
	re.Equal(etod.Precision120, e.Precision())
	re.Equal(1, e.MaxCPU())
	re.Equal(uint(6), e.cpuWidth)

	year, yr, tz := e.EpochConfig()
	re.Equal(1900, year)
	re.Zero(yr)
	re.Zero(tz)
}

func TestNewRejects(t *testing.T) {
	re := require.New(t)
	_, err := New(Config{Precision: 100})
	re.Equal(etod.ErrPrecision, errors.Cause(err))
	_, err = New(Config{MaxCPU: 257})
	re.Equal(ErrMaxCPU, errors.Cause(err))
	_, err = New(Config{MaxCPU: -1})
	re.Equal(ErrMaxCPU, errors.Cause(err))
}

func TestCPUFieldWidth(t *testing.T) {
	re := require.New(t)
	for _, tc := range []struct {
		cpus  int
		width uint
	}{{1, 6}, {64, 6}, {65, 7}, {128, 7}, {129, 8}, {256, 8}} {
		e, err := New(Config{MaxCPU: tc.cpus, Host: newFakeHost(june2024, 0)})
		re.NoError(err)
		re.Equal(tc.width, e.cpuWidth, "cpus %d", tc.cpus)
		re.Equal(uint64(1)<<tc.width-1, e.cpuMask)
	}
}

func TestHardwareClockTracksHost(t *testing.T) {
	re := require.New(t)
	host := newFakeHost(june2024, 0)
	e := newTestEngine(t, host, etod.Precision120, 1)

	re.Equal(etod.FromTime(june2024, etod.Precision120).High, e.HardwareClock())
	host.advance(time.Second)
	re.Equal(etod.FromTime(june2024, etod.Precision120).High+etod.Second, e.HardwareClock())
}

func TestHardwareClockUnique(t *testing.T) {
	re := require.New(t)
	host := newFakeHost(june2024, 0)
	e := newTestEngine(t, host, etod.Precision64, 1)

	re.True(e.UniqueIncrement().IsZero())
	first := e.HardwareClock()
	second := e.HardwareClock()
	third := e.HardwareClock()
	re.Equal(first+1, second)
	re.Equal(second+1, third)
	re.Equal(etod.ETOD{High: 1}, e.UniqueIncrement())
}

func TestCalibrateMinimum(t *testing.T) {
	for _, prec := range []etod.Precision{etod.Precision64, etod.Precision95, etod.Precision120} {
		e := newTestEngine(t, newFakeHost(june2024, 0), prec, 1)
		e.mu.Lock()
		e.calibrate()
		e.mu.Unlock()
		require.Equal(t, e.stckStep(), e.UniqueIncrement(), "precision %d", prec)
		require.False(t, e.UniqueIncrement().Less(prec.MinIncrement()), "precision %d", prec)
	}
	e := newTestEngine(t, newFakeHost(june2024, 0), etod.Precision120, 1)
	require.Equal(t, etod.ETOD{Low: 1 << 62}, e.stckStep())
	e = newTestEngine(t, newFakeHost(june2024, 0), etod.Precision95, 200)
	require.Equal(t, etod.ETOD{High: 1}, e.stckStep())
}

func TestCalibrateFromHostStep(t *testing.T) {
	re := require.New(t)
	// 65536 samples one microsecond apart.
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 1)
	e.mu.Lock()
	e.calibrate()
	e.mu.Unlock()
	inc := e.UniqueIncrement()
	re.Equal(uint64(15), inc.High)
	re.Zero(inc.Low &^ etod.Precision120.Mask())
}

func TestStandardStrictlyIncreasing(t *testing.T) {
	for _, prec := range []etod.Precision{etod.Precision64, etod.Precision95, etod.Precision120} {
		for _, step := range []time.Duration{0, time.Nanosecond, time.Microsecond} {
			e := newTestEngine(t, newFakeHost(june2024, step), prec, 4)

			var mu sync.Mutex
			seen := make(map[uint64]bool)
			var g errgroup.Group
			for cpu := range 4 {
				g.Go(func() error {
					prev := uint64(0)
					values := make([]uint64, 0, 1000)
					for range 1000 {
						v := e.StoreClock(cpu)
						if prev != 0 && v <= prev {
							return errors.Errorf("cpu %d clock went from %016x to %016x", cpu, prev, v)
						}
						if got := v & e.cpuMask; got != uint64(cpu) {
							return errors.Errorf("cpu %d stamped as %d", cpu, got)
						}
						prev = v
						values = append(values, v)
					}
					mu.Lock()
					defer mu.Unlock()
					for _, v := range values {
						if seen[v] {
							return errors.Errorf("duplicate clock value %016x", v)
						}
						seen[v] = true
					}
					return nil
				})
			}
			require.NoError(t, g.Wait(), "precision %d step %s", prec, step)
			require.Len(t, seen, 4000, "precision %d step %s", prec, step)
		}
	}
}

func TestFrozenHostStandard(t *testing.T) {
	for _, prec := range []etod.Precision{etod.Precision64, etod.Precision95, etod.Precision120} {
		e := newTestEngine(t, newFakeHost(june2024, 0), prec, 3)

		prev := e.StoreClock(0)
		for i := range 300 {
			v := e.StoreClock(i % 3)
			require.Greater(t, v, prev, "precision %d read %d", prec, i)
			prev = v
		}
	}
}

func TestStandardVisibleWatermark(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Nanosecond), etod.Precision120, 1)

	v := e.ArchitectedClock(0, Standard)
	re.Zero(v.Low &^ stckLowMask)
	re.Equal(v, e.Watermark())
	re.Greater(e.StoreClock(0), v.TOD())
}

func TestLastStoreClock(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 2)
	re.Zero(e.LastStoreClock())

	e.SetEpoch(int64(etod.Second))
	v := e.StoreClock(1)
	re.Equal(v, e.LastStoreClock())
	fast := e.ArchitectedClock(NoCPU, Fast)
	re.Equal(fast.TOD(), e.LastStoreClock())
}

func TestExtendedStamp(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 8)

	v := e.ExtendedClock(5)
	re.Equal(uint64(5), v.Low>>16&e.cpuMask)
	re.Zero(v.Low & 0xFFFF)
	re.True(e.ExtendedClock(5).After(v))
}

func TestExtendedZeroRotates(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, 0), etod.Precision120, 1)
	c := e.cpu(0)

	e.mu.Lock()
	first := e.stamp(c, 0, etod.ETOD{High: 10}, Extended)
	second := e.stamp(c, 0, etod.ETOD{High: 10}, Extended)
	e.mu.Unlock()
	re.Equal(uint64(0x40<<16|1), first.Low)
	re.Equal(uint64(0x40<<16|2), second.Low)
}

func TestRawReturnsWatermark(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, 0), etod.Precision120, 8)

	stamped := e.ArchitectedClock(5, Standard)
	re.Equal(uint64(5)<<56, stamped.Low)
	re.Equal(stamped, e.ArchitectedClock(NoCPU, Raw))
	re.Equal(stamped, e.ArchitectedClock(NoCPU, Fast))
	re.Equal(stamped, e.Watermark())

	next := e.ArchitectedClock(5, Standard)
	re.True(next.After(stamped))
}

func TestInvalidCPUReadsAsNoCPU(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 1)
	e.SetEpoch(int64(etod.Day))

	v := e.ArchitectedClock(9, Standard)
	hw := e.HardwareClock()
	re.Less(v.High, hw+etod.Day)
	re.Greater(v.High, hw+etod.Day-etod.Millisecond)
}

func TestFormatString(t *testing.T) {
	re := require.New(t)
	re.Equal("standard", Standard.String())
	re.Equal("extended", Extended.String())
	re.Equal("raw", Raw.String())
	re.Equal("fast", Fast.String())
	re.Equal("unknown", Format(9).String())
}

func TestReset(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, time.Microsecond), etod.Precision120, 2)
	e.SetEpoch(1000)
	e.SetSteering(1e-6)
	re.NoError(e.SetCPUTimer(1, 1<<40))
	e.ArchitectedClock(0, Standard)
	before := e.Watermark()

	e.Reset()
	re.Zero(e.Epoch())
	re.Zero(e.Steering())
	re.True(e.UniqueIncrement().IsZero())
	epoch, err := e.CPUEpoch(1)
	re.NoError(err)
	re.Zero(epoch)
	timer, err := e.CPUTimer(1)
	re.NoError(err)
	re.Zero(timer)
	re.Equal(before, e.Watermark())
}

func TestOnlineOffline(t *testing.T) {
	re := require.New(t)
	host := newFakeHost(june2024, time.Microsecond)
	e, err := New(Config{MaxCPU: 2, Host: host})
	re.NoError(err)

	re.False(e.IsOnline(0))
	re.False(e.IsOnline(7))
	re.NoError(e.Online(1))
	re.True(e.IsOnline(1))
	re.Equal(ErrCPUAddress, errors.Cause(e.Online(2)))
	re.Equal(ErrCPUAddress, errors.Cause(e.Offline(-1)))

	re.NoError(e.SetIntervalTimer(1, 100))
	re.NoError(e.Offline(1))
	re.False(e.IsOnline(1))
	re.NoError(e.Online(1))
	v, err := e.IntervalTimer(1)
	re.NoError(err)
	re.Zero(v)
}

func TestDebugOptions(t *testing.T) {
	re := require.New(t)
	e := newTestEngine(t, newFakeHost(june2024, 0), etod.Precision64, 1)
	re.True(ValidDebug("STEERING"))
	re.False(ValidDebug("steering"))
	re.False(ValidDebug("BOGUS"))
	re.Error(e.Debug("BOGUS"))
	re.False(e.debugOn(debugEpoch))
	re.NoError(e.Debug("EPOCH"))
	re.NoError(e.Debug("TIMER"))
	re.True(e.debugOn(debugEpoch))
	re.True(e.debugOn(debugTimer))
	re.False(e.debugOn(debugSteering))
}
