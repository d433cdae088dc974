/*
 * S370 - Regular timer event test
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

package timer

import (
	"testing"
	"time"

	"github.com/rcornwell/todclock/emu/master"
	"go.uber.org/goleak"
)

// Wait for count ticks, failing after timeout.
func waitTicks(t *testing.T, ch chan master.Packet, count int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for range count {
		select {
		case v := <-ch:
			if v.Msg != master.TimeClock {
				t.Fatalf("Did not receive correct message from timer: %d", v.Msg)
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for %d ticks", count)
		}
	}
}

// Count ticks received during period.
func countTicks(ch chan master.Packet, period time.Duration) int {
	count := 0
	timeout := time.After(period)
	for {
		select {
		case <-ch:
			count++
		case <-timeout:
			return count
		}
	}
}

func TestTimer(t *testing.T) {
	defer goleak.VerifyNone(t)
	masterChannel := make(chan master.Packet)
	timer := NewTimer(masterChannel, 5*time.Millisecond)
	defer timer.Shutdown()

	if timer.Interval() != 5*time.Millisecond {
		t.Errorf("Interval not set got: %v", timer.Interval())
	}

	// Nothing until started.
	if n := countTicks(masterChannel, 50*time.Millisecond); n != 0 {
		t.Errorf("Expected 0 ticks before start got: %d", n)
	}

	timer.Start()
	waitTicks(t, masterChannel, 5)

	// Drain anything in flight, then make sure it stays quiet.
	timer.Stop()
	countTicks(masterChannel, 50*time.Millisecond)
	if n := countTicks(masterChannel, 100*time.Millisecond); n != 0 {
		t.Errorf("Expected 0 ticks while stopped got: %d", n)
	}

	timer.Start()
	waitTicks(t, masterChannel, 3)
	timer.Stop()
}

func TestShutdownBlockedSend(t *testing.T) {
	defer goleak.VerifyNone(t)
	timer := NewTimer(make(chan master.Packet), time.Millisecond)
	timer.Start()
	time.Sleep(20 * time.Millisecond)
	timer.Shutdown()
}

func TestDefaultInterval(t *testing.T) {
	defer goleak.VerifyNone(t)
	timer := NewTimer(make(chan master.Packet), 0)
	if timer.Interval() != DefaultInterval {
		t.Errorf("Expected default interval got: %v", timer.Interval())
	}
	timer.Shutdown()
}

func TestDebug(t *testing.T) {
	if err := Debug("TICK"); err != nil {
		t.Errorf("TICK not accepted: %v", err)
	}
	if err := Debug("BOGUS"); err == nil {
		t.Error("BOGUS accepted")
	}
	debugMsk = 0
}
