/*
 * S370 - TOD clock metrics
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

import "github.com/prometheus/client_golang/prometheus"

const timerLabel = "timer"

var (
	frontendSpins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "frontend_spins_total",
			Help:      "Counter of clock reads retried to stay strictly increasing.",
		})

	spinDiagnostics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "spin_threshold_total",
			Help:      "Counter of clock reads that exceeded the spin diagnostic threshold.",
		})

	staleReads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "stale_reads_total",
			Help:      "Counter of raw or fast reads answered from the watermark.",
		})

	steeringEpisodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "steering_episodes_total",
			Help:      "Counter of steering episodes started.",
		})

	calibrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "calibrations_total",
			Help:      "Counter of uniqueness increment calibrations.",
		})

	uniqueIncrement = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "unique_increment",
			Help:      "Calibrated uniqueness increment in high word units.",
		})

	epochGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "epoch",
			Help:      "Current TOD epoch in clock units.",
		})

	timerInterrupts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "s370",
			Subsystem: "tod",
			Name:      "timer_interrupts_total",
			Help:      "Counter of timer interrupts posted.",
		}, []string{timerLabel})
)

// Resolved once so posting an interrupt does not allocate.
var timerInterruptCounters = map[TimerKind]prometheus.Counter{}

func init() {
	prometheus.MustRegister(frontendSpins)
	prometheus.MustRegister(spinDiagnostics)
	prometheus.MustRegister(staleReads)
	prometheus.MustRegister(steeringEpisodes)
	prometheus.MustRegister(calibrations)
	prometheus.MustRegister(uniqueIncrement)
	prometheus.MustRegister(epochGauge)
	prometheus.MustRegister(timerInterrupts)
	for _, kind := range timerKinds {
		timerInterruptCounters[kind] = timerInterrupts.WithLabelValues(kind.String())
	}
}
