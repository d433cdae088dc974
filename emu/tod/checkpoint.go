/*
 * S370 - TOD clock checkpoint
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
	"io"
	"log/slog"
	"strconv"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/rcornwell/todclock/emu/steering"
	"github.com/rcornwell/todclock/util/checkpoint"
)

// Checkpoint tags, all under the "TO" prefix.
const (
	tagPrefix = 0x544F0000
	tagMask   = 0xFFFF0000

	tagCurrent      = tagPrefix | 0x01 // 0 new register, 1 old register.
	tagUniversal    = tagPrefix | 0x02 // Last universal sample, high word.
	tagRate         = tagPrefix | 0x03 // Steering rate as decimal text.
	tagEpisodeStart = tagPrefix | 0x04
	tagOffset       = tagPrefix | 0x05
	tagOldStart     = tagPrefix | 0x06
	tagOldBase      = tagPrefix | 0x07
	tagOldFine      = tagPrefix | 0x08
	tagOldGross     = tagPrefix | 0x09
	tagNewStart     = tagPrefix | 0x0A
	tagNewBase      = tagPrefix | 0x0B
	tagNewFine      = tagPrefix | 0x0C
	tagNewGross     = tagPrefix | 0x0D
	tagEpoch        = tagPrefix | 0x0E
	tagLastHigh     = tagPrefix | 0x0F // Hardware watermark.
	tagLastLow      = tagPrefix | 0x10
)

// Write clock state to checkpoint.
func (e *Engine) Save(w *checkpoint.Writer) error {
	e.mu.Lock()
	s := e.steer.State()
	universal := e.host.Last().High
	last := e.last
	epoch := e.epoch
	e.mu.Unlock()

	current := uint64(0)
	if s.Current == steering.Old {
		current = 1
	}
	w.PutUint64(tagCurrent, current)
	w.PutUint64(tagUniversal, universal)
	w.PutString(tagRate, strconv.FormatFloat(s.Rate, 'g', -1, 64))
	w.PutUint64(tagEpisodeStart, s.EpisodeStart)
	w.PutUint64(tagOffset, uint64(s.Offset))
	w.PutUint64(tagOldStart, s.Old.StartTime)
	w.PutUint64(tagOldBase, uint64(s.Old.BaseOffset))
	w.PutUint64(tagOldFine, uint64(int64(s.Old.FineRate)))
	w.PutUint64(tagOldGross, uint64(int64(s.Old.GrossRate)))
	w.PutUint64(tagNewStart, s.New.StartTime)
	w.PutUint64(tagNewBase, uint64(s.New.BaseOffset))
	w.PutUint64(tagNewFine, uint64(int64(s.New.FineRate)))
	w.PutUint64(tagNewGross, uint64(int64(s.New.GrossRate)))
	w.PutUint64(tagEpoch, uint64(epoch))
	w.PutUint64(tagLastHigh, last.High)
	w.PutUint64(tagLastLow, last.Low)
	if e.debugOn(debugCheckpoint) {
		e.debugf(debugCheckpoint, "saved rate=%g offset=%d epoch=%d", s.Rate, s.Offset, epoch)
	}
	return errors.Trace(w.Err())
}

// Clock state read from a checkpoint stream.
type restoredState struct {
	steer     steering.State
	last      etod.ETOD
	universal uint64
	haveUniv  bool
	epoch     int64
	haveEpoch bool
}

// Restore clock state from checkpoint. Steering and hardware clock state
// is replaced as a whole. Reading stops at end of stream or at the first
// record outside the clock prefix, which is left unread. When the stream
// is bad the engine is left unchanged.
func (e *Engine) Restore(r *checkpoint.Reader) error {
	rs, err := readState(r)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.steer.SetState(rs.steer)
	e.last = rs.last
	e.unique = etod.ETOD{}
	if rs.haveUniv {
		e.host.SetLast(etod.ETOD{High: rs.universal})
	}
	e.mu.Unlock()

	if e.debugOn(debugCheckpoint) {
		e.debugf(debugCheckpoint, "restored rate=%g offset=%d", rs.steer.Rate, rs.steer.Offset)
	}
	if rs.haveEpoch {
		e.installEpoch(rs.epoch)
	}
	slog.Info("TOD clock restored", "epoch", rs.epoch)
	return nil
}

func readState(r *checkpoint.Reader) (restoredState, error) {
	var rs restoredState
	s := &rs.steer
	for {
		tag, err := r.PeekTag()
		if errors.Cause(err) == io.EOF {
			break
		}
		if err != nil {
			return rs, err
		}
		if tag&tagMask != tagPrefix {
			break
		}
		rec, err := r.Next()
		if err != nil {
			return rs, err
		}
		if rec.Tag == tagRate {
			rate, perr := strconv.ParseFloat(rec.String(), 64)
			if perr != nil {
				return rs, errors.Annotatef(ErrCheckpointValue, "steering rate %q", rec.String())
			}
			s.Rate = rate
			continue
		}
		if !knownTag(rec.Tag) {
			continue
		}
		v, err := rec.Uint64()
		if err != nil {
			return rs, err
		}
		switch rec.Tag {
		case tagCurrent:
			switch v {
			case 0:
				s.Current = steering.New
			case 1:
				s.Current = steering.Old
			default:
				return rs, errors.Annotatef(ErrCheckpointValue, "current register %d", v)
			}
		case tagUniversal:
			rs.universal = v
			rs.haveUniv = true
		case tagEpisodeStart:
			s.EpisodeStart = v
		case tagOffset:
			s.Offset = int64(v)
		case tagOldStart:
			s.Old.StartTime = v
		case tagOldBase:
			s.Old.BaseOffset = int64(v)
		case tagOldFine:
			s.Old.FineRate = int32(int64(v))
		case tagOldGross:
			s.Old.GrossRate = int32(int64(v))
		case tagNewStart:
			s.New.StartTime = v
		case tagNewBase:
			s.New.BaseOffset = int64(v)
		case tagNewFine:
			s.New.FineRate = int32(int64(v))
		case tagNewGross:
			s.New.GrossRate = int32(int64(v))
		case tagEpoch:
			rs.epoch = int64(v)
			rs.haveEpoch = true
		case tagLastHigh:
			rs.last.High = v
		case tagLastLow:
			rs.last.Low = v
		}
	}
	return rs, nil
}

func knownTag(tag uint32) bool {
	return tag >= tagCurrent && tag <= tagLastLow
}
