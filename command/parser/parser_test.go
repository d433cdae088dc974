/*
 * S370 - Command parser tests
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

package parser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rcornwell/todclock/config/clockconfig"
	core "github.com/rcornwell/todclock/emu/core"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/rcornwell/todclock/emu/tod"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCore(t *testing.T) *core.Core {
	t.Helper()
	s := clockconfig.NewSettings()
	s.MaxCPU = 2
	s.NumCPU = 2
	c, err := core.NewCore(s, nil)
	require.NoError(t, err)
	c.Start()
	t.Cleanup(c.Stop)
	return c
}

func TestQuoteString(t *testing.T) {
	for _, tc := range []struct {
		in    string
		value string
		ok    bool
	}{
		{`file.ckp`, "file.ckp", true},
		{`  file.ckp more`, "file.ckp", true},
		{`"my file.ckp"`, "my file.ckp", true},
		{`"say ""hi"""`, `say "hi"`, true},
		{`"open`, "", false},
		{`"a"b`, "a", false},
		{``, "", false},
	} {
		line := cmdLine{line: tc.in}
		value, ok := line.parseQuoteString()
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.value, value, tc.in)
	}
}

func TestWordAndNumber(t *testing.T) {
	re := require.New(t)
	line := cmdLine{line: "  Epoch=-0500 12ab"}
	re.Equal("epoch", line.getWord())
	re.NoError(line.getEqual("epoch"))
	n, err := line.getNumber()
	re.NoError(err)
	re.Equal(int64(-500), n)
	line.skipSpace()
	_, err = line.getNumber()
	re.Error(err)

	line = cmdLine{line: "ff00 # comment"}
	h, err := line.getHex()
	re.NoError(err)
	re.Equal(uint64(0xff00), h)
	line.skipSpace()
	re.True(line.isEOL())
}

func TestMatchCommand(t *testing.T) {
	re := require.New(t)
	for in, want := range map[string]string{
		"sh": "show", "show": "show", "sa": "save", "set": "set",
		"rest": "restore", "reset": "reset", "sta": "start", "sto": "stop", "quit": "quit",
	} {
		match := matchList(in)
		re.Len(match, 1, in)
		re.Equal(want, match[0].Name, in)
	}
	re.Empty(matchList("s"))
	re.Empty(matchList("showx"))
	re.Empty(matchList(""))
}

func TestSetCommand(t *testing.T) {
	re := require.New(t)
	c := newTestCore(t)
	engine := c.Engine()

	quit, err := ProcessCommand("set epoch=1960 tzoffset=-0500 yroffset=3", c)
	re.NoError(err)
	re.False(quit)
	year, yr, tz := engine.EpochConfig()
	re.Equal([]int{1960, 3, -500}, []int{year, yr, tz})

	_, err = ProcessCommand("set steering=2.5e-6 fine=7 gross=-2 offset=16", c)
	re.NoError(err)
	re.Equal(2.5e-6, engine.Steering())
	info := engine.QuerySteeringInformation()
	re.Equal(int32(7), info.New.FineRate)
	re.Equal(int32(-2), info.New.GrossRate)
	re.Equal(int64(16), info.New.BaseOffset)

	_, err = ProcessCommand("set clock=00E0000000000000", c)
	re.NoError(err)
	got := engine.ArchitectedClock(tod.NoCPU, tod.Raw).High
	re.GreaterOrEqual(got, uint64(0x00E0000000000000))
	re.Less(got, uint64(0x00E0000000000000)+etod.Second)

	for _, bad := range []string{
		"set", "set bogus=1", "set epoch", "set epoch=abc", "set timers",
		"set steering=fast", "set clock=xyz", "set epoch=1970", "set 12",
	} {
		_, err = ProcessCommand(bad, c)
		re.Error(err, bad)
	}
}

func TestShowCommand(t *testing.T) {
	re := require.New(t)
	c := newTestCore(t)
	for _, good := range []string{"show", "sh epoch timers", "show clock # comment"} {
		_, err := ProcessCommand(good, c)
		re.NoError(err, good)
	}
	for _, bad := range []string{"show epoch=5", "show fine", "show bogus"} {
		_, err := ProcessCommand(bad, c)
		re.Error(err, bad)
	}
}

func TestSaveRestoreCommand(t *testing.T) {
	re := require.New(t)
	c := newTestCore(t)
	name := filepath.Join(t.TempDir(), "clock.ckp")
	c.Engine().SetEpoch(321)

	_, err := ProcessCommand(`save "`+name+`"`, c)
	re.NoError(err)
	c.Engine().SetEpoch(0)
	_, err = ProcessCommand("restore "+name, c)
	re.NoError(err)
	re.Equal(int64(321), c.Engine().Epoch())

	for _, bad := range []string{"save", "restore a b", `save "open`} {
		_, err = ProcessCommand(bad, c)
		re.Error(err, bad)
	}
}

func TestControlCommands(t *testing.T) {
	re := require.New(t)
	c := newTestCore(t)

	_, err := ProcessCommand("start", c)
	re.NoError(err)
	re.Eventually(c.Running, time.Second, time.Millisecond)
	_, err = ProcessCommand("stop", c)
	re.NoError(err)
	re.Eventually(func() bool { return !c.Running() }, time.Second, time.Millisecond)

	c.Engine().SetEpoch(99)
	_, err = ProcessCommand("reset", c)
	re.NoError(err)
	re.Eventually(func() bool { return c.Engine().Epoch() == 0 }, time.Second, time.Millisecond)
	_, err = ProcessCommand("reset now", c)
	re.Error(err)

	quit, err := ProcessCommand("quit", c)
	re.NoError(err)
	re.True(quit)

	quit, err = ProcessCommand("   ", c)
	re.NoError(err)
	re.False(quit)

	for _, bad := range []string{"bogus", "s", "set1", "123"} {
		_, err = ProcessCommand(bad, c)
		re.Error(err, bad)
	}
}

func TestComplete(t *testing.T) {
	re := require.New(t)
	c := newTestCore(t)

	re.Equal([]string{"reset ", "restore "}, CompleteCmd("re", c))
	re.Len(CompleteCmd("", c), len(cmdList))
	re.Equal([]string{"set epoch="}, CompleteCmd("set ep", c))
	re.Equal([]string{"set epoch=1960 steering="}, CompleteCmd("set epoch=1960 st", c))
	re.Equal([]string{"show timers "}, CompleteCmd("show ti", c))
	re.Nil(CompleteCmd("set epoch=19", c))
	re.Nil(CompleteCmd("quit now", c))
	re.Nil(CompleteCmd("set1", c))
}
