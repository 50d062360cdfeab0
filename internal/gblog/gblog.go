// Package gblog is the logging facility shared by the emulation core.
// Output is filtered by a severity level and a bitmask of channels
// before anything is formatted, so disabled log sites cost almost
// nothing on the interpreter's hot path.
package gblog

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level is the severity of a log entry. Lower values are more severe.
type Level int

const (
	Err Level = iota
	Warn
	Info
	Trace
)

func (l Level) String() string {
	switch l {
	case Err:
		return "ERR"
	case Warn:
		return "WRN"
	case Info:
		return "INF"
	case Trace:
		return "TRC"
	}
	return "???"
}

// Channel identifies the subsystem a log entry originates from.
// Channels combine as a bitmask when enabling them on a Logger.
type Channel uint8

const (
	CART Channel = 1 << iota
	BUS
	CPU

	AllChannels = CART | BUS | CPU
)

func (c Channel) String() string {
	switch c {
	case CART:
		return "cart"
	case BUS:
		return "bus"
	case CPU:
		return "cpu"
	}
	return "multi"
}

// Logger filters entries by level and channel and writes them to a
// sink. Consecutive identical entries are collapsed into a repeat
// count rather than re-emitted, which keeps tight emulation loops from
// flooding the sink.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	level    Level
	channels Channel

	lastLine string
	repeated int
}

// New returns a Logger writing to out. Entries above level or on a
// channel outside the mask are dropped. A nil out discards everything
// after filtering.
func New(out io.Writer, level Level, channels Channel) *Logger {
	return &Logger{out: out, level: level, channels: channels}
}

// Discard returns a Logger that filters out every entry. Core
// components accept it as a stand-in when the host supplies no sink.
func Discard() *Logger {
	return &Logger{level: Level(-1)}
}

// SetLevel changes the maximum level that will be emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Enabled reports whether an entry at the given level and channel
// would be emitted. Hot call sites use it to skip argument building.
func (l *Logger) Enabled(level Level, ch Channel) bool {
	return level <= l.level && l.channels&ch != 0
}

// Logf formats and emits one entry. The entry is dropped without
// formatting when the level or channel filter rejects it.
func (l *Logger) Logf(level Level, ch Channel, format string, args ...any) {
	if !l.Enabled(level, ch) {
		return
	}

	line := fmt.Sprintf("%s %s: %s", level, ch, fmt.Sprintf(format, args...))
	line = strings.ReplaceAll(line, "\n", " ")

	l.mu.Lock()
	defer l.mu.Unlock()

	if line == l.lastLine {
		l.repeated++
		return
	}
	l.flushRepeatLocked()
	l.lastLine = line
	if l.out != nil {
		io.WriteString(l.out, line+"\n")
	}
}

// Flush writes any pending repeat marker. Hosts call it before
// inspecting the sink.
func (l *Logger) Flush() {
	l.mu.Lock()
	l.flushRepeatLocked()
	l.mu.Unlock()
}

func (l *Logger) flushRepeatLocked() {
	if l.repeated > 0 && l.out != nil {
		fmt.Fprintf(l.out, "%s (repeated %d more times)\n", l.lastLine, l.repeated)
	}
	l.repeated = 0
}
