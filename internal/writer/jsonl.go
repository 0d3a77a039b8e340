// Package writer implements SessionWriter (spec.md §4.6): the
// transactional multi-sink commit that owns the four append-only logs,
// the video encoder subprocess, and the final temp-dir-to-name rename.
package writer

import (
	"bufio"
	"os"
	"time"
)

// jsonlLog is one append-only text log with the periodic flush policy
// spec.md §4.6 shares across actions.jsonl, compiled_actions.jsonl,
// thoughts.jsonl, and auto_events.jsonl: flush whenever line_count %
// flushLines == 0 OR now - lastFlush >= flushInterval. This bounds data
// at risk on crash without a write to the file per line.
type jsonlLog struct {
	f             *os.File
	w             *bufio.Writer
	flushLines    int
	flushInterval time.Duration
	lineCount     int
	lastFlush     time.Time
}

func openJSONL(path string, flushLines int, flushInterval time.Duration) (*jsonlLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &jsonlLog{
		f:             f,
		w:             bufio.NewWriter(f),
		flushLines:    flushLines,
		flushInterval: flushInterval,
		lastFlush:     time.Now(),
	}, nil
}

// writeLine appends one line (a trailing "\n" is added) and flushes if
// either threshold is crossed.
func (l *jsonlLog) writeLine(line string) error {
	if _, err := l.w.WriteString(line); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	l.lineCount++
	if l.flushLines > 0 && l.lineCount%l.flushLines == 0 {
		return l.flush()
	}
	if l.flushInterval > 0 && time.Since(l.lastFlush) >= l.flushInterval {
		return l.flush()
	}
	return nil
}

func (l *jsonlLog) flush() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	l.lastFlush = time.Now()
	return nil
}

func (l *jsonlLog) close() error {
	if err := l.flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
