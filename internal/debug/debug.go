// Package debug provides channel-based debug logging. Channels are
// enabled per-name (e.g. "tup.updater") via Enable or the TUP_DEBUG
// environment variable (comma-separated channel list, or "1"/"all" for
// everything). Output goes to stderr, or to a rotating log file when
// TUP_LOG_FILE is set.
package debug

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu       sync.Mutex
	channels = map[string]bool{}
	all      bool
	out      io.Writer = os.Stderr
)

func init() {
	if path := os.Getenv("TUP_LOG_FILE"); path != "" {
		out = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
	}
	switch env := os.Getenv("TUP_DEBUG"); env {
	case "":
	case "1", "true", "all":
		all = true
	default:
		for _, name := range strings.Split(env, ",") {
			channels[strings.TrimSpace(name)] = true
		}
	}
}

// Enable turns on the named debug channel.
func Enable(name string) {
	mu.Lock()
	defer mu.Unlock()
	channels[name] = true
}

// Enabled reports whether the named channel is active.
func Enabled(name string) bool {
	mu.Lock()
	defer mu.Unlock()
	return all || channels[name]
}

// Logf writes a line when any debug channel is active. Used for
// general diagnostics that don't belong to a specific channel.
func Logf(format string, args ...any) {
	mu.Lock()
	active := all || len(channels) > 0
	w := out
	mu.Unlock()
	if active {
		fmt.Fprintf(w, format, args...)
	}
}

// Channel is a named debug channel. The zero value logs nothing.
type Channel string

// Logf writes a line prefixed with the channel name when the channel
// is enabled.
func (c Channel) Logf(format string, args ...any) {
	if c == "" || !Enabled(string(c)) {
		return
	}
	mu.Lock()
	w := out
	mu.Unlock()
	fmt.Fprintf(w, "%s: %s", c, fmt.Sprintf(format, args...))
}
