// Package logger provides levelled logging for discussion-sync.
//
// Messages are written to stderr as "[LEVEL] message" lines. Debug and
// Section output only appears with --verbose; Info is suppressed by
// --quiet; Warn and Error are always written. AddFile tees everything
// into a size-rotated log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// mu also serialises writes to output.
var (
	mu      sync.RWMutex
	verbose bool
	quiet   bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetQuiet suppresses Info messages.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuiet returns true if quiet mode is enabled.
func IsQuiet() bool {
	mu.RLock()
	defer mu.RUnlock()
	return quiet
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// FileOptions controls log file rotation.
type FileOptions struct {
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept.
	MaxBackups int
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int
}

// DefaultFileOptions are used by the CLI's --log-file flag.
var DefaultFileOptions = FileOptions{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}

// AddFile tees log output into a rotating file at path. Close the
// returned closer on shutdown.
func AddFile(path string, opts FileOptions) io.Closer {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}

	mu.Lock()
	defer mu.Unlock()
	output = io.MultiWriter(output, lj)
	return lj
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message unless quiet mode is enabled.
func Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !quiet {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, "[WARN] "+format+"\n", args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, "[ERROR] "+format+"\n", args...)
}
