package output

import (
	"fmt"
	"os"
)

// Info prints an informational message to stdout with an info prefix.
// Reserved for narration around a blocking session loop, where the
// final result is reported separately through a Formatter and these
// lines are just progress commentary a foreground operator watches.
func Info(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, "ℹ️  "+msg)
}

// Infof prints a formatted informational message to stdout.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message to stderr with a warning prefix.
func Warn(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, "⚠️  "+msg)
}

// Warnf prints a formatted warning message to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Success prints a success message to stdout with a success prefix.
func Success(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, "✅ "+msg)
}

// Successf prints a formatted success message to stdout.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// SessionStarted narrates a session's foreground launch: the ID an
// operator needs for a `session status --id` lookup from another
// terminal, and what will make this process return.
func SessionStarted(sessionID string, stopsOnDuration bool) {
	if stopsOnDuration {
		Infof("session %s running -- will stop automatically when its duration elapses, or on Ctrl+C", sessionID)
		return
	}
	Infof("session %s running -- press Ctrl+C to stop", sessionID)
}

// SessionStopping narrates why a session's foreground loop is about to
// unwind, distinguishing an operator-requested stop from one the
// session's own activity window triggered.
func SessionStopping(sessionID string, reason string) {
	Infof("stopping session %s (%s)", sessionID, reason)
}

// SellOnStopWarning flags that a session stop will liquidate any
// tokens its wallets are still holding, since that's an irreversible
// market sell an operator watching the terminal should notice.
func SellOnStopWarning(sessionID string) {
	Warnf("session %s: selling held tokens back to native on stop", sessionID)
}
