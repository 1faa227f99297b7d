// Package hook launches a user-configured external script on each player
// lifecycle event (§6.5).
package hook

import (
	"os/exec"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Launcher invokes Path through a shell once per event, exporting EVENT plus
// the event's own env vars ahead of it on the same command line. A shell is
// used (rather than exec.Command(Path, ...) with Env set) so users can point
// Path at a one-liner or a script with a shebang interchangeably, matching
// pleezer's hook invocation; that means every value on the line must be
// shell-escaped rather than relying on the shell's own quoting (§9).
type Launcher struct {
	path string
	log  zerolog.Logger
}

// NewLauncher builds a Launcher bound to an external script. Returns nil if
// path is empty: the caller should fall back to a no-op hook in that case.
func NewLauncher(path string, log zerolog.Logger) *Launcher {
	if path == "" {
		return nil
	}
	return &Launcher{path: path, log: log}
}

// Invoke runs the hook script with EVENT and env set in its environment,
// logging (never propagating) any failure to start or a nonzero exit. The
// script runs in its own goroutine so a slow or hanging hook can't stall
// the engine's event loop; callers never see Invoke's outcome, matching
// "invoke-and-log" with no retry or supervision (§1 Non-goals).
func (l *Launcher) Invoke(event string, env map[string]string) {
	if l == nil {
		return
	}

	line := buildCommandLine(l.path, event, env)
	go func() {
		cmd := exec.Command("sh", "-c", line)
		if out, err := cmd.CombinedOutput(); err != nil {
			l.log.Warn().Err(err).Str("event", event).Bytes("output", out).Msg("hook: script failed")
		}
	}()
}

// buildCommandLine renders "EVENT='playing' KEY='value' ... '/path/to/hook'",
// with keys sorted so repeated invocations are deterministic and easy to
// diff in logs.
func buildCommandLine(path, event string, env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("EVENT=")
	b.WriteString(shellQuote(event))
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(shellQuote(env[k]))
	}
	b.WriteByte(' ')
	b.WriteString(shellQuote(path))
	return b.String()
}

// shellQuote single-quotes s, escaping any embedded single quote as
// '\'' (close the quote, emit an escaped quote, reopen), per §9: don't rely
// on any shell's own quoting rules for these values.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
