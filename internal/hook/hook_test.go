package hook

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestShellQuoteEscapesEmbeddedQuote(t *testing.T) {
	got := shellQuote(`it's a test`)
	want := `'it'\''s a test'`
	if got != want {
		t.Fatalf("shellQuote = %q, want %q", got, want)
	}
}

func TestShellQuotePlainValue(t *testing.T) {
	if got := shellQuote("hello"); got != "'hello'" {
		t.Fatalf("shellQuote(%q) = %q, want %q", "hello", got, "'hello'")
	}
}

func TestBuildCommandLineSortsKeysAndQuotesEverything(t *testing.T) {
	env := map[string]string{
		"TITLE":  "Don't Stop",
		"ARTIST": "Journey",
	}
	line := buildCommandLine("/usr/local/bin/notify", "playing", env)
	want := "EVENT='playing' ARTIST='Journey' TITLE='Don'\\''t Stop' '/usr/local/bin/notify'"
	if line != want {
		t.Fatalf("buildCommandLine =\n%q\nwant\n%q", line, want)
	}
}

func TestNewLauncherNilForEmptyPath(t *testing.T) {
	if l := NewLauncher("", zerolog.Nop()); l != nil {
		t.Fatal("expected nil Launcher for empty path")
	}
}

func TestInvokeOnNilLauncherDoesNotPanic(t *testing.T) {
	var l *Launcher
	l.Invoke("playing", map[string]string{"USER_ID": "1"})
}
