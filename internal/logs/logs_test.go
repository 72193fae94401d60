package logs

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"gopkg.in/natefinch/lumberjack.v2"
)

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, slog.LevelDebug))
	l.Info("device identified", "device", "ATtiny85", "signature", "0x930B")

	re := regexp.MustCompile(`^\d{4}/\d\d/\d\d \d\d:\d\d:\d\d INFO: device identified device=ATtiny85 signature=0x930B\n$`)
	if !re.MatchString(buf.String()) {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, slog.LevelInfo))
	l.Debug("frame", "data", "0x08")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
	l.Warn("timeout")
	if !strings.Contains(buf.String(), "WARN: timeout") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, nil)).With("session", 3).WithGroup("fuse")
	l.Info("write", "addr", "LFUSE", slog.Group("val", "hex", "0x62"))

	got := buf.String()
	_, rest, ok := strings.Cut(got, "INFO: ")
	if !ok {
		t.Fatalf("no level in %q", got)
	}
	if want := "write session=3 fuse.addr=LFUSE fuse.val.hex=0x62\n"; rest != want {
		t.Errorf("got %q, want %q", rest, want)
	}

	// Attrs added to a derived logger must not leak into its parent.
	buf.Reset()
	base := slog.New(NewHandler(&buf, nil))
	_ = base.With("a", 1)
	base.Info("plain")
	if strings.Contains(buf.String(), "a=1") {
		t.Errorf("parent logger carries derived attrs: %q", buf.String())
	}
}

func TestNewLevels(t *testing.T) {
	if New("", false).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug enabled without verbose")
	}
	if !New("", true).Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug disabled with verbose")
	}
}

func TestWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hvsp.log")
	w := Writer(path)
	lj, ok := w.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("Writer(%q) is %T", path, w)
	}
	defer lj.Close()

	l := slog.New(NewHandler(w, nil))
	l.Info("session started", "action", "erase")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "INFO: session started action=erase") {
		t.Errorf("log file holds %q", b)
	}
	if Writer("") != os.Stderr {
		t.Error("Writer(\"\") is not stderr")
	}
}
