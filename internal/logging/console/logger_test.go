package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-cms-listing/internal/logging"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func TestConsoleLoggerFormatsSortedFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	logger := logging.WithFields(provider.GetLogger("listing.elements"), map[string]any{"element_key": "news"})
	logger.Info("listing.render.start", "items", 3, "title", "Latest news")

	got := strings.TrimSpace(buf.String())
	want := `2024-03-01T10:00:00Z INFO listing.render.start element_key=news items=3 logger=listing.elements title="Latest news"`
	if got != want {
		t.Fatalf("unexpected entry\nwant %s\ngot  %s", want, got)
	}
}

func TestConsoleLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	level := LevelWarn
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock, MinLevel: &level})

	logger := provider.GetLogger("listing")
	logger.Info("dropped")
	logger.Error("kept")

	if strings.Contains(buf.String(), "dropped") {
		t.Fatalf("expected info entry to be filtered, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "ERROR kept") {
		t.Fatalf("expected error entry, got %q", buf.String())
	}
}

func TestConsoleLoggerMergesContextFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(Options{Writer: &buf, TimeFunc: fixedClock})

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "r-1"})
	provider.GetLogger("listing").WithContext(ctx).Debug("with.context", "orphan")

	out := buf.String()
	if !strings.Contains(out, "request_id=r-1") {
		t.Fatalf("expected context field, got %q", out)
	}
	if !strings.Contains(out, "field_0=orphan") {
		t.Fatalf("expected positional field, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warning") != LevelWarn || ParseLevel("TRACE") != LevelTrace || ParseLevel("bogus") != LevelInfo {
		t.Fatal("unexpected level mapping")
	}
}
