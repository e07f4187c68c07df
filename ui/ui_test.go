package ui

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/chime/internal/cache"
)

func newTestModel(t *testing.T) (model, *cache.Manager) {
	t.Helper()
	cfg := cache.DefaultConfig()
	cfg.Dir = t.TempDir()
	c, err := cache.New(cfg)
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return newModel(c), c
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return out, cmd
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune{r}})
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)

	for _, key := range []string{"q", "esc", "ctrl+c"} {
		var msg tea.KeyMsg
		switch key {
		case "q":
			msg = keyMsg('q')
		case "esc":
			msg = tea.KeyMsg(tea.Key{Type: tea.KeyEsc})
		case "ctrl+c":
			msg = tea.KeyMsg(tea.Key{Type: tea.KeyCtrlC})
		}
		_, cmd := update(t, m, msg)
		if cmd == nil {
			t.Fatalf("key %q produced no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q did not quit", key)
		}
	}
}

func TestViewBeforeFirstWindowSize(t *testing.T) {
	m, _ := newTestModel(t)
	if view := m.View(); !strings.Contains(view, "reading cache") {
		t.Errorf("initial view = %q, want the loading notice", view)
	}
}

func TestRefreshPopulatesTable(t *testing.T) {
	m, c := newTestModel(t)
	if _, err := c.Put([]byte("audio"), "v1_feedface", cache.Meta{
		Voice:    "nova",
		Duration: 2 * time.Second,
	}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	msg := m.readCache()()
	refresh, ok := msg.(refreshMsg)
	if !ok {
		t.Fatalf("readCache produced %T, want refreshMsg", msg)
	}
	if refresh.stats.Items != 1 || len(refresh.arts) != 1 {
		t.Fatalf("snapshot = %d items / %d rows, want 1/1", refresh.stats.Items, len(refresh.arts))
	}

	m, cmd := update(t, m, refresh)
	if cmd == nil {
		t.Fatal("refresh did not schedule the next tick")
	}

	view := m.View()
	for _, want := range []string{"chime cache", "1 artifacts", "v1_feedface", "nova"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestErrorSurfacesInView(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, errMsg{errors.New("sweep failed")})

	if view := m.View(); !strings.Contains(view, "sweep failed") {
		t.Errorf("view does not show the error: %q", view)
	}

	m, _ = update(t, m, m.readCache()().(refreshMsg))
	if view := m.View(); strings.Contains(view, "sweep failed") {
		t.Error("error survived a successful refresh")
	}
}

func TestMaintainKeySweepsCache(t *testing.T) {
	m, c := newTestModel(t)
	if _, err := c.Put([]byte("audio"), "k", cache.Meta{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// Delete the file behind the index's back; maintain should notice.
	arts := c.Entries()
	if len(arts) != 1 {
		t.Fatalf("entries = %d, want 1", len(arts))
	}
	if err := os.Remove(arts[0].Path); err != nil {
		t.Fatalf("removing artifact file: %v", err)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	_, cmd := update(t, m, keyMsg('m'))
	if cmd == nil {
		t.Fatal("maintain key produced no command")
	}
	msg := cmd()
	refresh, ok := msg.(refreshMsg)
	if !ok {
		t.Fatalf("maintain produced %T, want refreshMsg", msg)
	}
	if refresh.stats.Items != 0 {
		t.Errorf("maintain left %d items, want 0", refresh.stats.Items)
	}
}

func TestColumnsFitNarrowAndWideTerminals(t *testing.T) {
	for _, width := range []int{20, 80, 200} {
		total := 0
		for _, col := range columns(width) {
			if col.Width <= 0 {
				t.Errorf("width %d: column %q has no width", width, col.Title)
			}
			total += col.Width
		}
		if width >= 80 && total > width {
			t.Errorf("width %d: columns take %d cells", width, total)
		}
	}
}
