package navigate

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/matjam/glance/internal/types"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type file struct {
	name  string
	mtime int // seconds after base
}

func newFs(t *testing.T, files ...file) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for _, f := range files {
		p := "/pics/" + f.name
		if err := afero.WriteFile(fsys, p, []byte(f.name), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		mt := base.Add(time.Duration(f.mtime) * time.Second)
		if err := fsys.Chtimes(p, mt, mt); err != nil {
			t.Fatalf("chtimes %s: %v", p, err)
		}
	}
	if err := fsys.Mkdir("/pics/subdir", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return fsys
}

func okLoad(string) error { return nil }

func TestBuildOrder(t *testing.T) {
	fsys := newFs(t,
		file{"c.png", 30},
		file{"a.png", 20},
		file{"b.png", 20},
		file{"z.png", 10},
	)
	x := New(fsys, "/pics/b.png")

	want := []string{"/pics/z.png", "/pics/a.png", "/pics/b.png", "/pics/c.png"}
	got := x.Entries()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Entries = %v, want %v", got, want)
	}
	if x.Current() != 2 {
		t.Fatalf("Current = %d, want 2", x.Current())
	}
}

func TestAdvanceWraps(t *testing.T) {
	fsys := newFs(t, file{"a", 1}, file{"b", 2}, file{"c", 3})

	tests := []struct {
		name  string
		start string
		dir   types.Direction
		want  string
	}{
		{"next from last", "/pics/c", types.Next, "/pics/a"},
		{"prev from first", "/pics/a", types.Prev, "/pics/c"},
		{"next", "/pics/a", types.Next, "/pics/b"},
		{"prev", "/pics/c", types.Prev, "/pics/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New(fsys, tt.start)
			got, err := x.Advance(tt.dir, okLoad)
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if got != tt.want || x.Entries()[x.Current()] != tt.want {
				t.Fatalf("Advance = %s (current %d), want %s", got, x.Current(), tt.want)
			}
		})
	}
}

func TestAdvanceSkipsFailures(t *testing.T) {
	fsys := newFs(t, file{"a", 1}, file{"b", 2}, file{"c", 3}, file{"d", 4})
	x := New(fsys, "/pics/a")

	var tried []string
	load := func(p string) error {
		tried = append(tried, p)
		if p == "/pics/b" || p == "/pics/c" {
			return errors.New("not an image")
		}
		return nil
	}
	got, err := x.Advance(types.Next, load)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got != "/pics/d" {
		t.Fatalf("Advance = %s, want /pics/d", got)
	}
	if fmt.Sprint(tried) != "[/pics/b /pics/c /pics/d]" {
		t.Fatalf("tried %v", tried)
	}

	// Going back skips the same failures in the other direction.
	tried = nil
	got, err = x.Advance(types.Prev, load)
	if err != nil || got != "/pics/a" {
		t.Fatalf("Advance(prev) = %s, %v; want /pics/a", got, err)
	}
}

func TestAdvanceExhausted(t *testing.T) {
	fsys := newFs(t, file{"a", 1}, file{"b", 2}, file{"c", 3})
	x := New(fsys, "/pics/b")

	errBad := errors.New("bad file")
	calls := 0
	_, err := x.Advance(types.Next, func(p string) error {
		calls++
		return fmt.Errorf("cannot load %s: %w", p, errBad)
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Advance error = %v, want ErrExhausted", err)
	}
	if !errors.Is(err, errBad) {
		t.Fatalf("Advance error = %v does not wrap the per-file failures", err)
	}
	// Every entry is tried once, the starting file last.
	if calls != 3 {
		t.Fatalf("load called %d times, want 3", calls)
	}
	for _, p := range []string{"/pics/a", "/pics/b", "/pics/c"} {
		if !strings.Contains(err.Error(), "cannot load "+p) {
			t.Errorf("error %q does not mention %s", err, p)
		}
	}
	if x.Entries()[x.Current()] != "/pics/b" {
		t.Fatalf("current moved to %s after exhaustion", x.Entries()[x.Current()])
	}
}

func TestDegradesToSingleEntry(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"file missing from listing", "/pics/gone.png"},
		{"directory missing", "/nowhere/x.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New(newFs(t, file{"a", 1}, file{"b", 2}), tt.path)
			if got := x.Entries(); len(got) != 1 || got[0] != tt.path {
				t.Fatalf("Entries = %v, want [%s]", got, tt.path)
			}
			for _, d := range []types.Direction{types.Next, types.Prev} {
				got, err := x.Advance(d, okLoad)
				if err != nil || got != tt.path {
					t.Fatalf("Advance(%s) = %s, %v; want reload of %s", d, got, err, tt.path)
				}
			}
		})
	}
}

func TestBuildIsLazyAndReset(t *testing.T) {
	fsys := newFs(t, file{"a", 1})
	x := New(fsys, "/pics/a")
	if cur, n := x.Position(); cur != 0 || n != 0 {
		t.Fatalf("Position before build = %d, %d", cur, n)
	}

	// Files added before first use are part of the listing.
	if err := afero.WriteFile(fsys, "/pics/b", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	mt := base.Add(5 * time.Second)
	if err := fsys.Chtimes("/pics/b", mt, mt); err != nil {
		t.Fatal(err)
	}
	if n := len(x.Entries()); n != 2 {
		t.Fatalf("len(Entries) = %d, want 2", n)
	}

	// The listing is session-scoped until Reset.
	if err := afero.WriteFile(fsys, "/pics/c", nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if n := len(x.Entries()); n != 2 {
		t.Fatalf("listing rebuilt without Reset: %d entries", n)
	}
	x.Reset("/pics/c")
	if n := len(x.Entries()); n != 3 {
		t.Fatalf("len(Entries) after Reset = %d, want 3", n)
	}
	if x.Entries()[x.Current()] != "/pics/c" {
		t.Fatalf("current after Reset = %s", x.Entries()[x.Current()])
	}
}
