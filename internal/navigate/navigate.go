package navigate

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/matjam/glance/internal/types"
)

// ErrExhausted means every file in the directory was tried and none loaded.
var ErrExhausted = errors.New("no loadable file in directory")

// Index is the list of files next to the one being viewed, in modification
// time order. It is built on first use and lives for the session.
type Index struct {
	fs      afero.Fs
	path    string
	entries []string
	cur     int
	built   bool
}

// New returns an index around path. The directory is not read until the
// index is first used.
func New(fsys afero.Fs, path string) *Index {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Index{fs: fsys, path: path}
}

// Reset points the index at a new file. The listing is rebuilt lazily.
func (x *Index) Reset(path string) {
	x.path = path
	x.entries = nil
	x.cur = 0
	x.built = false
}

// Build lists the regular files in the directory of the current path,
// sorted by modification time and then by name. If the directory cannot be
// read or no longer contains the current file, the index holds only the
// current path.
func (x *Index) Build() {
	if x.built {
		return
	}
	x.built = true
	x.entries = []string{x.path}
	x.cur = 0

	dir := filepath.Dir(x.path)
	infos, err := afero.ReadDir(x.fs, dir)
	if err != nil {
		log.Debugf("navigate: cannot list %s: %v", dir, err)
		return
	}
	files := infos[:0]
	for _, fi := range infos {
		if fi.Mode().IsRegular() {
			files = append(files, fi)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.ModTime().Equal(b.ModTime()) {
			return a.ModTime().Before(b.ModTime())
		}
		return a.Name() < b.Name()
	})

	base := filepath.Base(x.path)
	entries := make([]string, len(files))
	cur := -1
	for i, fi := range files {
		entries[i] = filepath.Join(dir, fi.Name())
		if fi.Name() == base {
			cur = i
		}
	}
	if cur < 0 {
		log.Debugf("navigate: %s not found in %s", base, dir)
		return
	}
	x.entries, x.cur = entries, cur
}

// Advance steps through the listing in direction d, wrapping at either end,
// and calls load on each candidate until one succeeds. It returns the path
// that loaded. Coming back around to the starting entry without a success
// returns ErrExhausted wrapping every failure.
func (x *Index) Advance(d types.Direction, load func(path string) error) (string, error) {
	x.Build()
	n := len(x.entries)
	start := x.cur
	step := 1
	if d == types.Prev {
		step = n - 1
	}

	var errs error
	for i := 1; i <= n; i++ {
		x.cur = (start + i*step) % n
		p := x.entries[x.cur]
		if err := load(p); err != nil {
			log.Debugf("navigate: skipping %s: %v", p, err)
			errs = multierr.Append(errs, err)
			continue
		}
		x.path = p
		return p, nil
	}
	x.cur = start
	return "", fmt.Errorf("%w (%s): %w", ErrExhausted, filepath.Dir(x.path), errs)
}

// Entries returns the listing, building it if needed.
func (x *Index) Entries() []string {
	x.Build()
	return x.entries
}

// Current is the index of the current file in Entries.
func (x *Index) Current() int {
	x.Build()
	return x.cur
}

// Position reports the current index and listing length without reading
// the directory. Both are zero until the index is built.
func (x *Index) Position() (cur, n int) {
	if !x.built {
		return 0, 0
	}
	return x.cur, len(x.entries)
}
