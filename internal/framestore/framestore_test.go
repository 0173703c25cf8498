package framestore

import (
	"errors"
	"testing"

	"github.com/matjam/glance/internal/decode"
	"github.com/matjam/glance/internal/render"
)

type fakeTexture struct {
	id   int
	w, h int
}

func (t *fakeTexture) Size() (int, int) { return t.w, t.h }

// fakeFactory fails the failAt-th CreateTexture call (1-based, 0 never).
type fakeFactory struct {
	created int
	live    map[int]bool
	failAt  int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{live: map[int]bool{}}
}

var errNoMemory = errors.New("out of texture memory")

func (f *fakeFactory) CreateTexture(pix []byte, w, h int) (render.Texture, error) {
	f.created++
	if f.created == f.failAt {
		return nil, errNoMemory
	}
	f.live[f.created] = true
	return &fakeTexture{id: f.created, w: w, h: h}, nil
}

func (f *fakeFactory) DeleteTexture(t render.Texture) {
	ft := t.(*fakeTexture)
	if !f.live[ft.id] {
		panic("texture released twice")
	}
	delete(f.live, ft.id)
}

func sequence(n int) decode.Sequence {
	seq := make(decode.Sequence, n)
	for i := range seq {
		seq[i] = decode.Frame{Pix: make([]byte, 4), Width: 1, Height: 1}
	}
	return seq
}

func TestReplaceSwapsAndReleases(t *testing.T) {
	f := newFakeFactory()
	s := New(f)

	if err := s.Replace(sequence(3)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Len() != 3 || len(f.live) != 3 {
		t.Fatalf("Len = %d, live = %d, want 3/3", s.Len(), len(f.live))
	}

	if err := s.Replace(sequence(2)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Len() != 2 || len(f.live) != 2 {
		t.Fatalf("Len = %d, live = %d, want 2/2", s.Len(), len(f.live))
	}
	for i := 0; i < s.Len(); i++ {
		if !f.live[s.Frame(i).(*fakeTexture).id] {
			t.Fatalf("active frame %d was released", i)
		}
	}
}

func TestReplaceFailureKeepsPrevious(t *testing.T) {
	f := newFakeFactory()
	s := New(f)
	if err := s.Replace(sequence(2)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	before := []render.Texture{s.Frame(0), s.Frame(1)}

	// Third texture of the second sequence fails.
	f.failAt = f.created + 3
	err := s.Replace(sequence(4))
	if !errors.Is(err, errNoMemory) {
		t.Fatalf("Replace error = %v, want errNoMemory", err)
	}
	if s.Len() != 2 || s.Frame(0) != before[0] || s.Frame(1) != before[1] {
		t.Fatal("previous active set was not kept")
	}
	if len(f.live) != 2 {
		t.Fatalf("live textures = %d, want 2 (partial set leaked)", len(f.live))
	}
}

func TestReplaceEmpty(t *testing.T) {
	s := New(newFakeFactory())
	if err := s.Replace(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Replace(nil) = %v, want ErrEmpty", err)
	}
	if s.Active() {
		t.Fatal("Active() = true after failed first load")
	}
}

func TestFrameOutOfRange(t *testing.T) {
	s := New(newFakeFactory())
	if err := s.Replace(sequence(1)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Frame(-1) != nil || s.Frame(1) != nil {
		t.Fatal("Frame out of range returned a texture")
	}
}

func TestClose(t *testing.T) {
	f := newFakeFactory()
	s := New(f)
	if err := s.Replace(sequence(3)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	s.Close()
	if s.Active() || len(f.live) != 0 {
		t.Fatalf("after Close: Active = %v, live = %d", s.Active(), len(f.live))
	}
}
