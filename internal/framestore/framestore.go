package framestore

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matjam/glance/internal/decode"
	"github.com/matjam/glance/internal/render"
)

var ErrEmpty = errors.New("framestore: empty frame sequence")

// Store owns the render resources of the frames being displayed.
type Store struct {
	factory render.TextureFactory
	active  []render.Texture
}

func New(factory render.TextureFactory) *Store {
	return &Store{factory: factory}
}

// Replace builds a texture for every frame of seq. The new set becomes
// active only once every texture exists; the previous set is then released.
// If any build fails the partial set is released and the active set stays.
func (s *Store) Replace(seq decode.Sequence) error {
	if len(seq) == 0 {
		return ErrEmpty
	}
	next := make([]render.Texture, 0, len(seq))
	for i, f := range seq {
		t, err := s.factory.CreateTexture(f.Pix, f.Width, f.Height)
		if err != nil {
			s.release(next)
			return fmt.Errorf("framestore: frame %d of %d: %w", i, len(seq), err)
		}
		next = append(next, t)
	}
	prev := s.active
	s.active = next
	s.release(prev)
	log.Debugf("framestore: %d textures active, %d released", len(next), len(prev))
	return nil
}

func (s *Store) release(set []render.Texture) {
	for _, t := range set {
		s.factory.DeleteTexture(t)
	}
}

// Active reports whether a frame set is loaded.
func (s *Store) Active() bool { return len(s.active) > 0 }

func (s *Store) Len() int { return len(s.active) }

// Frame returns the texture at index i, or nil when i is out of range.
func (s *Store) Frame(i int) render.Texture {
	if i < 0 || i >= len(s.active) {
		return nil
	}
	return s.active[i]
}

// Close releases the active set.
func (s *Store) Close() {
	s.release(s.active)
	s.active = nil
}
