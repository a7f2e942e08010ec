package ghoul

import (
	"sync"

	"github.com/bodgit/ghoul/catalog"
	"github.com/bodgit/ghoul/sprite"
)

// hashSource supplies the hash field for each BIN file written.
type hashSource interface {
	next(*sprite.Sprite) (uint16, error)
}

type presetHash uint16

func (h presetHash) next(*sprite.Sprite) (uint16, error) {
	return uint16(h), nil
}

// generatedHash folds the pixel checksum down to 16 bits. The engine
// doesn't check the value so any stable function of the pixels will do.
type generatedHash struct{}

func (generatedHash) next(s *sprite.Sprite) (uint16, error) {
	sum := catalog.Checksum(s.Pixels)
	return uint16(sum ^ sum>>16 ^ sum>>32 ^ sum>>48), nil
}

type incrementalHash struct {
	mu    sync.Mutex
	value uint16
}

func (h *incrementalHash) next(*sprite.Sprite) (uint16, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.value
	h.value++
	return v, nil
}

// catalogHash keeps the incremental counter in the catalog so it carries
// on across runs.
type catalogHash struct {
	c     *catalog.Catalog
	start uint16
}

func (h catalogHash) next(*sprite.Sprite) (uint16, error) {
	return h.c.NextHash(h.start)
}

func newHashSource(o *Options, c *catalog.Catalog) hashSource {
	switch o.HashMode {
	case HashGenerate:
		return generatedHash{}
	case HashIncremental:
		if c != nil {
			return catalogHash{c: c, start: o.Hash}
		}
		return &incrementalHash{value: o.Hash}
	default:
		return presetHash(o.Hash)
	}
}
