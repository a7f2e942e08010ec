package sprite

// ReindexValue swaps the second and third block of eight entries within
// every 32 entry group of an 8 bit palette index, converting between the
// linear palette order and the swizzled CLUT order the engine expects. The
// mapping is its own inverse.
func ReindexValue(v byte) byte {
	switch v >> 3 & 0x03 {
	case 1:
		return v + 8
	case 2:
		return v - 8
	default:
		return v
	}
}

// Reindex applies ReindexValue to every pixel of the sprite.
func (s *Sprite) Reindex() {
	for i, p := range s.Pixels {
		s.Pixels[i] = ReindexValue(p)
	}
}
