/*
Package ghoul is a library for converting fighting game sprites between the
engine's native BIN format and PNG, BMP and RAW files.
*/
package ghoul

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/ghoul/bin"
	"github.com/bodgit/ghoul/catalog"
	"github.com/bodgit/ghoul/palette"
	"github.com/bodgit/ghoul/raw"
	"github.com/bodgit/ghoul/sprite"
	"github.com/rs/zerolog"
)

// ErrExists is returned when the output file already exists and
// overwriting hasn't been enabled.
var ErrExists = errors.New("ghoul: target already exists")

type Converter struct {
	opts    Options
	catalog *catalog.Catalog
	logger  zerolog.Logger

	palette color.Palette
	hashes  hashSource
}

// New returns a Converter. The catalog is optional.
func New(opts Options, c *catalog.Catalog, logger zerolog.Logger) (*Converter, error) {
	if opts.BitDepth != 0 && !sprite.ValidDepth(opts.BitDepth) {
		return nil, sprite.ErrInvalidBitDepth
	}
	if opts.Workers < 1 {
		opts.Workers = defaultWorkers
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, err
	}

	conv := &Converter{
		opts:    opts,
		catalog: c,
		logger:  logger,
	}

	if opts.PaletteFile != "" {
		f, err := os.Open(opts.PaletteFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if conv.palette, err = palette.DecodeACT(f); err != nil {
			return nil, err
		}
	}

	conv.hashes = newHashSource(&conv.opts, c)

	return conv, nil
}

func stem(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

// targetPath returns where file will be written in the given format.
func (c *Converter) targetPath(file string, source, target Format, s *sprite.Sprite) string {
	if target == FormatRAW {
		if source == FormatRAW {
			return filepath.Join(c.opts.OutputDir, filepath.Base(file))
		}
		return filepath.Join(c.opts.OutputDir, raw.Filename(stem(file), s.Width, s.Height))
	}
	return filepath.Join(c.opts.OutputDir, stem(file)+target.Ext())
}

func (c *Converter) create(file string) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !c.opts.Overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(file, flags, 0644)
	if os.IsExist(err) {
		return nil, ErrExists
	}
	return f, err
}

// applyPalette settles which palette, if any, the output carries.
func (c *Converter) applyPalette(s *sprite.Sprite) {
	switch {
	case c.palette != nil:
		s.Palette = palette.FromColors(c.palette, sprite.Colors(s.BitDepth))
		palette.SynthesizeAlpha(s.Palette, c.opts.Opaque)
	case !c.opts.PaletteTransfer:
		s.Palette = nil
	}
}

// encode returns s in the target format. The BIN header hash is only
// taken once the sprite has encoded, so a failed sprite doesn't use one.
func (c *Converter) encode(s *sprite.Sprite, target Format) ([]byte, uint16, error) {
	buf := new(bytes.Buffer)
	if err := writeSprite(buf, s, target, &c.opts); err != nil {
		return nil, 0, err
	}
	b := buf.Bytes()
	if target != FormatBIN {
		return b, 0, nil
	}

	hash, err := c.hashes.next(s)
	if err != nil {
		return nil, 0, err
	}

	h, err := bin.ParseHeader(b)
	if err != nil {
		return nil, 0, err
	}
	h.Hash = hash
	header, err := h.MarshalBinary()
	if err != nil {
		return nil, 0, err
	}
	copy(b, header)

	return b, hash, nil
}

// ConvertFile converts a single file and returns the path written. If the
// output already exists ErrExists is returned along with its path.
func (c *Converter) ConvertFile(file string) (string, error) {
	source, err := FormatOf(file)
	if err != nil {
		return "", err
	}
	target := c.opts.Target
	if target == FormatNone {
		target = source
	}

	s, err := readSprite(file, source, c.opts.BitDepth, c.opts.Quantize)
	if err != nil {
		return "", err
	}

	c.applyPalette(s)

	if c.opts.Reindex {
		if s.BitDepth == sprite.Depth8 {
			s.Reindex()
		} else {
			c.logger.Debug().Str("file", file).Msg("Not reindexing 4 bit sprite")
		}
	}

	if err := s.Validate(); err != nil {
		return "", err
	}

	out := c.targetPath(file, source, target, s)

	f, err := c.create(out)
	if err != nil {
		return out, err
	}
	defer f.Close()

	b, hash, err := c.encode(s, target)
	if err != nil {
		os.Remove(out)
		return "", err
	}

	if _, err := f.Write(b); err != nil {
		os.Remove(out)
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	if c.opts.ExportPalette && s.HasPalette() {
		if err := c.exportPalette(out, s); err != nil {
			return "", err
		}
	}

	if c.catalog != nil {
		abs, err := filepath.Abs(out)
		if err != nil {
			return "", err
		}
		if err := c.catalog.Record(abs, target.String(), s, hash); err != nil {
			return "", err
		}
	}

	c.logger.Info().
		Str("file", file).
		Str("target", out).
		Uint16("width", s.Width).
		Uint16("height", s.Height).
		Uint16("bitDepth", s.BitDepth).
		Bool("palette", s.HasPalette()).
		Msg("Converted")

	return out, nil
}

func (c *Converter) exportPalette(out string, s *sprite.Sprite) error {
	name := strings.TrimSuffix(out, filepath.Ext(out)) + ".act"
	f, err := c.create(name)
	if err != nil {
		if errors.Is(err, ErrExists) {
			c.logger.Info().Str("target", name).Msg("Palette already exists, skipping")
			return nil
		}
		return err
	}
	defer f.Close()

	if err := palette.EncodeACT(f, palette.ToColors(s.Palette)); err != nil {
		return err
	}
	return f.Close()
}

// Verify decodes file and checks it against its catalog record.
func (c *Converter) Verify(file string) error {
	if c.catalog == nil {
		return errors.New("ghoul: no catalog")
	}

	format, err := FormatOf(file)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	e, err := c.catalog.Lookup(abs)
	if err != nil {
		return err
	}
	if e == nil {
		return catalog.ErrNotFound
	}

	s, err := readSprite(file, format, e.BitDepth, c.opts.Quantize)
	if err != nil {
		return err
	}

	if err := c.catalog.Verify(abs, s); err != nil {
		return err
	}

	c.logger.Debug().Str("file", file).Msg("Verified")
	return nil
}
