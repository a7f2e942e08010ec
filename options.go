package ghoul

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is one of the supported sprite file formats.
type Format int

// Supported formats.
const (
	FormatNone Format = iota
	FormatPNG
	FormatRAW
	FormatBIN
	FormatBMP
)

var errUnknownFormat = errors.New("ghoul: unsupported format")

var formatNames = map[string]Format{
	"png": FormatPNG,
	"raw": FormatRAW,
	"bin": FormatBIN,
	"bmp": FormatBMP,
}

// ParseFormat returns the format with the given name, ignoring case.
func ParseFormat(name string) (Format, error) {
	if f, ok := formatNames[strings.ToLower(name)]; ok {
		return f, nil
	}
	return FormatNone, fmt.Errorf("%w: %q", errUnknownFormat, name)
}

// FormatOf returns the format implied by the extension of file.
func FormatOf(file string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(file), "."))
}

func (f Format) String() string {
	for name, v := range formatNames {
		if v == f {
			return name
		}
	}
	return "none"
}

// Ext returns the filename extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// HashMode selects how the opaque hash field of BIN headers is filled in.
type HashMode int

const (
	// HashPreset writes the same value to every file.
	HashPreset HashMode = iota
	// HashGenerate derives the value from the pixels.
	HashGenerate
	// HashIncremental starts from a value and adds one per file written.
	HashIncremental
)

// ParseHashMode returns the hash mode with the given name.
func ParseHashMode(name string) (HashMode, error) {
	switch strings.ToLower(name) {
	case "preset", "":
		return HashPreset, nil
	case "generate":
		return HashGenerate, nil
	case "incremental":
		return HashIncremental, nil
	default:
		return HashPreset, fmt.Errorf("ghoul: unknown hash mode %q", name)
	}
}

// Options control a conversion.
type Options struct {
	// Target is the output format, FormatNone keeps the source format.
	Target Format
	// OutputDir receives the converted files, created if missing.
	OutputDir string

	// PaletteFile is an optional .act palette applied to every sprite.
	PaletteFile string
	// PaletteTransfer keeps the source file's own palette.
	PaletteTransfer bool
	// ExportPalette also writes the sprite's palette as an .act file.
	ExportPalette bool
	// Opaque stops index 0 of a palette file becoming transparent.
	Opaque bool
	// AsRGB writes PNG output as true colour rather than indexed.
	AsRGB bool
	// Quantize reduces true colour input to a palette instead of reading
	// the red channel as the index.
	Quantize bool

	// BitDepth forces 4 or 8 bits per pixel, zero detects it.
	BitDepth uint16
	// Reindex swizzles 8 bit palette indices.
	Reindex bool
	// Uncompressed writes BIN pixel data without compression.
	Uncompressed bool

	HashMode HashMode
	Hash     uint16

	// Overwrite replaces existing output files.
	Overwrite bool
	// Workers is the number of files converted in parallel by
	// ConvertDirectory.
	Workers int
}

const defaultWorkers = 2
