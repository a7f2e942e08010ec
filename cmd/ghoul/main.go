package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bodgit/ghoul"
	"github.com/bodgit/ghoul/bin"
	"github.com/bodgit/ghoul/catalog"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	level := zerolog.InfoLevel
	if c.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func openCatalog(c *cli.Context) (*catalog.Catalog, error) {
	if c.String("catalog") == "" {
		return nil, nil
	}
	return catalog.Open(c.String("catalog"))
}

func options(c *cli.Context) (ghoul.Options, error) {
	o := ghoul.Options{
		OutputDir:       c.String("output"),
		PaletteFile:     c.String("palette"),
		PaletteTransfer: c.Bool("palcopy"),
		ExportPalette:   c.Bool("export-palette"),
		Opaque:          c.Bool("opaque"),
		AsRGB:           c.Bool("as-rgb"),
		Quantize:        c.Bool("quantize"),
		Reindex:         c.Bool("reindex"),
		Uncompressed:    c.Bool("uncompressed"),
		Overwrite:       c.Bool("overwrite"),
		Workers:         c.Int("workers"),
	}

	switch {
	case c.Bool("force-4bpp") && c.Bool("force-8bpp"):
		return o, fmt.Errorf("--force-4bpp and --force-8bpp are mutually exclusive")
	case c.Bool("force-4bpp"):
		o.BitDepth = 4
	case c.Bool("force-8bpp"):
		o.BitDepth = 8
	}

	var err error
	if o.Hash, err = parseHash(c.Uint("hash")); err != nil {
		return o, err
	}
	if c.IsSet("format") {
		if o.Target, err = ghoul.ParseFormat(c.String("format")); err != nil {
			return o, err
		}
	}
	if o.HashMode, err = ghoul.ParseHashMode(c.String("hash-mode")); err != nil {
		return o, err
	}

	return o, nil
}

func parseHash(v uint) (uint16, error) {
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("hash 0x%X does not fit in 16 bits", v)
	}
	return uint16(v), nil
}

// batchSource reports whether path names a whole directory, either
// directly with --from or as "dir/*.ext", and of which format.
func batchSource(c *cli.Context, path string) (string, ghoul.Format, bool, error) {
	if stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)); stem == "*" {
		f, err := ghoul.FormatOf(path)
		return filepath.Dir(path), f, true, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", ghoul.FormatNone, false, err
	}
	if !info.IsDir() {
		return path, ghoul.FormatNone, false, nil
	}
	if !c.IsSet("from") {
		return "", ghoul.FormatNone, false, fmt.Errorf("%s is a directory, use --from to pick the source format", path)
	}
	f, err := ghoul.ParseFormat(c.String("from"))
	return path, f, true, err
}

func convert(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	o, err := options(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	cat, err := openCatalog(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if cat != nil {
		defer cat.Close()
	}

	conv, err := ghoul.New(o, cat, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := 0
	for _, path := range c.Args().Slice() {
		dir, format, batch, err := batchSource(c, path)
		if err != nil {
			return cli.Exit(err, 1)
		}

		if batch {
			summary, err := conv.ConvertDirectory(ctx, dir, format)
			if err != nil {
				return cli.Exit(err, 1)
			}
			failed += summary.Failed
			continue
		}

		switch out, err := conv.ConvertFile(path); {
		case errors.Is(err, ghoul.ErrExists):
			logger.Warn().Str("target", out).Msg("Already exists, use --overwrite to replace it")
		case err != nil:
			logger.Error().Err(err).Str("file", path).Msg("Skipped")
			failed++
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d file(s) failed", failed), 1)
	}
	return nil
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	for _, file := range c.Args().Slice() {
		f, err := os.Open(file)
		if err != nil {
			return cli.Exit(err, 1)
		}

		h, err := bin.DecodeConfig(f)
		f.Close()
		if err != nil {
			return cli.Exit(fmt.Errorf("%s: %w", file, err), 1)
		}

		fmt.Printf("%s: %dx%d, %d bpp, compressed %t, palette %t, tw 0x%04X, th 0x%04X, hash 0x%04X\n",
			file, h.Width, h.Height, h.BitDepth, h.Compressed, h.HasCLUT(), h.TW, h.TH, h.Hash)
	}

	return nil
}

func verify(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	if c.String("catalog") == "" {
		return cli.Exit("verify needs --catalog", 1)
	}

	logger := newLogger(c)

	cat, err := openCatalog(c)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer cat.Close()

	conv, err := ghoul.New(ghoul.Options{}, cat, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}

	failed := 0
	for _, file := range c.Args().Slice() {
		if err := conv.Verify(file); err != nil {
			logger.Error().Err(err).Str("file", file).Msg("Verification failed")
			failed++
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d file(s) failed verification", failed), 1)
	}
	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "ghoul"
	app.Usage = "GGXX AC+R sprite conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "catalog",
			EnvVars: []string{"GHOUL_CATALOG"},
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert sprites between PNG, RAW, BIN and BMP",
			Description: "Each FILE may be a sprite, a directory (with --from) or \"dir/*.ext\" to convert a whole directory.",
			ArgsUsage:   "FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Usage:   "output format: png, raw, bin or bmp (default: same as input)",
				},
				&cli.StringFlag{
					Name:  "from",
					Usage: "input format when converting a directory",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   ".",
					Usage:   "output directory",
				},
				&cli.StringFlag{
					Name:    "palette",
					Aliases: []string{"p"},
					Usage:   "apply this .act palette",
				},
				&cli.BoolFlag{
					Name:    "palcopy",
					Aliases: []string{"c"},
					Usage:   "carry the source palette over to the output",
				},
				&cli.BoolFlag{
					Name:  "export-palette",
					Usage: "also write the palette as an .act file",
				},
				&cli.BoolFlag{
					Name:  "opaque",
					Usage: "do not make palette index 0 transparent",
				},
				&cli.BoolFlag{
					Name:  "as-rgb",
					Usage: "write PNG output as true colour",
				},
				&cli.BoolFlag{
					Name:  "quantize",
					Usage: "reduce true colour input to a palette instead of reading indices from the red channel",
				},
				&cli.BoolFlag{
					Name:    "reindex",
					Aliases: []string{"r"},
					Usage:   "reindex 8 bit sprites",
				},
				&cli.BoolFlag{
					Name:    "uncompressed",
					Aliases: []string{"u"},
					Usage:   "write uncompressed BIN sprites",
				},
				&cli.BoolFlag{
					Name:    "force-4bpp",
					Aliases: []string{"4"},
					Usage:   "force 4 bits per pixel",
				},
				&cli.BoolFlag{
					Name:    "force-8bpp",
					Aliases: []string{"8"},
					Usage:   "force 8 bits per pixel",
				},
				&cli.StringFlag{
					Name:  "hash-mode",
					Value: "preset",
					Usage: "BIN header hash: preset, generate or incremental",
				},
				&cli.UintFlag{
					Name:  "hash",
					Usage: "preset or starting hash value",
				},
				&cli.BoolFlag{
					Name:    "overwrite",
					Aliases: []string{"w"},
					Usage:   "overwrite existing files",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 2,
					Usage: "number of files to convert in parallel",
				},
			},
			Action: convert,
		},
		{
			Name:      "info",
			Usage:     "Show BIN sprite headers",
			ArgsUsage: "FILE...",
			Action:    info,
		},
		{
			Name:      "verify",
			Usage:     "Check files against the catalog",
			ArgsUsage: "FILE...",
			Action:    verify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
