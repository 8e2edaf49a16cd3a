package main

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bodgit/cpcgfx"
	"github.com/bodgit/cpcgfx/image"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newConverter(c *cli.Context) (*cpcgfx.CPCGfx, func(), error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	var db *cpcgfx.GfxDB
	closer := func() {}
	if file := c.String("db"); file != "" {
		var err error
		if db, err = cpcgfx.NewGfxDB(file); err != nil {
			return nil, nil, err
		}
		closer = func() { db.Close() }
	}

	return cpcgfx.New(db, logger), closer, nil
}

func modeFlag(c *cli.Context) (mode.Mode, error) {
	return mode.New(c.Int("mode"))
}

func inkFlag(c *cli.Context, name string) *ink.Ink {
	if !c.IsSet(name) {
		return nil
	}
	i := ink.Ink(c.Int(name))
	return &i
}

func main() {
	app := cli.NewApp()

	app.Name = "cpcgfx"
	app.Usage = "Amstrad CPC graphics to assembly conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"CPCGFX_DB"},
			Usage:   "path to encode cache database, caching disabled if empty",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "decode",
			Usage:       "Convert assembly sources to PNG images",
			Description: "Extracts every raster block from the .asm files in DIRECTORY and writes one PNG per block.",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "mode",
					Usage:    "CPC video mode (0/1/2)",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "out-dir",
					Value: "GRAFICOS",
					Usage: "directory receiving the PNG files",
				},
				&cli.BoolFlag{
					Name:  "recursive",
					Usage: "scan DIRECTORY recursively",
				},
				&cli.IntFlag{
					Name:  "bg-ink",
					Usage: "ink for pens without an INK hint, pen==ink if unset",
				},
				&cli.BoolFlag{
					Name:  "prefix-file",
					Usage: "prefix PNG names with the source file name",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := modeFlag(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				g, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				results, err := g.DecodeDir(c.Args().First(), m, cpcgfx.DecodeConfig{
					OutDir:      c.String("out-dir"),
					Recursive:   c.Bool("recursive"),
					PrefixFile:  c.Bool("prefix-file"),
					FallbackInk: inkFlag(c, "bg-ink"),
				})
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				ok, failed := cpcgfx.Counts(results)
				fmt.Printf("Blocks: %d  | PNG OK: %d  | Errors: %d\n", len(results), ok, failed)
				cpcgfx.PrintDecodeSummary(os.Stdout, results)

				if failed > 0 {
					return cli.NewExitError("some blocks failed to convert", 1)
				}
				return nil
			},
		},
		{
			Name:        "encode",
			Usage:       "Convert images to one assembly source",
			Description: "Packs every image in DIRECTORY into labeled raster blocks of a single .asm file.",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "mode",
					Usage:    "CPC video mode (0/1/2)",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "out",
					Aliases:  []string{"o"},
					Usage:    "output .asm filename",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "out-dir",
					Value: "ASM",
					Usage: "directory receiving the .asm file",
				},
				&cli.BoolFlag{
					Name:  "recursive",
					Usage: "scan DIRECTORY recursively",
				},
				&cli.IntFlag{
					Name:  "tol",
					Value: image.DefaultTolerance,
					Usage: "per-channel RGB tolerance, 0 exact, negative always accepts",
				},
				&cli.IntFlag{
					Name:  "transparent-ink",
					Usage: "map fully transparent pixels to this ink (0..26)",
				},
				&cli.BoolFlag{
					Name:  "quantize",
					Usage: "reduce images to the mode's pen count instead of failing",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := modeFlag(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				g, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				results, err := g.EncodeDir(c.Args().First(), m, cpcgfx.EncodeConfig{
					Out:            c.String("out"),
					OutDir:         c.String("out-dir"),
					Recursive:      c.Bool("recursive"),
					Tolerance:      c.Int("tol"),
					TransparentInk: inkFlag(c, "transparent-ink"),
					Quantize:       c.Bool("quantize"),
				})
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				ok, failed := cpcgfx.Counts(results)
				fmt.Printf("Images: %d  | Converted OK: %d  | Errors: %d\n", len(results), ok, failed)
				cpcgfx.PrintEncodeSummary(os.Stdout, results)

				if failed > 0 {
					return cli.NewExitError("some images failed to convert", 1)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
