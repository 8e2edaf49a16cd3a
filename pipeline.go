package cpcgfx

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bodgit/cpcgfx/asm"
	cpcimage "github.com/bodgit/cpcgfx/image"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

const numWorkers = 10

// DecodeConfig holds the options for converting assembly sources to images.
type DecodeConfig struct {
	// OutDir receives one PNG per decoded block.
	OutDir string
	// Recursive also scans subdirectories for .asm files.
	Recursive bool
	// PrefixFile prefixes each PNG name with the source file stem to
	// avoid label collisions across files.
	PrefixFile bool
	// FallbackInk is used for pens without an INK hint; nil keeps the
	// identity pen to ink mapping.
	FallbackInk *ink.Ink
}

// EncodeConfig holds the options for converting images to one assembly
// source.
type EncodeConfig struct {
	// Out is the output filename, placed inside OutDir unless absolute.
	Out string
	// OutDir is created if needed.
	OutDir string
	// Recursive also scans subdirectories for images.
	Recursive bool
	// Tolerance is the per-channel color match radius; negative always
	// accepts the nearest ink.
	Tolerance int
	// TransparentInk, when set, is assigned to fully transparent pixels.
	TransparentInk *ink.Ink
	// Quantize reduces images to the mode's pen count up front instead
	// of failing on palette overflow.
	Quantize bool
}

func findFiles(ctx context.Context, base string, match func(string) bool, recursive bool) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if info.Mode().IsDir() {
				if !recursive && file != base {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !match(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func isAsm(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".asm")
}

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png", ".gif", ".jpg", ".jpeg":
		return true
	}
	return false
}

func pngName(file, label string, prefix bool) string {
	if prefix {
		stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		return fmt.Sprintf("%s__%s.png", strings.ToUpper(asm.SanitizeLabel(stem)), label)
	}
	return label + ".png"
}

// decodeFile converts every block in one assembly source to PNG files,
// returning one result per block. Block failures become error results and
// do not stop the remaining blocks.
func (c *CPCGfx) decodeFile(file, base string, m mode.Mode, cfg DecodeConfig) []Result {
	rel, err := filepath.Rel(base, file)
	if err != nil {
		rel = file
	}

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return []Result{{Source: rel, Label: "-", Output: "-", Size: "-", Status: fmt.Sprintf("ERROR: %v", err)}}
	}

	var results []Result
	for _, block := range asm.Parse(string(b)) {
		label := strings.ToUpper(asm.SanitizeLabel(block.Label))
		name := pngName(file, label, cfg.PrefixFile)

		r := Result{
			Source: rel,
			Label:  label,
			Output: name,
			Size:   "-",
			Status: "OK",
		}

		if err := c.decodeBlock(block, m, cfg, filepath.Join(cfg.OutDir, name), &r); err != nil {
			c.logger.Printf("%s: %s: %v\n", rel, label, err)
			r.Status = fmt.Sprintf("ERROR: %v", err)
		}

		results = append(results, r)
	}
	return results
}

func (c *CPCGfx) decodeBlock(block *asm.Block, m mode.Mode, cfg DecodeConfig, out string, r *Result) error {
	g, data, err := block.Geometry()
	if err != nil {
		return err
	}

	img, err := cpcimage.Decode(block, g, data, m, &cpcimage.DecodeOptions{FallbackInk: cfg.FallbackInk})
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}

	r.Size = fmt.Sprintf("%dx%d", g.WidthBytes*m.PixelsPerByte(), g.Height)
	return nil
}

// DecodeDir converts every .asm file under dir into one PNG per block,
// returning a result per block once all files have been attempted.
func (c *CPCGfx) DecodeDir(dir string, m mode.Mode, cfg DecodeConfig) ([]Result, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	files, errc := findFiles(ctx, base, isAsm, cfg.Recursive)

	results := make(chan Result)
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for file := range files {
				for _, r := range c.decodeFile(file, base, m, cfg) {
					results <- r
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []Result
	for r := range results {
		collected = append(collected, r)
	}

	if err := waitForPipeline(errc); err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].Source != collected[j].Source {
			return collected[i].Source < collected[j].Source
		}
		return collected[i].Label < collected[j].Label
	})

	return collected, nil
}

// encodeImage produces the raster encoding for one image file, via the
// cache when one is configured.
func (c *CPCGfx) encodeImage(file string, m mode.Mode, cfg EncodeConfig) (*cpcimage.Encoded, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	sha := fmt.Sprintf("%X", sha1.Sum(b))

	if c.db != nil {
		if e, err := c.db.FindEncoded(sha, m); err != nil {
			return nil, err
		} else if e != nil {
			return e, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	e, err := cpcimage.Encode(img, m, &cpcimage.EncodeOptions{
		Tolerance:      cfg.Tolerance,
		TransparentInk: cfg.TransparentInk,
		Quantize:       cfg.Quantize,
	})
	if err != nil {
		return nil, err
	}

	if c.db != nil {
		if err := c.db.AddEncoded(sha, m, e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// EncodeDir converts every image under dir into labeled blocks of one
// assembly source file, returning a result per image once all have been
// attempted. Image failures become error results and do not stop the
// remaining images.
func (c *CPCGfx) EncodeDir(dir string, m mode.Mode, cfg EncodeConfig) ([]Result, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	filec, errc := findFiles(ctx, base, isImage, cfg.Recursive)
	var files []string
	for file := range filec {
		files = append(files, file)
	}
	if err := waitForPipeline(errc); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("cpcgfx: no images found in %s", dir)
	}
	sort.Strings(files)

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return nil, err
	}
	out := cfg.Out
	if !filepath.IsAbs(out) {
		out = filepath.Join(cfg.OutDir, out)
	}

	f, err := os.Create(out)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := asm.NewWriter(f, m)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, file := range files {
		rel, err := filepath.Rel(base, file)
		if err != nil {
			rel = file
		}
		label := strings.TrimSuffix(rel, filepath.Ext(rel))

		r := Result{
			Source:       rel,
			Label:        strings.ToUpper(asm.SanitizeLabel(label)),
			Size:         "-",
			BytesPerLine: "-",
			Colors:       "-",
			Fallback:     "-",
			Status:       "OK",
		}

		e, err := c.encodeImage(file, m, cfg)
		if err == nil {
			err = w.WriteBlock(label, e.Geometry, e.Rows, e.UsedInks, e.Fallback, rel)
		}
		if err != nil {
			c.logger.Printf("%s: %v\n", rel, err)
			r.Status = fmt.Sprintf("ERROR: %v", err)
			w.AddIndex(label, rel)
		} else {
			r.Size = fmt.Sprintf("%dx%d", e.Geometry.WidthBytes*m.PixelsPerByte(), e.Geometry.Height)
			r.BytesPerLine = fmt.Sprintf("%d", e.Geometry.WidthBytes)
			r.Colors = fmt.Sprintf("%d", len(e.UsedInks))
			r.Fallback = "no"
			if e.Fallback {
				r.Fallback = "yes"
				c.logger.Printf("%s: color out of palette, tolerance fallback used\n", rel)
			}
		}

		results = append(results, r)
	}

	if err := w.WriteIndex(); err != nil {
		return nil, err
	}

	return results, nil
}
