package cpcgfx

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bodgit/cpcgfx/asm"
	cpcimage "github.com/bodgit/cpcgfx/image"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

// GfxDB caches encoded raster blocks keyed by the SHA-1 of the source image
// and the video mode, so unchanged images are re-emitted from cache on
// later runs.
type GfxDB struct {
	db *sql.DB
}

// NewGfxDB opens or creates the cache database at file.
func NewGfxDB(file string) (*GfxDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS block (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, mode INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, data BLOB NOT NULL, inks TEXT NOT NULL, fallback INTEGER NOT NULL, UNIQUE (sha1, mode))"); err != nil {
		return nil, err
	}

	return &GfxDB{
		db: db,
	}, nil
}

func (db *GfxDB) Close() error {
	return db.db.Close()
}

func joinInks(inks []ink.Ink) string {
	parts := make([]string, len(inks))
	for i, v := range inks {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, ",")
}

func splitInks(s string) ([]ink.Ink, error) {
	if s == "" {
		return nil, nil
	}
	var inks []ink.Ink
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		inks = append(inks, ink.Ink(n))
	}
	return inks, nil
}

// FindEncoded returns the cached encoding for the given image checksum and
// mode, or nil if there is none.
func (db *GfxDB) FindEncoded(sha string, m mode.Mode) (*cpcimage.Encoded, error) {
	var width, height, fallback int
	var data []byte
	var inks string

	switch err := db.db.QueryRow("SELECT width, height, data, inks, fallback FROM block WHERE sha1 = ? AND mode = ?", sha, int(m)).Scan(&width, &height, &data, &inks, &fallback); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if len(data) != width*height {
			return nil, errors.New("cpcgfx: corrupt cache entry")
		}

		e := &cpcimage.Encoded{
			Geometry: asm.Geometry{WidthBytes: width, Height: height},
			Fallback: fallback != 0,
		}
		for y := 0; y < height; y++ {
			e.Rows = append(e.Rows, data[y*width:(y+1)*width])
		}

		var err error
		if e.UsedInks, err = splitInks(inks); err != nil {
			return nil, err
		}

		return e, nil
	default:
		return nil, err
	}
}

// AddEncoded stores the encoding for the given image checksum and mode,
// replacing any previous entry.
func (db *GfxDB) AddEncoded(sha string, m mode.Mode, e *cpcimage.Encoded) error {
	data := make([]byte, 0, e.Geometry.WidthBytes*e.Geometry.Height)
	for _, row := range e.Rows {
		data = append(data, row...)
	}

	fallback := 0
	if e.Fallback {
		fallback = 1
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO block (sha1, mode, width, height, data, inks, fallback) VALUES (?, ?, ?, ?, ?, ?, ?)", sha, int(m), e.Geometry.WidthBytes, e.Geometry.Height, data, joinInks(e.UsedInks), fallback); err != nil {
		return err
	}

	return nil
}
