/*
Package cpcgfx converts between Amstrad CPC raster graphics embedded in Z80
assembly source and standard RGBA images.
*/
package cpcgfx

import "log"

type CPCGfx struct {
	db     *GfxDB
	logger *log.Logger
}

// New returns a converter. The cache db is optional; nil disables caching
// of encoded images between runs.
func New(db *GfxDB, logger *log.Logger) *CPCGfx {
	return &CPCGfx{
		db:     db,
		logger: logger,
	}
}
