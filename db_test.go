package cpcgfx

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodgit/cpcgfx/asm"
	cpcimage "github.com/bodgit/cpcgfx/image"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

func TestGfxDB(t *testing.T) {
	dir, err := ioutil.TempDir("", "cpcgfx")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db, err := NewGfxDB(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	const sha = "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709"

	e, err := db.FindEncoded(sha, mode.Mode0)
	require.NoError(t, err)
	assert.Nil(t, e)

	want := &cpcimage.Encoded{
		Geometry: asm.Geometry{WidthBytes: 2, Height: 2},
		Rows:     [][]byte{{1, 2}, {3, 4}},
		UsedInks: []ink.Ink{0, 26, 13},
		Fallback: true,
	}
	require.NoError(t, db.AddEncoded(sha, mode.Mode0, want))

	e, err = db.FindEncoded(sha, mode.Mode0)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, want.Geometry, e.Geometry)
	assert.Equal(t, want.Rows, e.Rows)
	assert.Equal(t, want.UsedInks, e.UsedInks)
	assert.True(t, e.Fallback)

	// Same image under a different mode is a separate entry.
	e, err = db.FindEncoded(sha, mode.Mode1)
	require.NoError(t, err)
	assert.Nil(t, e)
}
