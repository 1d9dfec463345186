package texture

import (
	"fmt"

	"github.com/Carmen-Shannon/kaffee/common"
)

// Atlas splits a texture into a uniform grid of tiles addressed by index, row-major from the top-left.
type Atlas struct {
	texture    Texture
	cols, rows int
	tileW      float32
	tileH      float32
	regions    []common.Rect
}

// NewAtlas builds the regions of a cols x rows grid over tex. The atlas holds a reference on tex until Release.
//
// Parameters:
//   - tex: the atlas texture
//   - cols, rows: grid size, both positive
//   - tileWidth, tileHeight: tile size in pixels; zero divides the texture evenly
//
// Returns:
//   - *Atlas: the atlas
//   - error: error if the grid is empty or does not fit in the texture
func NewAtlas(tex Texture, cols, rows int, tileWidth, tileHeight float32) (*Atlas, error) {
	if tex == nil {
		return nil, fmt.Errorf("atlas: nil texture")
	}
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("atlas: grid must be positive, got %dx%d", cols, rows)
	}

	width, height := float32(tex.Width()), float32(tex.Height())
	if tileWidth <= 0 {
		tileWidth = width / float32(cols)
	}
	if tileHeight <= 0 {
		tileHeight = height / float32(rows)
	}
	if tileWidth*float32(cols) > width || tileHeight*float32(rows) > height {
		return nil, fmt.Errorf("atlas: %dx%d tiles of %vx%v do not fit in %vx%v texture %s",
			cols, rows, tileWidth, tileHeight, width, height, tex.Label())
	}

	a := &Atlas{
		texture: tex,
		cols:    cols,
		rows:    rows,
		tileW:   tileWidth,
		tileH:   tileHeight,
		regions: make([]common.Rect, 0, cols*rows),
	}
	for r := 0; r < rows; r++ {
		y := float32(r) * tileHeight
		for c := 0; c < cols; c++ {
			x := float32(c) * tileWidth
			a.regions = append(a.regions, common.Rect{
				Min: [2]float32{x / width, y / height},
				Max: [2]float32{(x + tileWidth) / width, (y + tileHeight) / height},
			})
		}
	}

	tex.Retain()
	return a, nil
}

// Texture returns the atlas texture.
func (a *Atlas) Texture() Texture {
	return a.texture
}

// Len returns the number of regions.
func (a *Atlas) Len() int {
	return len(a.regions)
}

// TileSize returns the size of one tile in pixels.
func (a *Atlas) TileSize() (width, height float32) {
	return a.tileW, a.tileH
}

// Region returns the UV rect of tile idx.
//
// Parameters:
//   - idx: row-major tile index
//
// Returns:
//   - common.Rect: normalized texture region
//   - error: wraps common.ErrRegion if idx is out of range
func (a *Atlas) Region(idx int) (common.Rect, error) {
	if idx < 0 || idx >= len(a.regions) {
		return common.Rect{}, fmt.Errorf("%w: index %d, atlas has %d regions", common.ErrRegion, idx, len(a.regions))
	}
	return a.regions[idx], nil
}

// RegionAt returns the UV rect of the tile at col, row.
func (a *Atlas) RegionAt(col, row int) (common.Rect, error) {
	if col < 0 || col >= a.cols || row < 0 || row >= a.rows {
		return common.Rect{}, fmt.Errorf("%w: tile (%d, %d) outside %dx%d grid", common.ErrRegion, col, row, a.cols, a.rows)
	}
	return a.regions[row*a.cols+col], nil
}

// Regions returns all regions in index order.
func (a *Atlas) Regions() []common.Rect {
	return append([]common.Rect(nil), a.regions...)
}

// Release drops the atlas' reference on its texture.
func (a *Atlas) Release() {
	if a.texture != nil {
		a.texture.Release()
		a.texture = nil
	}
}
