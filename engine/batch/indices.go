package batch

import (
	"fmt"

	"github.com/Carmen-Shannon/kaffee/common"
)

var quadPattern = [IndicesPerQuad]uint16{0, 1, 2, 2, 3, 0}

// QuadIndices builds the shared quad index list: for quad i the indices are {0,1,2,2,3,0} + 4*i.
// The triangle order matches the corner order written by Context.
//
// Parameters:
//   - maxQuads: number of quads to cover, in [1, MaxQuadLimit]
//
// Returns:
//   - []uint16: 6*maxQuads indices
//   - error: capacity error if maxQuads cannot be addressed with 16-bit indices
func QuadIndices(maxQuads int) ([]uint16, error) {
	if maxQuads <= 0 {
		return nil, fmt.Errorf("quad count must be positive, got %d", maxQuads)
	}
	if maxQuads > MaxQuadLimit {
		return nil, &common.CapacityError{What: "quad indices", Requested: maxQuads, Capacity: MaxQuadLimit}
	}

	indices := make([]uint16, 0, maxQuads*IndicesPerQuad)
	for i := 0; i < maxQuads; i++ {
		base := uint16(i * VerticesPerQuad)
		for _, idx := range quadPattern {
			indices = append(indices, idx+base)
		}
	}
	return indices, nil
}

// IndexCount returns the number of indices needed to draw quads quads.
func IndexCount(quads int) uint32 {
	return uint32(quads * IndicesPerQuad)
}
