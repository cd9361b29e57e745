package tile

import (
	"errors"
	"iter"

	"github.com/eak1mov/go-pgraster/raster"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterTiles returns an iterator over all tiles of v.
// Breaking out of the loop stops the visit. Iteration panics on visit errors;
// use VisitTiles directly to handle them.
func IterTiles(v Visitor) iter.Seq2[ID, raster.Dataset] {
	return func(yield func(ID, raster.Dataset) bool) {
		err := v.VisitTiles(func(tileID ID, ds raster.Dataset) error {
			if !yield(tileID, ds) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && !errors.Is(err, errVisitCancelled) {
			panic(err)
		}
	}
}

// Collect visits every tile of v and returns them keyed by ID.
func Collect(v Visitor) (map[ID]raster.Dataset, error) {
	result := make(map[ID]raster.Dataset)
	err := v.VisitTiles(func(tileID ID, ds raster.Dataset) error {
		result[tileID] = ds
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
