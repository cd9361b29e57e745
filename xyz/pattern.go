// Package xyz provides API for reading and writing raster tiles in XYZ directory
// format, where each tile is a hex WKB file with a path like "/z/x/y.wkb".
package xyz

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/eak1mov/go-pgraster/tile"
)

var (
	ErrInvalidPattern = errors.New("pgraster: invalid file pattern")
	ErrInvalidTile    = errors.New("pgraster: tile outside the world grid")
)

var placeholders = []string{"{x}", "{y}", "{z}"}

func validatePattern(pattern string) error {
	for _, p := range placeholders {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, tileID tile.ID) string {
	result := pattern
	result = strings.ReplaceAll(result, "{x}", fmt.Sprintf("%d", tileID.X))
	result = strings.ReplaceAll(result, "{y}", fmt.Sprintf("%d", tileID.Y))
	result = strings.ReplaceAll(result, "{z}", fmt.Sprintf("%d", tileID.Z))
	return result
}

// compilePattern turns pattern into a regexp matching tile paths, with
// named groups x, y and z. Everything else in pattern matches literally.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	regexPattern := regexp.QuoteMeta(pattern)
	for _, name := range []string{"x", "y", "z"} {
		quoted := regexp.QuoteMeta("{" + name + "}")
		regexPattern = strings.ReplaceAll(regexPattern, quoted, fmt.Sprintf(`(?P<%s>\d+)`, name))
	}
	pathRegexp, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return pathRegexp, nil
}
