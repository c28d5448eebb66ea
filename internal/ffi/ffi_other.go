//go:build !(darwin || linux || windows)

package ffi

import "fmt"

// Open always fails on platforms purego cannot load libraries on.
func Open(path string) (*Library, error) {
	return nil, fmt.Errorf("%w: unsupported platform", ErrLibraryNotLoaded)
}

func (l *Library) MeasureWidth(text, font string, size float64) (float64, error) {
	return 0, ErrLibraryNotLoaded
}

func (l *Library) Measure(text, font string, size float64) (Metrics, error) {
	return Metrics{}, ErrLibraryNotLoaded
}
