// Package ffi binds the text measurement entry points of the native
// centered engine through purego, without cgo.
package ffi

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// EnvLibraryPath overrides the library search.
const EnvLibraryPath = "VLIST_TEXT_LIB"

// ErrLibraryNotLoaded is returned when the native library is missing, lacks
// the text symbols, or the platform cannot load it.
var ErrLibraryNotLoaded = errors.New("ffi: text library not loaded")

const (
	symMeasureWidth = "centered_measure_text_width"
	symMeasurePtr   = "centered_measure_text_ptr"
)

// Metrics describes a measured run of text in pixels.
type Metrics struct {
	Width   float64
	Height  float64
	Ascent  float64
	Descent float64
}

// metricsC matches the C struct filled by centered_measure_text_ptr.
type metricsC struct {
	Width   float32
	Height  float32
	Ascent  float32
	Descent float32
}

// Library is a loaded text engine. Calls are serialized.
type Library struct {
	path   string
	handle uintptr

	mu           sync.Mutex
	fnWidth      func(text uintptr, font uintptr, size float32) float32
	fnMeasurePtr func(text uintptr, font uintptr, size float32, out uintptr) int32
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// LibraryName returns the platform file name of the engine library.
func LibraryName() string {
	switch runtime.GOOS {
	case "darwin", "ios":
		return "libcentered_engine.dylib"
	case "windows":
		return "centered_engine.dll"
	default:
		return "libcentered_engine.so"
	}
}

// FindLibrary returns the first existing candidate path for the library,
// or the bare library name so the system loader can search for it.
func FindLibrary() string {
	if path := os.Getenv(EnvLibraryPath); path != "" {
		return path
	}
	libName := LibraryName()
	searchPaths := []string{
		libName,
		filepath.Join("engine", "target", "release", libName),
		filepath.Join("engine", "target", "debug", libName),
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, libName),
			filepath.Join(execDir, "..", "lib", libName),
		)
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return libName
}
