//go:build darwin || linux || windows

package ffi

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Open loads the library at path, or the result of FindLibrary when path is
// empty, and binds the text measurement symbols.
func Open(path string) (*Library, error) {
	if path == "" {
		path = FindLibrary()
	}
	handle, err := openLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLibraryNotLoaded, path, err)
	}
	l := &Library{path: path, handle: handle}

	width, err := getSymbol(handle, symMeasureWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLibraryNotLoaded, symMeasureWidth, err)
	}
	purego.RegisterFunc(&l.fnWidth, width)

	// older engines only export the width call
	if ptr, err := getSymbol(handle, symMeasurePtr); err == nil {
		purego.RegisterFunc(&l.fnMeasurePtr, ptr)
	}
	return l, nil
}

// MeasureWidth returns the advance width of text in the given font.
func (l *Library) MeasureWidth(text, font string, size float64) (float64, error) {
	if l == nil || l.fnWidth == nil {
		return 0, ErrLibraryNotLoaded
	}
	textBytes := append([]byte(text), 0)
	fontBytes := append([]byte(font), 0)

	l.mu.Lock()
	w := l.fnWidth(
		uintptr(unsafe.Pointer(&textBytes[0])),
		uintptr(unsafe.Pointer(&fontBytes[0])),
		float32(size),
	)
	l.mu.Unlock()

	runtime.KeepAlive(textBytes)
	runtime.KeepAlive(fontBytes)
	return float64(w), nil
}

// Measure returns full metrics for text. Engines without the metrics symbol
// report width only, with the font size as height.
func (l *Library) Measure(text, font string, size float64) (Metrics, error) {
	if l == nil || l.fnWidth == nil {
		return Metrics{}, ErrLibraryNotLoaded
	}
	if l.fnMeasurePtr == nil {
		w, err := l.MeasureWidth(text, font, size)
		return Metrics{Width: w, Height: size, Ascent: size}, err
	}

	textBytes := append([]byte(text), 0)
	fontBytes := append([]byte(font), 0)
	var out metricsC

	l.mu.Lock()
	rc := l.fnMeasurePtr(
		uintptr(unsafe.Pointer(&textBytes[0])),
		uintptr(unsafe.Pointer(&fontBytes[0])),
		float32(size),
		uintptr(unsafe.Pointer(&out)),
	)
	l.mu.Unlock()

	runtime.KeepAlive(textBytes)
	runtime.KeepAlive(fontBytes)
	if rc != 0 {
		return Metrics{}, fmt.Errorf("ffi: %s returned %d", symMeasurePtr, rc)
	}
	return Metrics{
		Width:   float64(out.Width),
		Height:  float64(out.Height),
		Ascent:  float64(out.Ascent),
		Descent: float64(out.Descent),
	}, nil
}
