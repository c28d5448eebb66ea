package vlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/measure"
	"github.com/agiangrant/vlist/viewport"
)

func TestNewInMemory_Provided(t *testing.T) {
	items := make([]int, 1000)
	m := frame.NewManual()
	invalidated := 0
	ctl, mc := NewInMemory(DefaultConfig(), m, 300, 200, Callbacks{
		OnInvalidate: func() { invalidated++ },
	}, nil, items, func(int, int) float64 { return 20 }, nil)
	defer ctl.Close()

	assert.Equal(t, 20000.0, mc.ContentHeight())
	assert.Greater(t, invalidated, 0)

	ctl.ScrollTo(viewport.ScrollOptions{Top: viewport.Offset(10000), Behavior: Smooth}, false)
	m.RunFrames(100)
	assert.Equal(t, 10000.0, ctl.ScrollTop())
	assert.Equal(t, 500, ctl.State().Page)
}

func TestNewInMemory_Measured(t *testing.T) {
	items := []string{"a b c d", "short", "x"}
	cells := measure.NewCells(func(s string) string { return s })
	cells.SetWidth(3)
	m := frame.NewManual()
	ctl, _ := NewInMemory(DefaultConfig(), m, 3, 10, Callbacks{}, nil, items, nil, cells)
	defer ctl.Close()

	m.RunFrames(10)
	p, ok := ctl.Measurement()
	require.True(t, ok)
	assert.True(t, p.Done)
	// "a b c d" wraps to two lines, "short" is broken into two
	assert.Equal(t, 5.0, ctl.ScrollHeight())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewport:\n  overscan: 7\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Viewport.Overscan)
	assert.Equal(t, DefaultConfig().Layout, cfg.Layout)
}
