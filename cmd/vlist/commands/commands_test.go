package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/vlist/config"
	"github.com/agiangrant/vlist/internal/ffi"
	"github.com/agiangrant/vlist/logger"
	"github.com/agiangrant/vlist/measure"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := Root("1.2.3")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vlist version 1.2.3\n", out)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "init", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "vlist.toml")
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = run(t, "init", dir)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", "--force", dir)
	assert.NoError(t, err)
}

func TestInit_YAML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	_, err := run(t, "init", "--yaml", dir)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, "vlist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestBench_Static(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "bench", "--items", "500")
	require.NoError(t, err)
	assert.Contains(t, out, "static:  500 items")
	assert.NotContains(t, out, "dynamic:")
}

func TestBench_MeasuredMatchesStatic(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "bench", "--items", "400", "--measured", "--width", "40")
	require.NoError(t, err)

	heights := regexp.MustCompile(`total height (\d+)`).FindAllStringSubmatch(out, -1)
	require.Len(t, heights, 2, out)
	assert.Equal(t, heights[0][1], heights[1][1])
	assert.Contains(t, out, "dynamic: 400/400 items, 8 batches")
}

func TestBench_CostHalvesBatchSize(t *testing.T) {
	t.Chdir(t.TempDir())
	// 50 items at 2ms is 100ms, over the 60ms budget once
	out, err := run(t, "bench", "--items", "200", "--measured", "--cost", "2ms")
	require.NoError(t, err)
	assert.Contains(t, out, "batch size 25")
}

func TestBench_UsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[layout]\nbatch_size = 100\n"), 0644))

	out, err := run(t, "bench", "--config", path, "--items", "300", "--measured")
	require.NoError(t, err)
	assert.Contains(t, out, "3 batches")
}

func TestBench_BadFlags(t *testing.T) {
	_, err := run(t, "bench", "--width", "0")
	assert.Error(t, err)
}

// runeMetrics treats every rune as 8px wide with a 10px line.
type runeMetrics struct{}

func (runeMetrics) MeasureWidth(text, _ string, _ float64) (float64, error) {
	return float64(utf8.RuneCountInString(text)) * 8, nil
}

func (m runeMetrics) Measure(text, font string, size float64) (ffi.Metrics, error) {
	w, _ := m.MeasureWidth(text, font, size)
	return ffi.Metrics{Width: w, Height: 10, Ascent: 8, Descent: 2}, nil
}

func withMetrics(t *testing.T, open func() (measure.TextMetrics, error)) {
	t.Helper()
	prev := openMetrics
	openMetrics = open
	t.Cleanup(func() { openMetrics = prev })
}

func TestBench_NativeMatchesStatic(t *testing.T) {
	t.Chdir(t.TempDir())
	withMetrics(t, func() (measure.TextMetrics, error) { return runeMetrics{}, nil })

	out, err := run(t, "bench", "--native", "--pixels", "320", "--items", "200", "--measured")
	require.NoError(t, err)
	assert.Contains(t, out, "native:  line height 12.0 px at 320 px wide")

	heights := regexp.MustCompile(`total height (\d+)`).FindAllStringSubmatch(out, -1)
	require.Len(t, heights, 2, out)
	assert.Equal(t, heights[0][1], heights[1][1])
	assert.Contains(t, out, "dynamic: 200/200 items")
}

func TestBench_NativeLibraryMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ffi.EnvLibraryPath, filepath.Join(t.TempDir(), "missing", ffi.LibraryName()))

	_, err := run(t, "bench", "--native", "--items", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ffi.EnvLibraryPath)
}

func TestBench_NativeBadPixels(t *testing.T) {
	_, err := run(t, "bench", "--native", "--pixels", "0")
	assert.Error(t, err)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "vlist.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[viewport]\noverscan = -2\n"), 0644))

	_, err := run(t, "bench", "--config", bad)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = run(t, "bench", "--config", filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "config file")

	// found by walking up from the working directory
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))
	t.Chdir(sub)
	_, err = run(t, "bench", "--items", "1")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestView_SourceErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"view", "does-not-exist.txt"}, "does-not-exist.txt"},
		{"db without query", []string{"view", "--db", "x.db"}, "must be used together"},
		{"query without db", []string{"view", "--query", "select 1"}, "must be used together"},
		{"file with db", []string{"view", "--db", "x.db", "--query", "select 1", "f.txt"}, "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWatchConfig_StopsWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlist.toml")
	require.NoError(t, config.Save(path, config.Default()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchConfig(ctx, path, logger.Discard, nil, nil) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher kept running after cancel")
	}
}

func TestWatchConfig_UnwatchableDirectoryKeepsViewer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "vlist.toml")
	assert.NoError(t, watchConfig(context.Background(), path, logger.Discard, nil, nil))
}
