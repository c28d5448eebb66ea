// Package source loads the item sequences the viewer displays.
package source

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
	_ "modernc.org/sqlite"
)

// ErrBinary is returned by LoadFile for files that are not text.
var ErrBinary = errors.New("binary file")

// maxLine bounds a single line read by ReadLines.
const maxLine = 4 << 20

// Line is one item of a document. No is 1-based.
type Line struct {
	No   int
	Text string
}

// Document is a named sequence of lines.
type Document struct {
	Name     string
	Language string
	Lines    []Line
}

// Texts returns the text of every line.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		out[i] = l.Text
	}
	return out
}

// ReadLines splits r into lines.
func ReadLines(r io.Reader) ([]Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	var lines []Line
	for sc.Scan() {
		lines = append(lines, Line{No: len(lines) + 1, Text: strings.TrimSuffix(sc.Text(), "\r")})
	}
	if err := sc.Err(); err != nil {
		return lines, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// LoadFile reads a text file and detects its language.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if enry.IsBinary(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrBinary)
	}
	lines, err := ReadLines(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Document{
		Name:     filepath.Base(path),
		Language: DetectLanguage(path, data),
		Lines:    lines,
	}, nil
}

// DetectLanguage names the language of content, using the file name when it
// is decisive. It returns "" when nothing matches.
func DetectLanguage(path string, content []byte) string {
	return enry.GetLanguage(filepath.Base(path), content)
}

// Query runs query against the SQLite database at dsn and returns the first
// column of every row as a line. NULL becomes the empty string.
func Query(ctx context.Context, dsn, query string, args ...any) (*Document, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("query returned no columns")
	}

	var lines []Line
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(lines)+1, err)
		}
		lines = append(lines, Line{No: len(lines) + 1, Text: stringify(vals[0])})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return &Document{Name: filepath.Base(dsn), Language: "SQL", Lines: lines}, nil
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
