// Package sample enumerates the chromatogram files of a run.
package sample

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExt is the chromatogram extension picked up by Discover.
const DefaultExt = ".ab1"

// Item is one sample file to analyze against the reference.
type Item struct {
	ID   string // file name without extension
	Name string // file name
	Path string
}

// NewItem builds an Item from a file path.
func NewItem(path string) Item {
	name := filepath.Base(path)
	return Item{
		ID:   strings.TrimSuffix(name, filepath.Ext(name)),
		Name: name,
		Path: path,
	}
}

// Discover lists regular files in dir whose name ends with ext, sorted by
// name. Subdirectories are not descended.
func Discover(dir, ext string) ([]Item, error) {
	if ext == "" {
		ext = DefaultExt
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var items []Item
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		items = append(items, NewItem(filepath.Join(dir, e.Name())))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
