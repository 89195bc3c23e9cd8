package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tga":  true,
	".webp": true,
}

// Index maps lowercase slash-separated paths, relative to a model directory,
// to filesystem paths. Exporters often write image URIs whose case does not
// match the files on disk.
type Index struct {
	root    string
	entries map[string]string // rel.lower() → full path
	names   map[string]string // base.lower() → full path, first found
}

// BuildIndex scans dir and its subdirectories for image files.
func BuildIndex(dir string) *Index {
	idx := &Index{
		root:    dir,
		entries: make(map[string]string),
		names:   make(map[string]string),
	}

	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !imageExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		idx.entries[strings.ToLower(filepath.ToSlash(rel))] = path

		base := strings.ToLower(filepath.Base(path))
		if _, exists := idx.names[base]; !exists {
			idx.names[base] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for an image URI, or ("", false).
// An exact relative match wins over a match on the file name alone.
func (idx *Index) ResolvePath(uri string) (string, bool) {
	uri = strings.ReplaceAll(uri, "\\", "/")
	uri = strings.TrimPrefix(uri, "./")

	if path, ok := idx.entries[strings.ToLower(uri)]; ok {
		return path, true
	}
	path, ok := idx.names[strings.ToLower(filepath.Base(uri))]
	return path, ok
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	return len(idx.entries)
}
