// Package content turns a directory on disk into the tank's world: a
// one-shot scan builds the object layout, a sqlite index answers
// folder-interior queries, and a watcher streams live edits.
package content

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"frogtank.app/internal/sim/tank"
)

// Entry is one scanned item. Path is slash-separated and relative to
// the scanned root; root-level entries have no separator at all.
type Entry struct {
	Path      string
	Name      string
	Type      tank.ObjectType
	SizeBytes int64
	Count     int
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".svg":  true,
}

func classify(name string, isDir bool) tank.ObjectType {
	if isDir {
		return tank.ObjectFolder
	}
	if imageExts[strings.ToLower(filepath.Ext(name))] {
		return tank.ObjectImage
	}
	return tank.ObjectDocument
}

// Scan walks root at most maxDepth levels down and returns entries
// sorted by path. Dot-prefixed files and directories are skipped
// entirely; a directory sitting at the depth limit is listed but not
// descended into.
func Scan(root string, maxDepth int) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/")
		if depth > maxDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		e := Entry{Path: rel, Name: d.Name(), Type: classify(d.Name(), d.IsDir())}
		if !d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			e.SizeBytes = info.Size()
		}
		entries = append(entries, e)
		if d.IsDir() && depth == maxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	counts := map[string]int{}
	for _, e := range entries {
		if i := strings.LastIndex(e.Path, "/"); i >= 0 {
			counts[e.Path[:i]]++
		}
	}
	for i := range entries {
		if entries[i].Type == tank.ObjectFolder {
			entries[i].Count = counts[entries[i].Path]
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
