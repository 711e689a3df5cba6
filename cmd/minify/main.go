// Command minify writes minified copies of the flashcard templates and
// static assets into dist/, which the server prefers in production.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

// assetDirs are the source directories mirrored under the output root.
var assetDirs = []string{"templates", "static"}

const (
	mediaHTML = "text/html"
	mediaCSS  = "text/css"
	mediaJS   = "application/javascript"
)

type fileStat struct {
	Path     string
	Original int
	Minified int
}

func main() {
	var (
		srcRoot = flag.String("src", ".", "Directory containing templates/ and static/")
		outRoot = flag.String("out", "dist", "Output directory")
	)
	flag.Parse()

	stats, err := buildAssets(newMinifier(), *srcRoot, *outRoot)
	if err != nil {
		log.Fatalf("Minification failed: %v", err)
	}
	for _, s := range stats {
		fmt.Printf("%s: %d bytes -> %d bytes (%.1f%% reduction)\n", s.Path, s.Original, s.Minified, reduction(s))
	}
	fmt.Printf("Minified %d files into %s\n", len(stats), *outRoot)
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaHTML, html.Minify)
	m.AddFunc(mediaJS, js.Minify)
	return m
}

// mediaTypeFor maps a file extension to the minifier media type. Files with
// no minifier are copied unchanged.
func mediaTypeFor(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html":
		return mediaHTML, true
	case ".css":
		return mediaCSS, true
	case ".js":
		return mediaJS, true
	default:
		return "", false
	}
}

// buildAssets walks every asset directory under srcRoot and writes each file
// to the same relative path under outRoot. Missing asset directories are
// skipped.
func buildAssets(m *minify.M, srcRoot, outRoot string) ([]fileStat, error) {
	var stats []fileStat
	for _, dir := range assetDirs {
		root := filepath.Join(srcRoot, dir)
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(srcRoot, path)
			if err != nil {
				return err
			}
			st, err := minifyFile(m, path, filepath.Join(outRoot, rel))
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			st.Path = rel
			stats = append(stats, st)
			return nil
		})
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func minifyFile(m *minify.M, srcPath, dstPath string) (fileStat, error) {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return fileStat{}, err
	}

	out := src
	if mediaType, ok := mediaTypeFor(srcPath); ok {
		if out, err = m.Bytes(mediaType, src); err != nil {
			return fileStat{}, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fileStat{}, err
	}
	if err := os.WriteFile(dstPath, out, 0644); err != nil {
		return fileStat{}, err
	}
	return fileStat{Original: len(src), Minified: len(out)}, nil
}

func reduction(s fileStat) float64 {
	if s.Original == 0 {
		return 0
	}
	return float64(s.Original-s.Minified) / float64(s.Original) * 100
}
