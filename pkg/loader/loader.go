// Package loader reads catalogs from JSON or YAML files.
//
// A catalog document holds either nested tree nodes:
//
//	{"nodes": [{"id": 1, "name": "Sushi", "frontType": "category", "children": [...]}]}
//
// or categories in the backend shape, which are mapped into tree nodes:
//
//	{"categories": [{"id": 1, "name": "Sushi", "childrenItemCategories": [...], "items": [...]}]}
//
// Both keys may appear in one document; nodes come first.
package loader

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/catalogtree/pkg/debug"
	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Document is the on-disk catalog layout.
type Document struct {
	Nodes      []*model.TreeNode `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Categories []model.Category  `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Roots returns the document's nodes followed by its mapped categories.
func (d Document) Roots() []*model.TreeNode {
	roots := make([]*model.TreeNode, 0, len(d.Nodes)+len(d.Categories))
	for _, n := range d.Nodes {
		if n != nil {
			roots = append(roots, n)
		}
	}
	return append(roots, model.FromCategories(d.Categories)...)
}

//go:embed sample.json
var sampleJSON []byte

// Sample returns the built-in demo catalog.
func Sample() ([]*model.TreeNode, error) {
	roots, err := Decode(sampleJSON, FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("sample catalog: %w", err)
	}
	return finish(roots)
}

// Decode parses a catalog document without minting ids or validating.
func Decode(data []byte, format Format) ([]*model.TreeNode, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return doc.Roots(), nil
}

// Load reads one catalog file. Nodes without an id get one minted after the
// largest id in the file, and the result is checked with model.Validate.
func Load(path string) ([]*model.TreeNode, error) {
	roots, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return finish(roots)
}

// LoadAll reads several catalog files concurrently and concatenates their
// roots in argument order. Ids are minted and validated across the combined
// forest, so two files must not reuse an id.
func LoadAll(ctx context.Context, paths ...string) ([]*model.TreeNode, error) {
	start := time.Now()
	results := make([][]*model.TreeNode, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			roots, err := readFile(path)
			if err != nil {
				return err
			}
			results[i] = roots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*model.TreeNode
	for _, roots := range results {
		all = append(all, roots...)
	}
	debug.LogTiming(fmt.Sprintf("LoadAll(%d files)", len(paths)), time.Since(start))
	return finish(all)
}

// Encode writes roots as a nested-node document.
func Encode(w io.Writer, roots []*model.TreeNode, format Format) error {
	doc := Document{Nodes: roots}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func readFile(path string) ([]*model.TreeNode, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	roots, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roots, nil
}

func finish(roots []*model.TreeNode) ([]*model.TreeNode, error) {
	if minted := model.Normalize(roots); minted > 0 {
		debug.Log("minted %d missing ids", minted)
	}
	if err := model.Validate(roots); err != nil {
		return nil, err
	}
	return roots, nil
}
