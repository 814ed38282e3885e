package fixtures

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	"github.com/goccy/go-yaml"
)

// File is a parsed table file.
type File struct {
	Path        string       `json:"path"`
	Definitions []Definition `json:"definitions"`
}

// yamlFile is the layout of a YAML table file: a top-level definition and
// optional groups inheriting its settings.
type yamlFile struct {
	Definition `yaml:",inline"`
	Groups     []Definition `yaml:"groups,omitempty"`
}

// ParseFile reads a markdown (.md) or YAML (.yaml, .yml) table file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}

	var defs []Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		defs, err = ParseMarkdown(string(data), path)
	case ".yaml", ".yml":
		defs, err = ParseYAML(data, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	logger.V(3).Infof("parsed %s: %d groups", path, len(defs))
	return &File{Path: path, Definitions: defs}, nil
}

// ParseFiles expands the glob patterns relative to workDir and parses every
// matching file once, in sorted order.
func ParseFiles(workDir string, patterns ...string) ([]*File, error) {
	seen := map[string]bool{}
	var paths []string
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) && workDir != "" {
			pattern = filepath.Join(workDir, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no table files match %s", pattern)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		f, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ParseYAML parses a YAML table file. source names the file for default
// group names and error messages.
func ParseYAML(data []byte, source string) ([]Definition, error) {
	var doc yamlFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	base := doc.Definition
	base.Source = source

	var defs []Definition
	if len(base.Cases) > 0 || len(doc.Groups) == 0 {
		if base.Group == "" && len(doc.Groups) == 0 {
			base.Group = baseName(source)
		}
		defs = append(defs, base)
	}
	for _, g := range doc.Groups {
		g.Source = source
		defs = append(defs, g.Inherit(base))
	}
	return defs, nil
}

// splitFrontMatter separates YAML front matter delimited by "---" lines from
// the markdown content.
func splitFrontMatter(content string) (*Definition, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return nil, content, nil
	}

	var frontMatterLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		frontMatterLines = append(frontMatterLines, line)
	}
	if !closed {
		return nil, content, nil
	}

	var frontMatter Definition
	if err := yaml.Unmarshal([]byte(strings.Join(frontMatterLines, "\n")), &frontMatter); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML front-matter: %w", err)
	}

	var contentLines []string
	for scanner.Scan() {
		contentLines = append(contentLines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	return &frontMatter, strings.Join(contentLines, "\n"), nil
}

func baseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return groupName(name)
}

// groupName turns heading text or a file name into a unit name: runs of
// whitespace and slashes become a single underscore.
func groupName(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t'
	})
	return strings.Join(fields, "_")
}
