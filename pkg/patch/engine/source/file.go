package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"latent-hq/callisto/pkg/lrl/parser"
)

// ruleExtensions are the file extensions the file source loads from
// directories.
var ruleExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".lrl":  true,
}

// FileSource loads rule documents from files on disk. Each path can
// be a single file or a directory; directories load every .yaml, .yml
// and .lrl file in lexical order.
type FileSource struct {
	paths  []string
	strict bool
	parser *parser.Parser
	logger *slog.Logger
}

// NewFileSource creates a new file-based rule source.
func NewFileSource(paths []string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		paths:  paths,
		parser: parser.NewParser(),
		logger: logger,
	}
}

// WithStrict makes directory loads fail on the first unparsable file
// instead of skipping it with a warning. Explicitly named files
// always fail on parse errors. Returns the source for chaining.
func (s *FileSource) WithStrict(strict bool) *FileSource {
	s.strict = strict
	return s
}

// WithParser replaces the parser, letting callers configure brace
// substitution or nesting limits. Returns the source for chaining.
func (s *FileSource) WithParser(p *parser.Parser) *FileSource {
	s.parser = p
	return s
}

// Paths returns the configured paths, for file watchers.
func (s *FileSource) Paths() []string {
	return s.paths
}

// Load parses all rule documents from the configured paths.
func (s *FileSource) Load(ctx context.Context) ([]*NamedDocument, error) {
	var docs []*NamedDocument
	for _, path := range s.paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path %q: %w", path, err)
		}

		if info.IsDir() {
			loaded, err := s.loadDirectory(ctx, path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, loaded...)
			continue
		}

		doc, err := s.loadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	s.logger.Info("loaded rule documents",
		"paths", len(s.paths),
		"documents", len(docs),
	)
	return docs, nil
}

// loadDirectory loads every rule file under dir. filepath.Walk visits
// entries in lexical order, which keeps compiled rule order stable
// across reloads.
func (s *FileSource) loadDirectory(ctx context.Context, dir string) ([]*NamedDocument, error) {
	var docs []*NamedDocument

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !ruleExtensions[filepath.Ext(path)] {
			return nil
		}

		doc, err := s.loadFile(path)
		if err != nil {
			if s.strict {
				return err
			}
			s.logger.Warn("failed to load rule file, skipping",
				"path", path,
				"error", err,
			)
			return nil
		}

		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", dir, err)
	}

	return docs, nil
}

func (s *FileSource) loadFile(path string) (*NamedDocument, error) {
	doc, err := s.parser.Parse(path)
	if err != nil {
		return nil, err
	}
	return &NamedDocument{Name: path, Doc: doc}, nil
}
