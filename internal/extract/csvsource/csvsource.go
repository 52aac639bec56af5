// Package csvsource reads the task and mapping extracts from CSV exports,
// either on local disk or at an http(s) URL, for runs where the warehouse
// system is not reachable directly.
package csvsource

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"silorecon/internal/config"
	"silorecon/internal/datasource"
	"silorecon/internal/datasource/file"
	"silorecon/internal/datasource/httpds"
	"silorecon/internal/extract"
	"silorecon/internal/parser"
	pcsv "silorecon/internal/parser/csv"
)

// Source parses two files with the same parser settings.
type Source struct {
	tasks    datasource.Source
	mappings datasource.Source
	parser   parser.Parser
}

// New validates cfg and returns a Source.
func New(cfg config.SourceCSV) (*Source, error) {
	if cfg.TasksPath == "" || cfg.MappingsPath == "" {
		return nil, fmt.Errorf("csvsource: tasks_path and mappings_path are required")
	}
	if k := cfg.Parser.Kind; k != "" && k != "csv" {
		return nil, fmt.Errorf("csvsource: unsupported parser kind %q", k)
	}
	tasks, err := open(cfg, cfg.TasksPath)
	if err != nil {
		return nil, err
	}
	mappings, err := open(cfg, cfg.MappingsPath)
	if err != nil {
		return nil, err
	}
	return &Source{
		tasks:    tasks,
		mappings: mappings,
		parser:   pcsv.NewParser(pcsv.OptionsFrom(cfg.Parser.Options)),
	}, nil
}

// open picks an HTTP source for URLs and a local file otherwise.
func open(cfg config.SourceCSV, path string) (datasource.Source, error) {
	if !httpds.IsURL(path) {
		return file.NewLocal(path), nil
	}
	r, err := httpds.New(path, httpds.Config{Headers: cfg.Headers, InsecureSkipVerify: cfg.InsecureSkipVerify})
	if err != nil {
		return nil, fmt.Errorf("csvsource: %w", err)
	}
	return r, nil
}

// Extract implements extract.Source.
func (s *Source) Extract(ctx context.Context) (extract.Snapshot, error) {
	var snap extract.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.read(gctx, s.tasks)
		if err != nil {
			return &extract.ExtractError{Source: "csv:tasks", Err: err}
		}
		snap.Tasks = t
		return nil
	})
	g.Go(func() error {
		t, err := s.read(gctx, s.mappings)
		if err != nil {
			return &extract.ExtractError{Source: "csv:mappings", Err: err}
		}
		snap.Mappings = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return extract.Snapshot{}, err
	}
	return snap, nil
}

func (s *Source) read(ctx context.Context, src datasource.Source) (extract.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return extract.Table{}, err
	}
	defer rc.Close()

	res, err := s.parser.Parse(rc)
	if err != nil {
		return extract.Table{}, err
	}
	if res.Skipped > 0 {
		zap.L().Named("extract").Warn("csv rows skipped", zap.Int("skipped", res.Skipped), zap.Int("kept", len(res.Rows)))
	}
	return extract.Table{Columns: res.Columns, Rows: res.Rows}, nil
}

func init() {
	extract.Register("csv", func(cfg config.Source) (extract.Source, error) {
		s, err := New(cfg.CSV)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
