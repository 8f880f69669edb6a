package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/topictree/pkg/debug"
	"github.com/vanderheijden86/topictree/pkg/loader"
	"github.com/vanderheijden86/topictree/pkg/metrics"
	"github.com/vanderheijden86/topictree/pkg/model"
)

// maxParallelLoads bounds concurrent source reads (file descriptors, memory).
const maxParallelLoads = 32

// LoadResult is the outcome of reading one source.
type LoadResult struct {
	Source  DataSource
	Records []model.LabelRecord
	Error   error
}

// LoadFromSource loads label records from a specific DataSource, dispatching
// to the appropriate reader based on source type.
func LoadFromSource(source DataSource) ([]model.LabelRecord, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadLabels()

	case SourceTypeJSONL:
		return loader.LoadLabelsFromFile(source.Path)

	case SourceTypeJSON:
		return loader.LoadLabelsJSONFile(source.Path, loader.ParseOptions{})

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadAll reads every source concurrently and concatenates the records in
// argument order. A failing source fails the whole load.
func LoadAll(ctx context.Context, sources []DataSource) ([]model.LabelRecord, error) {
	defer metrics.Timer(metrics.LabelLoad)()

	results := loadParallel(ctx, sources)

	var total int
	for _, r := range results {
		if r.Error != nil {
			return nil, fmt.Errorf("failed to load %s: %w", r.Source.Path, r.Error)
		}
		total += len(r.Records)
	}

	records := make([]model.LabelRecord, 0, total)
	for _, r := range results {
		records = append(records, r.Records...)
	}
	debug.Log("loaded %d records from %d sources", len(records), len(sources))
	return records, nil
}

// LoadAllLenient is like LoadAll but skips sources that fail and returns the
// per-source results so the caller can report them.
func LoadAllLenient(ctx context.Context, sources []DataSource) ([]model.LabelRecord, []LoadResult) {
	defer metrics.Timer(metrics.LabelLoad)()

	results := loadParallel(ctx, sources)
	var records []model.LabelRecord
	for _, r := range results {
		if r.Error != nil {
			debug.Log("skipping source %s: %v", r.Source.Path, r.Error)
			continue
		}
		records = append(records, r.Records...)
	}
	return records, results
}

// LoadPaths discovers sources under paths and loads them all.
func LoadPaths(ctx context.Context, paths []string) ([]model.LabelRecord, []DataSource, error) {
	sources, err := DiscoverSources(paths, DiscoveryOptions{
		Verbose: debug.Enabled(),
		Logger:  func(msg string) { debug.Log("%s", msg) },
	})
	if err != nil {
		return nil, nil, err
	}
	records, err := LoadAll(ctx, sources)
	if err != nil {
		return nil, sources, err
	}
	return records, sources, nil
}

// LoadPathsLenient is LoadPaths for live reloads: sources that fail to load
// are skipped and returned in failed. It errors only when discovery fails or
// every source fails.
func LoadPathsLenient(ctx context.Context, paths []string) (records []model.LabelRecord, failed []LoadResult, err error) {
	sources, err := DiscoverSources(paths, DiscoveryOptions{
		Verbose: debug.Enabled(),
		Logger:  func(msg string) { debug.Log("%s", msg) },
	})
	if err != nil {
		return nil, nil, err
	}
	records, results := LoadAllLenient(ctx, sources)
	for _, r := range results {
		if r.Error != nil {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 && len(failed) == len(results) {
		return nil, failed, fmt.Errorf("failed to load %s: %w", failed[0].Source.Path, failed[0].Error)
	}
	return records, failed, nil
}

func loadParallel(ctx context.Context, sources []DataSource) []LoadResult {
	results := make([]LoadResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = LoadResult{Source: src, Error: ctx.Err()}
				return nil
			default:
			}

			records, err := LoadFromSource(src)
			results[i] = LoadResult{Source: src, Records: records, Error: err}
			// Per-source errors stay in results so the caller decides.
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()
	return results
}
