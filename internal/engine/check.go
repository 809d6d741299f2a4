package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/tagforge/internal/builder"
	"github.com/vk/tagforge/internal/ctxlog"
)

// TaglibSuffix marks files that are compiled as taglibs by Check.
const TaglibSuffix = ".taglib.hcl"

// CheckResult is the outcome of compiling one file in Check.
type CheckResult struct {
	Path string
	Err  error
}

// Check compiles every unit and taglib file found under paths with workers
// concurrent workers. Taglib files go through the provider when one is set.
// It returns one result per file, in discovery order, and an error joining
// every failure.
func (e *Engine) Check(ctx context.Context, workers int, paths ...string) ([]CheckResult, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := e.loader.Discover(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("discovering units: %w", err)
	}
	if len(files) == 0 {
		logger.Warn("No unit files found.", "paths", paths)
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}
	logger.Info("Checking units.", "count", len(files), "workers", workers)

	results := make([]CheckResult, len(files))
	readyChan := make(chan int)
	var wg sync.WaitGroup
	for id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.checkWorker(ctx, id, files, results, readyChan)
		}()
	}
	for i := range files {
		readyChan <- i
	}
	close(readyChan)
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	logger.Info("Check finished.", "count", len(files), "failed", len(errs))
	return results, errors.Join(errs...)
}

// checkWorker compiles the files whose indexes arrive on readyChan.
func (e *Engine) checkWorker(ctx context.Context, id int, files []string, results []CheckResult, readyChan <-chan int) {
	logger := ctxlog.FromContext(ctx).With("workerID", id)
	logger.Debug("Worker started.")

	for i := range readyChan {
		path := files[i]
		results[i] = CheckResult{Path: path}
		if ctx.Err() != nil {
			results[i].Err = ctx.Err()
			continue
		}

		logger.Debug("Worker picked up file.", "path", path)
		if err := e.checkFile(ctx, path); err != nil {
			logger.Debug("File failed to compile.", "path", path, "error", err)
			results[i].Err = err
		}
	}
	logger.Debug("Worker finished.")
}

func (e *Engine) checkFile(ctx context.Context, path string) error {
	if strings.HasSuffix(path, TaglibSuffix) && e.provider != nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		_, err = e.provider.Resolve(ctx, builder.ResolveOptions{
			Ref:         abs,
			TemplateDir: filepath.Dir(abs),
		})
		return err
	}
	_, err := e.Compile(ctx, path, nil)
	return err
}
