package geoview

import (
	"runtime"
	"sync"

	"github.com/beetlebugorg/geoview/pkg/crs"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ProjectAll projects many elements into dst with a worker pool.
//
// Results keep the input order. With SkipErrors set, failed elements are
// left out and their errors returned alongside the successful results;
// otherwise the first failure stops the run and is returned alone.
// Diagnostics of individual elements are logged at debug level.
//
// Example:
//
//	out, errs := geoview.ProjectAll(p, layers, crs.Mercator, geoview.ParallelOptions{
//	    Parallel:   true,
//	    Workers:    8,
//	    SkipErrors: true,
//	    Progress: func(done, total int) {
//	        fmt.Printf("\rProjecting: %d/%d", done, total)
//	    },
//	})
func ProjectAll(p *Projector, elements []*Element, dst crs.CRS, opts ParallelOptions) ([]*Element, []error) {
	if len(elements) == 0 {
		return []*Element{}, nil
	}
	if p == nil {
		p = defaultProjector
	}
	logger := loggerOrNop(opts.Logger)

	if !opts.Parallel {
		return projectAllSerial(p, elements, dst, opts, logger)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(elements) {
		workers = len(elements)
	}

	type projectResult struct {
		index   int
		element *Element
		err     error
	}

	jobs := make(chan int, len(elements))
	results := make(chan projectResult, len(elements))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				out, err := projectOne(p, elements[index], dst, logger)
				results <- projectResult{index: index, element: out, err: err}
			}
		}()
	}

	for i := range elements {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	projected := make(map[int]*Element, len(elements))
	var errs []error
	done := 0
	for result := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(elements))
		}

		if result.err != nil {
			logger.Error("element projection failed", zap.Int("index", result.index), zap.Error(result.err))
			if !opts.SkipErrors {
				// Workers drain into the buffered channel and exit on their own
				return nil, []error{result.err}
			}
			errs = append(errs, result.err)
			continue
		}
		projected[result.index] = result.element
	}

	out := make([]*Element, 0, len(projected))
	for i := range elements {
		if el, ok := projected[i]; ok {
			out = append(out, el)
		}
	}
	return out, errs
}

// projectAllSerial projects elements one at a time (fallback when Parallel=false).
func projectAllSerial(p *Projector, elements []*Element, dst crs.CRS, opts ParallelOptions, logger *zap.Logger) ([]*Element, []error) {
	out := make([]*Element, 0, len(elements))
	var errs []error

	for i, el := range elements {
		projected, err := projectOne(p, el, dst, logger)
		if opts.Progress != nil {
			opts.Progress(i+1, len(elements))
		}
		if err != nil {
			logger.Error("element projection failed", zap.Int("index", i), zap.Error(err))
			if !opts.SkipErrors {
				return nil, []error{err}
			}
			errs = append(errs, err)
			continue
		}
		out = append(out, projected)
	}
	return out, errs
}

func projectOne(p *Projector, el *Element, dst crs.CRS, logger *zap.Logger) (*Element, error) {
	if el == nil {
		return nil, errors.New("nil element")
	}
	out, diag, err := p.Project(el, dst)
	if err != nil {
		return nil, errors.Wrapf(err, "element %s", el.ID())
	}
	if diag.Dropped > 0 {
		logger.Debug("records dropped in projection",
			zap.String("element", el.ID().String()),
			zap.Int("dropped", diag.Dropped),
			zap.Strings("causes", diag.Causes))
	}
	return out, nil
}
