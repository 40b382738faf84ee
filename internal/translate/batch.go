package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultBatchSize is the number of items sent per API request.
const DefaultBatchSize = 50

// batchFunc issues one API request for a slice of items.
type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

// batcher implements the shared splitting, sequencing, and worker-pool
// logic once; each provider supplies only its translateBatch call.
type batcher struct {
	call      batchFunc
	batchSize int
}

func (b *batcher) size() int {
	if b.batchSize > 0 {
		return b.batchSize
	}
	return DefaultBatchSize
}

func (b *batcher) split(items []TranslationItem) [][]TranslationItem {
	size := b.size()
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// translate runs batches sequentially.
func (b *batcher) translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	batches := b.split(items)
	if len(batches) == 1 {
		return b.call(ctx, batches[0])
	}

	var allResults []TranslationResult
	for i, batch := range batches {
		results, err := b.call(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		allResults = append(allResults, results...)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}

// translateConcurrent runs batches through a bounded worker pool. The first
// failing batch cancels the rest.
func (b *batcher) translateConcurrent(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	batches := b.split(items)
	if len(batches) == 1 {
		return b.call(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					results, err := b.call(ctx, batches[batchIdx])
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:   batchIdx,
						Results: results,
						Error:   err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var completed []batchResult
	var firstErr error
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", result.Index, result.Error)
				cancel()
			}
			continue
		}
		completed = append(completed, result)
	}

	if firstErr != nil {
		return nil, firstErr
	}

	var allResults []TranslationResult
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Index < completed[j].Index
	})
	for _, r := range completed {
		allResults = append(allResults, r.Results...)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}
