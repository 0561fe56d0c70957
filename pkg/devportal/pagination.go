package devportal

import (
	"context"
	"fmt"
)

// PageFetcher fetches one page starting at offset.
type PageFetcher[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// CollectPages requests pages of pageSize items starting at offset 0 until a
// page shorter than pageSize arrives, and returns every item in server order.
// A failing page aborts the collection with no partial result.
func CollectPages[T any](ctx context.Context, pageSize int, fetch PageFetcher[T]) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	var all []T

	for offset := 0; ; offset += pageSize {
		page, err := fetch(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < pageSize {
			return all, nil
		}
	}
}
