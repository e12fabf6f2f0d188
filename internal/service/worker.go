package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/vanshika/basketwise/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var b strings.Builder
	b.WriteString("multiple errors:")
	for _, err := range e.Errors {
		b.WriteString(" ")
		b.WriteString(err.Error())
		b.WriteString(";")
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ProductWriter is the catalog contract required for ingestion.
type ProductWriter interface {
	Upsert(ctx context.Context, p domain.Product) error
	AddAlternative(ctx context.Context, productID, alternativeID int64) error
}

// AlternativeLink pairs a product with one of its substitutes.
type AlternativeLink struct {
	ProductID     int64 `json:"productId"`
	AlternativeID int64 `json:"alternativeId"`
}

// BulkIngestor loads catalog datasets using a worker pool.
type BulkIngestor struct {
	writer  ProductWriter
	workers int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(writer ProductWriter, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		writer:  writer,
		workers: workers,
	}
}

// IngestProducts upserts the products concurrently.
func (bi *BulkIngestor) IngestProducts(ctx context.Context, products []domain.Product) error {
	return bi.run(ctx, len(products), func(idx int) error {
		return bi.writer.Upsert(ctx, products[idx])
	})
}

// IngestAlternatives links substitutes concurrently. Products must already exist.
func (bi *BulkIngestor) IngestAlternatives(ctx context.Context, links []AlternativeLink) error {
	return bi.run(ctx, len(links), func(idx int) error {
		return bi.writer.AddAlternative(ctx, links[idx].ProductID, links[idx].AlternativeID)
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				if err := workerFn(idx); err != nil {
					errCh <- err
				}
			}
		}()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
