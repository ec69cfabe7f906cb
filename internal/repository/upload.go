// Package repository contains the upload ledger abstraction. Implementations
// live in subpackages.
package repository

import (
	"context"

	"puttr/internal/model"
)

// UploadRepository persists upload records. No business logic here.
type UploadRepository interface {
	// Create inserts a record and returns it as stored.
	Create(ctx context.Context, u *model.Upload) (*model.Upload, error)

	// List returns a page of records, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Upload], error)

	// Ping checks connectivity to the backing database.
	Ping(ctx context.Context) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
