package es

import (
	"context"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// BulkResult counts the outcome of a bulk create.
type BulkResult struct {
	Created  int
	Existing int
	Failed   int
}

type TypedEsClient[D model.Document] interface {
	GetClient() *elasticsearch.TypedClient
	CreateIndexWithMapping(ctx context.Context) error
	IndexDocWithID(ctx context.Context, doc D) error
	// BulkCreateDocs uses the create action, documents whose id already exists are counted, not overwritten.
	BulkCreateDocs(ctx context.Context, docs []D) (BulkResult, error)
	// GetDoc returns nil, nil when the id does not exist.
	GetDoc(ctx context.Context, id string) (D, error)
	SearchDoc(ctx context.Context, query *types.Query, from, size int) ([]D, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}
