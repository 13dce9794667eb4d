package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/LouYuanbo1/searchagent/internal/config"
	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/sirupsen/logrus"
)

type typedEsClient[D model.Document] struct {
	client *elasticsearch.TypedClient
	// schema only, never holds data
	schemaDoc D
}

// NewTypedClient connects to the cluster described by cfg.
func NewTypedClient(cfg *config.Config) (*elasticsearch.TypedClient, error) {
	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Addresses: []string{cfg.Elasticsearch.Address},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.Elasticsearch.InsecureSkipVerify},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch client: %w", err)
	}
	return client, nil
}

func InitTypedEsClient[D model.Document](client *elasticsearch.TypedClient) TypedEsClient[D] {
	return &typedEsClient[D]{client: client}
}

func (tec *typedEsClient[D]) GetClient() *elasticsearch.TypedClient {
	return tec.client
}

func (tec *typedEsClient[D]) CreateIndexWithMapping(ctx context.Context) error {
	index := tec.schemaDoc.GetIndex()
	exists, err := tec.client.Indices.Exists(index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", index, err)
	}
	if exists {
		logrus.WithField("index", index).Debug("index already exists, skip create")
		return nil
	}
	_, err = tec.client.Indices.Create(index).Mappings(tec.schemaDoc.GetTypeMapping()).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	logrus.WithField("index", index).Info("index created")
	return nil
}

func (tec *typedEsClient[D]) IndexDocWithID(ctx context.Context, doc D) error {
	_, err := tec.client.Index(tec.schemaDoc.GetIndex()).
		Id(doc.GetID()).
		Document(doc).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index doc %s: %w", doc.GetID(), err)
	}
	return nil
}

func (tec *typedEsClient[D]) BulkCreateDocs(ctx context.Context, docs []D) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}
	index := tec.schemaDoc.GetIndex()
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         index,
		Client:        tec.client,
		NumWorkers:    2,
		FlushBytes:    5 * 1024 * 1024,
		FlushInterval: 30 * time.Second,
		OnError: func(ctx context.Context, err error) {
			logrus.WithError(err).WithField("index", index).Error("bulk indexer error")
		},
	})
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	var created, existing, failed atomic.Int64
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			failed.Add(1)
			logrus.WithError(err).WithField("id", doc.GetID()).Warn("failed to marshal document")
			continue
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "create",
			DocumentID: doc.GetID(),
			Body:       bytes.NewReader(data),
			OnSuccess: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem) {
				created.Add(1)
			},
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err == nil && res.Status == http.StatusConflict {
					existing.Add(1)
					return
				}
				failed.Add(1)
				entry := logrus.WithField("id", item.DocumentID)
				if err != nil {
					entry.WithError(err).Warn("failed to create document")
				} else {
					entry.WithField("reason", res.Error.Reason).Warn("failed to create document")
				}
			},
		})
		if err != nil {
			failed.Add(1)
			logrus.WithError(err).WithField("id", doc.GetID()).Warn("failed to queue document")
		}
	}
	if err := bi.Close(ctx); err != nil {
		return BulkResult{}, fmt.Errorf("failed to flush bulk indexer: %w", err)
	}
	return BulkResult{
		Created:  int(created.Load()),
		Existing: int(existing.Load()),
		Failed:   int(failed.Load()),
	}, nil
}

func (tec *typedEsClient[D]) GetDoc(ctx context.Context, id string) (D, error) {
	resp, err := tec.client.Get(tec.schemaDoc.GetIndex(), id).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get doc %s: %w", id, err)
	}
	if !resp.Found {
		return nil, nil
	}
	var doc D
	if err := json.Unmarshal(resp.Source_, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source of %s: %w", id, err)
	}
	return doc, nil
}

func (tec *typedEsClient[D]) SearchDoc(ctx context.Context, query *types.Query, from, size int) ([]D, int64, error) {
	resp, err := tec.client.Search().
		Index(tec.schemaDoc.GetIndex()).
		Query(query).
		From(from).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search %s: %w", tec.schemaDoc.GetIndex(), err)
	}

	results := make([]D, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc D
		if err := json.Unmarshal(hit.Source_, &doc); err != nil {
			continue
		}
		results = append(results, doc)
	}
	var total int64
	if resp.Hits.Total != nil {
		total = resp.Hits.Total.Value
	}
	return results, total, nil
}

func (tec *typedEsClient[D]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	_, err := tec.client.Update(tec.schemaDoc.GetIndex(), id).
		Doc(fields).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to update doc %s: %w", id, err)
	}
	return nil
}
