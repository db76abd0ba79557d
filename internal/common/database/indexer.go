// internal/common/database/indexer.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"recruitment-workers/internal/tasks"
)

// indexedTask is the work queue document stored in Elasticsearch.
type indexedTask struct {
	tasks.Task
	GeneratedAt time.Time `json:"generatedAt"`
}

// WorkQueueIndexer publishes the generated work queue so dashboards can
// search it without recomputing.
type WorkQueueIndexer struct {
	es    *ElasticsearchClient
	index string
}

func NewWorkQueueIndexer(es *ElasticsearchClient, index string) *WorkQueueIndexer {
	return &WorkQueueIndexer{es: es, index: index}
}

// DocumentID keys a task by type, candidate and source so a regenerated
// queue overwrites rather than duplicates.
func DocumentID(t tasks.Task) string {
	if t.SourceID != "" {
		return fmt.Sprintf("%s:%s:%s", t.Type, t.CandidateID, t.SourceID)
	}
	return fmt.Sprintf("%s:%s", t.Type, t.CandidateID)
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// Replace indexes queue and removes documents left over from earlier runs.
// It returns the number of distinct documents Elasticsearch acknowledged.
func (x *WorkQueueIndexer) Replace(ctx context.Context, queue []tasks.Task, generatedAt time.Time) (int, error) {
	indexed := 0
	if len(queue) > 0 {
		n, err := x.bulkIndex(ctx, queue, generatedAt)
		if err != nil {
			return 0, err
		}
		indexed = n
	}
	if err := x.deleteOlderThan(ctx, generatedAt); err != nil {
		return 0, err
	}
	return indexed, nil
}

func (x *WorkQueueIndexer) bulkIndex(ctx context.Context, queue []tasks.Task, generatedAt time.Time) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, t := range queue {
		meta := map[string]map[string]string{"index": {"_index": x.index, "_id": DocumentID(t)}}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(indexedTask{Task: t, GeneratedAt: generatedAt}); err != nil {
			return 0, fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}

	client := x.es.Client
	res, err := client.Bulk(&buf,
		client.Bulk.WithContext(ctx),
		client.Bulk.WithIndex(x.index),
		client.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk index %s: %w", x.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("bulk index %s: %s: %s", x.index, res.Status(), strings.TrimSpace(string(body)))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}
	if br.Errors {
		for _, item := range br.Items {
			for _, op := range item {
				if op.Error != nil {
					return 0, fmt.Errorf("bulk index %s: document %s: %s: %s", x.index, op.ID, op.Error.Type, op.Error.Reason)
				}
			}
		}
		return 0, fmt.Errorf("bulk index %s: partial failure", x.index)
	}

	acked := make(map[string]struct{}, len(br.Items))
	for _, item := range br.Items {
		for _, op := range item {
			if op.Status >= 200 && op.Status < 300 {
				acked[op.ID] = struct{}{}
			}
		}
	}
	return len(acked), nil
}

func (x *WorkQueueIndexer) deleteOlderThan(ctx context.Context, generatedAt time.Time) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"range": map[string]interface{}{
				"generatedAt": map[string]interface{}{"lt": generatedAt.UTC().Format(time.RFC3339Nano)},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("encode delete query: %w", err)
	}

	client := x.es.Client
	res, err := client.DeleteByQuery([]string{x.index}, bytes.NewReader(body),
		client.DeleteByQuery.WithContext(ctx),
		client.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return fmt.Errorf("prune %s: %w", x.index, err)
	}
	defer res.Body.Close()

	// A missing index just means nothing was published yet.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("prune %s: %s", x.index, res.Status())
	}
	return nil
}
