package ingest

import (
	"context"

	"github.com/jenkins-x/changehook/pkg/changes"
)

// Queue accepts batches of changes for the change-ingestion pipeline
type Queue interface {
	// Enqueue hands over the changes of a single webhook delivery.
	Enqueue(ctx context.Context, sourceType string, items []changes.Change) error
}

// Batch is the document delivered for each webhook
type Batch struct {
	SourceType string           `json:"source_type"`
	Changes    []changes.Change `json:"changes"`
}
