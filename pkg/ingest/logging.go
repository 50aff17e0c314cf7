package ingest

import (
	"context"

	"github.com/jenkins-x/changehook/pkg/changes"
	"github.com/sirupsen/logrus"
)

type loggingQueue struct {
	logger *logrus.Entry
}

// NewLoggingQueue creates a queue which only logs the changes it is given
func NewLoggingQueue(logger *logrus.Entry) Queue {
	return &loggingQueue{logger: logger}
}

func (q *loggingQueue) Enqueue(_ context.Context, sourceType string, items []changes.Change) error {
	for i := range items {
		c := &items[i]
		q.logger.WithFields(logrus.Fields{
			"source_type": sourceType,
			"revision":    c.Revision,
			"branch":      c.Branch,
			"repository":  c.Repository,
			"project":     c.Project,
			"files":       len(c.Files),
		}).Info("change")
	}
	return nil
}
