package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jenkins-x/changehook/pkg/changes"
	"github.com/jenkins-x/changehook/pkg/version"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// UserAgent is sent with every delivery
var UserAgent = "changehook/" + version.Version

// HTTPOptions configures an HTTP queue
type HTTPOptions struct {
	// Client defaults to a client using Timeout.
	Client *http.Client
	// MaxRetries is the number of attempts made after the first one fails.
	MaxRetries int
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// InitialInterval is the first delay between attempts, the backoff default when zero.
	InitialInterval time.Duration
	Logger          *logrus.Entry
}

type httpQueue struct {
	endpoint string
	options  HTTPOptions
}

// NewHTTPQueue creates a queue which POSTs each batch of changes as JSON to the endpoint,
// retrying with exponential backoff on transport errors and 5xx responses
func NewHTTPQueue(endpoint string, o HTTPOptions) Queue {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &httpQueue{endpoint: endpoint, options: o}
}

func (q *httpQueue) Enqueue(ctx context.Context, sourceType string, items []changes.Change) error {
	if len(items) == 0 {
		return nil
	}
	payload, err := json.Marshal(&Batch{SourceType: sourceType, Changes: items})
	if err != nil {
		return errors.Wrap(err, "failed to marshal changes")
	}
	l := q.options.Logger.WithField("endpoint", q.endpoint)

	attempt := 0
	op := func() error {
		attempt++
		err := q.post(ctx, payload)
		if err != nil {
			l.WithError(err).WithField("attempt", attempt).Warn("failed to deliver changes")
		}
		return err
	}
	if err := backoff.Retry(op, q.newBackOff(ctx)); err != nil {
		return errors.Wrapf(err, "failed to deliver %d changes to %s after %d attempts", len(items), q.endpoint, attempt)
	}
	l.WithField("changes", len(items)).Info("delivered changes")
	return nil
}

func (q *httpQueue) newBackOff(ctx context.Context) backoff.BackOff {
	exponential := backoff.NewExponentialBackOff()
	if q.options.InitialInterval > 0 {
		exponential.InitialInterval = q.options.InitialInterval
	}
	exponential.MaxElapsedTime = 0
	exponential.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(q.options.MaxRetries)), ctx)
}

func (q *httpQueue) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, q.endpoint, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := q.options.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("response has status %q and body %q", resp.Status, string(body))
	default:
		return backoff.Permanent(fmt.Errorf("response has status %q and body %q", resp.Status, string(body)))
	}
}
