package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jenkins-x/changehook/pkg/changes"
	"github.com/jenkins-x/changehook/pkg/config"
	"github.com/jenkins-x/changehook/pkg/ingest"
	"github.com/jenkins-x/changehook/pkg/version"
	"github.com/jenkins-x/go-scm/scm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	// OrgLogField is the repository owner in log entries
	OrgLogField = "org"
	// RepoLogField is the repository name in log entries
	RepoLogField = "repo"
)

// WebhooksController turns push webhooks into changes and hands them to the ingest queue
type WebhooksController struct {
	path        string
	configAgent *config.Agent
	queue       ingest.Queue
	metrics     *Metrics
}

// Response is the body returned for an accepted push
type Response struct {
	SourceType string           `json:"source_type"`
	Changes    []changes.Change `json:"changes"`
}

// NewWebhooksController creates and configures the controller
func NewWebhooksController(path string, configAgent *config.Agent, queue ingest.Queue) *WebhooksController {
	return &WebhooksController{
		path:        path,
		configAgent: configAgent,
		queue:       queue,
		metrics:     NewMetrics(),
	}
}

// Health returns either HTTP 204 if the service is healthy, otherwise nothing ('cos it's dead).
func (o *WebhooksController) Health(w http.ResponseWriter, r *http.Request) {
	logrus.Debug("Health check")
	w.WriteHeader(http.StatusNoContent)
}

// Ready returns either HTTP 204 if the service is Ready to serve requests, otherwise HTTP 503.
func (o *WebhooksController) Ready(w http.ResponseWriter, r *http.Request) {
	logrus.Debug("Ready check")
	if o.isReady() {
		w.WriteHeader(http.StatusNoContent)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

// Metrics returns the prometheus metrics
func (o *WebhooksController) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// DefaultHandler responds to requests without a specific handler
func (o *WebhooksController) DefaultHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == o.path || strings.HasPrefix(path, o.path+"/") {
		o.HandleWebhookRequests(w, r)
		return
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" || path == "index.html" {
		return
	}
	o.responseHTTPError(w, http.StatusNotFound, fmt.Sprintf("unknown path %s", path))
}

func (o *WebhooksController) isReady() bool {
	return o.configAgent.Config() != nil
}

// HandleWebhookRequests handles incoming webhook events
func (o *WebhooksController) HandleWebhookRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		// liveness probe etc
		logrus.WithField("method", r.Method).Debug("invalid http method so returning 200")
		return
	}

	event := r.Header.Get(EventHeader)
	o.metrics.WebhookCounter.With(map[string]string{
		"event_type": event,
	}).Inc()
	l := logrus.WithField("Webhook", event)

	cfg := o.configAgent.Config()
	if cfg == nil {
		o.responseHTTPError(w, http.StatusServiceUnavailable, "503 Service Unavailable: no configuration loaded")
		return
	}

	result, sourceType, err := GetChanges(l, NewHTTPRequest(r), Options{
		Codebase:       cfg.CodebaseFor,
		DefaultProject: cfg.DefaultProject,
		LogPayloads:    cfg.LogPayloads,
	})
	if err != nil {
		if IsClientError(err) {
			l.WithError(err).Warn("rejecting webhook")
			o.responseHTTPError(w, http.StatusBadRequest, fmt.Sprintf("400 Bad Request: %s", err.Error()))
			return
		}
		l.WithError(err).Error("failed to process webhook")
		o.responseHTTPError(w, http.StatusInternalServerError, fmt.Sprintf("500 Internal Server Error: %s", err.Error()))
		return
	}

	if scm.WebhookKind(event) == scm.WebhookKindPing {
		l.Info("received ping")
		o.respond(w, http.StatusOK, "text/plain; charset=utf-8", []byte(fmt.Sprintf("pong from changehook %s", version.Version)))
		return
	}

	o.metrics.ChangeCounter.With(map[string]string{
		"source_type": sourceType,
	}).Add(float64(len(result)))

	if err := o.queue.Enqueue(r.Context(), sourceType, result); err != nil {
		l.WithError(err).Error("failed to enqueue changes")
		o.responseHTTPError(w, http.StatusBadGateway, fmt.Sprintf("502 Bad Gateway: failed to enqueue changes: %s", err.Error()))
		return
	}

	data, err := json.Marshal(&Response{SourceType: sourceType, Changes: result})
	if err != nil {
		o.responseHTTPError(w, http.StatusInternalServerError, fmt.Sprintf("500 Internal Server Error: %s", err.Error()))
		return
	}
	o.respond(w, http.StatusOK, "application/json", data)
}

func (o *WebhooksController) respond(w http.ResponseWriter, statusCode int, contentType string, body []byte) {
	o.countResponse(statusCode)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logrus.WithError(err).Debug("failed to write the webhook response")
	}
}

func (o *WebhooksController) countResponse(statusCode int) {
	o.metrics.ResponseCounter.With(map[string]string{
		"response_code": strconv.Itoa(statusCode),
	}).Inc()
}

func (o *WebhooksController) responseHTTPError(w http.ResponseWriter, statusCode int, response string) {
	o.countResponse(statusCode)
	logrus.WithFields(logrus.Fields{
		"response":    response,
		"status-code": statusCode,
	}).Info(response)
	http.Error(w, response, statusCode)
}
