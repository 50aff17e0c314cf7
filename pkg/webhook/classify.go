package webhook

import (
	"encoding/json"
	"io"
	"mime"

	"github.com/jenkins-x/changehook/pkg/changes"
	"github.com/jenkins-x/go-scm/scm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// EventHeader carries the kind of webhook being delivered
	EventHeader = "X-GitHub-Event"
	// ContentTypeHeader carries the encoding of the request body
	ContentTypeHeader = "Content-Type"

	// PayloadFormField holds the JSON payload of urlencoded deliveries
	PayloadFormField = "payload"
	// ProjectParam is the optional query parameter naming the project of the changes
	ProjectParam = "project"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	maxPayloadBytes = 10000000
)

// Classification is the outcome of inspecting an inbound delivery
type Classification struct {
	// Ping is true for liveness checks, in which case no other field is set.
	Ping bool

	Payload        *changes.PushPayload
	RepositoryName string
	RepositoryURL  string
	Project        string

	// Raw is the JSON document the payload was decoded from.
	Raw []byte
}

// Classify decides whether a delivery is a ping, a push to be extracted or something to reject.
func Classify(l logrus.FieldLogger, req Request) (*Classification, error) {
	event := req.Header(EventHeader)
	l.WithField("event", event).Debugf("%s: %q", EventHeader, event)

	switch scm.WebhookKind(event) {
	case scm.WebhookKindPing:
		return &Classification{Ping: true}, nil
	case scm.WebhookKindPush:
	default:
		return nil, &UnsupportedEventError{Event: event}
	}

	data, err := readPayload(req)
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(data)
	if err != nil {
		return nil, err
	}
	l.WithField("payload", string(data)).Trace("Payload")

	if payload.Repository == nil {
		return nil, &changes.MalformedPayloadError{Field: "repository"}
	}
	if payload.Repository.Name == nil {
		return nil, &changes.MalformedPayloadError{Field: "repository.name"}
	}
	if payload.Repository.URL == nil {
		return nil, &changes.MalformedPayloadError{Field: "repository.url"}
	}

	project, _ := req.FormValue(ProjectParam)
	return &Classification{
		Payload:        payload,
		RepositoryName: *payload.Repository.Name,
		RepositoryURL:  *payload.Repository.URL,
		Project:        project,
		Raw:            data,
	}, nil
}

func readPayload(req Request) ([]byte, error) {
	contentType := req.Header(ContentTypeHeader)
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, &UnsupportedContentTypeError{ContentType: contentType}
	}

	switch mediaType {
	case contentTypeJSON:
		data, err := io.ReadAll(io.LimitReader(req.Body(), maxPayloadBytes))
		if err != nil {
			return nil, errors.Wrap(err, "failed to read webhook body")
		}
		return data, nil
	case contentTypeForm:
		value, ok := req.FormValue(PayloadFormField)
		if !ok {
			return nil, &PayloadParseError{Err: errors.Errorf("missing %q form field", PayloadFormField)}
		}
		return []byte(value), nil
	default:
		return nil, &UnsupportedContentTypeError{ContentType: contentType}
	}
}

func decodePayload(data []byte) (*changes.PushPayload, error) {
	payload := &changes.PushPayload{}
	err := json.Unmarshal(data, payload)
	if err == nil {
		return payload, nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "payload"
		}
		return nil, &changes.MalformedPayloadError{Field: field, Err: err}
	}
	return nil, &PayloadParseError{Err: err}
}

// Options customise GetChanges
type Options struct {
	// Codebase returns the codebase to attach to the changes of a repository, or nil for none.
	Codebase func(repositoryURL string) *string
	// DefaultProject is used when the delivery does not name a project.
	DefaultProject string
	// LogPayloads logs every decoded payload at info rather than trace level.
	LogPayloads bool
}

// GetChanges classifies the delivery and extracts its changes, returning them with the source type tag.
//
// A ping yields no changes and no error.
func GetChanges(l logrus.FieldLogger, req Request, o Options) ([]changes.Change, string, error) {
	c, err := Classify(l, req)
	if err != nil {
		return nil, "", err
	}
	if c.Ping {
		return []changes.Change{}, changes.SourceTypeGit, nil
	}

	fields := logrus.Fields{
		"repository": c.RepositoryName,
		"ref":        stringValue(c.Payload.Ref),
	}
	if fullName := c.Payload.Repository.FullName; fullName != "" {
		org, repo := scm.Split(fullName)
		fields[OrgLogField] = org
		fields[RepoLogField] = repo
	}
	l = l.WithFields(fields)
	if o.LogPayloads {
		l.WithField("payload", string(c.Raw)).Info("webhook payload")
	}

	src := changes.Source{
		RepositoryURL: c.RepositoryURL,
		Project:       c.Project,
	}
	if src.Project == "" {
		src.Project = o.DefaultProject
	}
	if o.Codebase != nil {
		src.Codebase = o.Codebase(c.RepositoryURL)
	}

	result, err := changes.Extract(l, c.Payload, src)
	if err != nil {
		return nil, "", err
	}
	l.Infof("Received %d changes from github", len(result))
	return result, changes.SourceTypeGit, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
