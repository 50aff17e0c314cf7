package webhook

import (
	"fmt"

	"github.com/jenkins-x/changehook/pkg/changes"
	"github.com/pkg/errors"
)

// UnsupportedEventError is returned for any event other than a push or a ping
type UnsupportedEventError struct {
	Event string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("rejecting request: expected a push event but received %q instead", e.Event)
}

// UnsupportedContentTypeError is returned when the body is neither JSON nor a urlencoded form
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("rejecting request: unknown Content-Type, received %q", e.ContentType)
}

// PayloadParseError is returned when the body or payload form field is not valid JSON
type PayloadParseError struct {
	Err error
}

func (e *PayloadParseError) Error() string {
	return fmt.Sprintf("failed to parse webhook payload: %s", e.Err.Error())
}

// Unwrap returns the JSON decoding error
func (e *PayloadParseError) Unwrap() error { return e.Err }

// Cause returns the JSON decoding error
func (e *PayloadParseError) Cause() error { return e.Err }

// IsClientError returns true if the error was caused by the content of the request rather
// than by the service itself
func IsClientError(err error) bool {
	var (
		unsupportedEvent   *UnsupportedEventError
		unsupportedContent *UnsupportedContentTypeError
		parse              *PayloadParseError
		malformed          *changes.MalformedPayloadError
		timestamp          *changes.TimestampParseError
	)
	return errors.As(err, &unsupportedEvent) ||
		errors.As(err, &unsupportedContent) ||
		errors.As(err, &parse) ||
		errors.As(err, &malformed) ||
		errors.As(err, &timestamp)
}
