package changes

import "fmt"

// MalformedPayloadError is returned when a payload is valid JSON but a required key is missing or has the wrong type.
type MalformedPayloadError struct {
	Field string
	Err   error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed push payload: %s: %s", e.Field, e.Err.Error())
	}
	return fmt.Sprintf("malformed push payload: missing required field %s", e.Field)
}

// Unwrap returns the underlying decoding error, if any
func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// Cause returns the underlying decoding error, if any
func (e *MalformedPayloadError) Cause() error { return e.Err }

// TimestampParseError is returned when the timestamp of a commit cannot be parsed.
type TimestampParseError struct {
	Revision  string
	Timestamp string
	Err       error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("failed to parse timestamp %q of commit %s: %s", e.Timestamp, e.Revision, e.Err.Error())
}

// Unwrap returns the parser error
func (e *TimestampParseError) Unwrap() error { return e.Err }

// Cause returns the parser error
func (e *TimestampParseError) Cause() error { return e.Err }

func missing(field string) error {
	return &MalformedPayloadError{Field: field}
}
