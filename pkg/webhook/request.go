package webhook

import (
	"io"
	"net/http"
)

// Request is the view of an inbound webhook delivery needed to classify it
type Request interface {
	// Header returns the value of the named header or an empty string.
	Header(name string) string
	// Body returns the raw request body.
	Body() io.Reader
	// FormValue returns the named query or form parameter and whether it was present.
	FormValue(name string) (string, bool)
}

type httpRequest struct {
	r *http.Request
}

// NewHTTPRequest adapts a net/http request into a Request
func NewHTTPRequest(r *http.Request) Request {
	return &httpRequest{r: r}
}

func (h *httpRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

func (h *httpRequest) Body() io.Reader {
	if h.r.Body == nil {
		return http.NoBody
	}
	return h.r.Body
}

func (h *httpRequest) FormValue(name string) (string, bool) {
	if h.r.Form == nil {
		// ParseForm only reads the body of urlencoded requests
		if err := h.r.ParseForm(); err != nil {
			return "", false
		}
	}
	values, ok := h.r.Form[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
