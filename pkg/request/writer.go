package request

import "net/http"

// ClientWriter wraps a ResponseWriter and remembers the status code written,
// so middleware can label metrics after the handler has run.
type ClientWriter struct {
	http.ResponseWriter
	status int
}

// NewClientWriter wraps w.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{ResponseWriter: w}
}

func (c *ClientWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *ClientWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	return c.ResponseWriter.Write(b)
}

// StatusCode returns the status code that was written, defaulting to 200
// when the handler never called WriteHeader.
func (c *ClientWriter) StatusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
