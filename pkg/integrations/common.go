package integrations

import (
	"net/http"
	"time"
)

const (
	httpTimeout = 10 * time.Second
	maxBodySize = 1 << 20
	userAgent   = "inkpanel (+https://github.com/matzehuels/inkpanel)"
)

// NewHTTPClient creates an HTTP client with a standard timeout.
// The per-source deadline carried by the request context is usually shorter.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
