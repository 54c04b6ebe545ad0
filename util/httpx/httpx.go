// Package httpx holds the shared outbound HTTP client. The mail API
// repo is its only caller today; sends are small, bursty and best
// effort, so the pool stays modest and the timeout generous enough for
// a slow mail provider.
package httpx

import (
	"net"
	"net/http"
	"time"
)

var defaultClient = &http.Client{
	Timeout: 15 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxConnsPerHost:     50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Client returns the process-wide client. Callers share it and must
// not mutate it.
func Client() *http.Client { return defaultClient }
