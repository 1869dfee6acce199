// Package http is the transport behind the server capability.
//
// Client posts JSON bodies with resty over a retryablehttp transport,
// waits on a token-bucket limiter and trips a circuit breaker when the
// server keeps failing. Every request carries a generated X-Request-ID.
// Responses are decoded with sonic; bodies that are not JSON are sniffed
// with mimetype and returned as text.
package http
