package remote

import "fmt"

// maxBodySnippet bounds the response body, in characters, kept on an
// HTTPStatusError.
const maxBodySnippet = 120

// NetworkError means the request could not be sent, or the response could
// not be received and decoded.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response. Body holds at most the first
// maxBodySnippet characters of the response.
type HTTPStatusError struct {
	Code int
	URL  string
	Body string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d for %s", e.Code, e.URL)
	}
	return fmt.Sprintf("HTTP %d for %s: %s", e.Code, e.URL, e.Body)
}

// snippet keeps the first maxBodySnippet characters of b.
func snippet(b []byte) string {
	s := string(b)
	n := 0
	for i := range s {
		if n == maxBodySnippet {
			return s[:i]
		}
		n++
	}
	return s
}
