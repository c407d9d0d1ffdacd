package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// readChunkSize is the fixed chunk size the bounded reader drains with, so a
// slow-drip body is checked against the wall clock between every chunk.
const readChunkSize = 32 * 1024

// ReadBounded drains a response body under a byte ceiling and a wall-clock
// budget. A declared Content-Length over the ceiling fails before any byte is
// read. When the budget expires the body is force-closed, which unblocks any
// stalled read. Partial bytes are never returned.
func ReadBounded(resp *http.Response, maxBytes int64, budget time.Duration, requestURL string) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, NewError("response byte limit must be positive")
	}

	if resp.ContentLength > 0 && resp.ContentLength > maxBytes {
		return nil, NewSizeLimitError(requestURL, resp.ContentLength, maxBytes)
	}

	deadline := time.Now().Add(budget)
	timer := time.AfterFunc(budget, func() {
		// Closing the body is the only way to interrupt a read that is
		// blocked on a byte the remote end never sends.
		_ = resp.Body.Close()
	})
	defer timer.Stop()

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	var total int64

	for {
		if time.Now().After(deadline) {
			return nil, NewReadTimeoutError(requestURL)
		}

		n, err := resp.Body.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > maxBytes {
				return nil, NewSizeLimitError(requestURL, total, maxBytes)
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			if time.Now().After(deadline) {
				return nil, NewReadTimeoutError(requestURL)
			}
			return nil, WrapError(err, "failed to read response body")
		}
	}
}
