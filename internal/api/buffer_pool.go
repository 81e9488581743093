package api

import (
	"bytes"
	"encoding/json"
	"sync"
)

// Answer batches are encoded on every flush; their buffers are reused.
var bodyPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// maxPooledBody caps the buffers kept in the pool
const maxPooledBody = 16 * 1024

// encodeBody JSON-encodes v into a pooled buffer. release returns the buffer
// and must be called once the request body has been sent.
func encodeBody(v any) (body *bytes.Reader, release func(), err error) {
	buf := bodyPool.Get().(*bytes.Buffer)
	buf.Reset()
	release = func() {
		if buf.Cap() <= maxPooledBody {
			bodyPool.Put(buf)
		}
	}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		release()
		return nil, nil, err
	}
	return bytes.NewReader(buf.Bytes()), release, nil
}
