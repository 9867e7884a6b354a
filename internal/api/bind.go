package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// maxBodyBytes bounds request bodies; attribute values are small.
const maxBodyBytes = 1 << 20

// decodeJSON strictly decodes a single JSON value from the request body.
// An empty body leaves v untouched when optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	if r.ContentLength == 0 && optional {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ErrUnsupportedMediaType
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrBadRequest)
	}
	return nil
}
