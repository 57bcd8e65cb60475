package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"hackathonwallah/errors"
)

const maxRequestBody = 1 << 20

// DecodeJSONRequest decodes JSON from HTTP request body into the provided interface.
// Usage: var data MyType; if err := DecodeJSONRequest(r, &data); err != nil { ... }
func DecodeJSONRequest(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v); err != nil {
		return errors.E(errors.Invalid, errors.CodeValidation, "Invalid JSON body", err)
	}
	return nil
}
