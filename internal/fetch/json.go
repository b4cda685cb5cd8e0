package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/status"
)

// JSON performs a single URL request and decodes the body into out.
// A body that is empty or not JSON leaves out untouched and is not an
// error; HTTP failures surface as *status.RequestExhausted wrapping a
// *status.HTTPError with the server supplied message.
func (f *Fetcher) JSON(ctx context.Context, url string, opts Options, out any) error {
	resp, err := f.Do(ctx, []string{url}, opts)
	if err != nil {
		return err
	}

	if err := Decode(resp, out); err != nil {
		f.log.Debug().Str("url", url).Err(err).Msg("tolerating undecodable body")
	}
	return nil
}

// Decode unmarshals a buffered body. It returns *status.DecodeError for
// empty or invalid JSON without modifying out.
func Decode(resp *Response, out any) error {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return &status.DecodeError{URL: resp.URL, Err: fmt.Errorf("empty body")}
	}
	if !json.Valid(body) {
		return &status.DecodeError{URL: resp.URL, Err: fmt.Errorf("invalid json")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &status.DecodeError{URL: resp.URL, Err: err}
	}
	return nil
}

// JSONBody marshals v for use as Options.Body.
func JSONBody(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("fetch: encode body: %w", err)
	}
	return b, nil
}
