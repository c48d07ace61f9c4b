// File: internal/apiclient/response.go
package apiclient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/playwright-community/playwright-go"
)

var (
	// ErrMissingKeys is returned by ValidateKeys when the body lacks a key.
	ErrMissingKeys = errors.New("response is missing keys")
	// ErrPathNotFound is returned by Extract when a path segment is absent.
	ErrPathNotFound = errors.New("path not found in response")
)

// Response is a fully read API response. Body holds the decoded JSON value
// when the payload is valid JSON and the raw text otherwise.
type Response struct {
	Status     int
	StatusText string
	OK         bool
	URL        string
	Headers    map[string]string
	Raw        []byte
	Body       interface{}
}

func newResponse(raw playwright.APIResponse) (*Response, error) {
	payload, err := raw.Body()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	r := &Response{
		Status:     raw.Status(),
		StatusText: raw.StatusText(),
		OK:         raw.Ok(),
		URL:        raw.URL(),
		Headers:    raw.Headers(),
		Raw:        payload,
	}
	r.Body = decodeBody(payload)
	return r, nil
}

func decodeBody(payload []byte) interface{} {
	if len(payload) == 0 {
		return ""
	}
	var v interface{}
	if json.Valid(payload) && json.Unmarshal(payload, &v) == nil {
		return v
	}
	return string(payload)
}

// JSON decodes the raw payload into out.
func (r *Response) JSON(out interface{}) error {
	if err := json.Unmarshal(r.Raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", r.URL, err)
	}
	return nil
}

// Text is the raw payload as a string.
func (r *Response) Text() string { return string(r.Raw) }

// ValidateKeys checks that the body is a JSON object holding every key.
func (r *Response) ValidateKeys(keys ...string) error {
	obj, ok := r.Body.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%w: body is %T, not an object", ErrMissingKeys, r.Body)
	}
	var missing []string
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return nil
}

// Extract walks a dotted path such as "data.items.0.id" through the body.
// Numeric segments index arrays.
func (r *Response) Extract(path string) (interface{}, error) {
	cur := r.Body
	if path == "" {
		return cur, nil
	}
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("%w: %s (at %q)", ErrPathNotFound, path, seg)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("%w: %s (index %q of %d)", ErrPathNotFound, path, seg, len(node))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("%w: %s (at %q)", ErrPathNotFound, path, seg)
		}
	}
	return cur, nil
}
