// Package prow reads CI job metadata published in GCS-style directory listings.
package prow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strings"
)

// ErrMissingTimestamp is returned when a metadata document has no timestamp field.
var ErrMissingTimestamp = errors.New("missing timestamp")

// SuccessResult is the result value written by newer job runners on success.
const SuccessResult = "SUCCESS"

// Finished is the content of a run's finished.json.
// Older runs report Passed, newer ones report Result.
type Finished struct {
	Passed    *bool  `json:"passed,omitempty"`
	Result    string `json:"result,omitempty"`
	Timestamp *int64 `json:"timestamp"`
}

// Succeeded reports whether the run passed under either schema. A document
// carrying neither field is a failure.
func (f *Finished) Succeeded() bool {
	if f.Passed != nil && *f.Passed {
		return true
	}
	return f.Result == SuccessResult
}

// UnmarshalJSON accepts the timestamp as an integer or a whole-second float.
func (f *Finished) UnmarshalJSON(data []byte) error {
	type plain Finished
	var raw struct {
		plain
		Timestamp *json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := epoch(raw.Timestamp)
	if err != nil {
		return err
	}
	*f = Finished(raw.plain)
	f.Timestamp = ts
	return nil
}

// Duration returns the seconds between started and f.
func (f *Finished) Duration(started *Started) (int64, error) {
	if f.Timestamp == nil {
		return 0, fmt.Errorf("finished.json: %w", ErrMissingTimestamp)
	}
	if started.Timestamp == nil {
		return 0, fmt.Errorf("started.json: %w", ErrMissingTimestamp)
	}
	return *f.Timestamp - *started.Timestamp, nil
}

// Started is the content of a run's started.json.
type Started struct {
	Timestamp *int64 `json:"timestamp"`
}

// UnmarshalJSON accepts the timestamp as an integer or a whole-second float.
func (s *Started) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp *json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := epoch(raw.Timestamp)
	if err != nil {
		return err
	}
	s.Timestamp = ts
	return nil
}

// epoch converts a JSON number of Unix seconds. Anything else, including
// fractional seconds that cannot be keyed, is a type error.
func epoch(raw *json.RawMessage) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	n := json.Number(*raw)
	if i, err := n.Int64(); err == nil {
		return &i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil, &json.UnmarshalTypeError{
			Value: "timestamp " + string(*raw),
			Type:  reflect.TypeOf(int64(0)),
			Field: "timestamp",
		}
	}
	i := int64(f)
	return &i, nil
}

// Getter fetches a URI as text. *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, uri string) (string, error)
}

// Client resolves listing hrefs and reads job metadata documents.
type Client struct {
	getter Getter
	base   *url.URL
}

// NewClient creates a Client rooted at baseURL, the listing of pull request directories.
func NewClient(getter Getter, baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return &Client{getter: getter, base: base}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Resolve resolves ref against the base URL.
func (c *Client) Resolve(ref string) (string, error) {
	return resolve(c.base, ref)
}

// PRListing fetches the directory listing of one pull request.
func (c *Client) PRListing(ctx context.Context, pr int) (string, error) {
	uri, err := c.Resolve(fmt.Sprintf("%d/", pr))
	if err != nil {
		return "", err
	}
	return c.getter.Get(ctx, uri)
}

// Listing fetches the page at uri.
func (c *Client) Listing(ctx context.Context, uri string) (string, error) {
	return c.getter.Get(ctx, uri)
}

// Finished fetches and decodes finished.json inside runURI. The timestamp is
// only checked by Duration, since failed runs are never measured.
func (c *Client) Finished(ctx context.Context, runURI string) (*Finished, error) {
	var f Finished
	if err := c.document(ctx, runURI, "finished.json", &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Started fetches and decodes started.json inside runURI.
func (c *Client) Started(ctx context.Context, runURI string) (*Started, error) {
	var s Started
	if err := c.document(ctx, runURI, "started.json", &s); err != nil {
		return nil, err
	}
	if s.Timestamp == nil {
		return nil, fmt.Errorf("%s: started.json: %w", runURI, ErrMissingTimestamp)
	}
	return &s, nil
}

func (c *Client) document(ctx context.Context, runURI, name string, v any) error {
	run, err := url.Parse(runURI)
	if err != nil {
		return fmt.Errorf("invalid run URI %q: %w", runURI, err)
	}
	uri, err := resolve(run, name)
	if err != nil {
		return err
	}

	body, err := c.getter.Get(ctx, uri)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%s: failed to decode %s: %w", runURI, name, err)
	}
	return nil
}

func resolve(base *url.URL, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", ref, err)
	}
	return base.ResolveReference(r).String(), nil
}
