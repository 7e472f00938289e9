package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryKey identifies one cached query: endpoint name plus canonical parameters
type QueryKey string

// Endpoint returns the endpoint name part of the key
func (k QueryKey) Endpoint() string {
	name, _, _ := strings.Cut(string(k), "(")
	return name
}

// Tag labels a group of queries sharing an invalidation lifecycle.
// An empty ID means "every query of this type".
type Tag struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// TypeTag returns the unparameterised tag for typ
func TypeTag(typ string) Tag {
	return Tag{Type: typ}
}

// IDTag returns the tag for one instance of typ
func IDTag(typ, id string) Tag {
	return Tag{Type: typ, ID: id}
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// Request is what a Dispatcher actually sends
type Request struct {
	URL    string
	Method string
	Body   any
}

// QueryDescriptor is a read intent: a named endpoint with parameters
type QueryDescriptor struct {
	Endpoint string
	Params   map[string]any
	Request  Request
	Tags     []Tag
}

// Key normalises the descriptor into its QueryKey
func (d QueryDescriptor) Key() (QueryKey, error) {
	return NewQueryKey(d.Endpoint, d.Params)
}

// MutationDescriptor is a write intent with the tags it invalidates on success
type MutationDescriptor struct {
	Endpoint    string
	Request     Request
	Invalidates []Tag
}

// NewQueryKey builds the deterministic key for endpoint and params.
// Params are round-tripped through generic JSON so that structurally equal
// values produce equal keys regardless of map order or concrete Go types.
func NewQueryKey(endpoint string, params any) (QueryKey, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%w: empty endpoint name", ErrUnknownEndpoint)
	}
	canonical, err := canonicalJSON(params)
	if err != nil {
		return "", fmt.Errorf("failed to normalise params for %s: %w", endpoint, err)
	}
	return QueryKey(endpoint + "(" + canonical + ")"), nil
}

func canonicalJSON(params any) (string, error) {
	if params == nil {
		return "", nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}
	generic = dropNulls(generic)
	if generic == nil {
		return "", nil
	}
	if m, ok := generic.(map[string]any); ok && len(m) == 0 {
		return "", nil
	}
	// encoding/json writes map keys in sorted order
	out, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// dropNulls removes null object members so that an absent and a nil parameter normalise alike
func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = dropNulls(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = dropNulls(t[i])
		}
		return t
	default:
		return v
	}
}
