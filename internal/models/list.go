// ABOUTME: Generic list decoding for backend collection endpoints
// ABOUTME: Accepts both bare JSON arrays and paginated result envelopes

package models

import (
	"bytes"
	"encoding/json"
)

// List holds the items of a collection response.
// The backend answers with a bare array for unpaginated queries (?no_page=true)
// and with {count, next, previous, results} otherwise; List decodes both.
type List[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// UnmarshalJSON implements json.Unmarshaler
func (l *List[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = List[T]{Count: len(items), Results: items}
		return nil
	}

	var p page[T]
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	if p.Count == 0 {
		p.Count = len(p.Results)
	}
	*l = List[T](p)
	return nil
}

// page mirrors List without its UnmarshalJSON so decoding does not recurse
type page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// Items returns the decoded results, never nil
func (l *List[T]) Items() []T {
	if l == nil || l.Results == nil {
		return []T{}
	}
	return l.Results
}
