// Package storage
// Author: momentics <momentics@gmail.com>

package storage

import (
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

// Encode serializes state into the blob format shared by all backends.
func Encode[S any](state *S) ([]byte, error) {
	data, err := sonnet.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode parses a blob produced by Encode.
func Decode[S any](data []byte) (S, error) {
	var state S
	if err := sonnet.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("invalid state: %w", err)
	}
	return state, nil
}
