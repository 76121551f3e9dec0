// Package storage
// Author: momentics <momentics@gmail.com>

package storage

import (
	"fmt"

	"github.com/momentics/relaybot/api"
)

// Kind names a backend implementation.
type Kind string

const (
	KindFile   Kind = "file"
	KindBadger Kind = "badger"
	KindSQLite Kind = "sqlite"
)

// Open builds the backend of the given kind. path is the file (file, sqlite)
// or directory (badger); name identifies the state inside shared stores.
func Open[S any](kind Kind, path, name string) (api.Backend[S], error) {
	switch kind {
	case KindFile, "":
		return NewFileBackend[S](path), nil
	case KindBadger:
		b, err := NewBadgerBackend[S](path, name)
		if err != nil {
			return nil, err
		}
		return b, nil
	case KindSQLite:
		b, err := NewSQLiteBackend[S](path, name)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, api.NewError(api.ErrCodeNotSupported, "unknown storage backend").
			WithContext("kind", string(kind))
	}
}

// ParseKind validates a configured backend name. Empty means file.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindFile, KindBadger, KindSQLite:
		return k, nil
	case "":
		return KindFile, nil
	default:
		return "", fmt.Errorf("storage backend %q: %w", s, api.ErrNotSupported)
	}
}
