package app

import "github.com/nhle/stickylist/internal/keys"

// KeyMap is re-exported from the keys package so callers building the
// root model need only this package.
type KeyMap = keys.KeyMap

// DefaultKeyMap delegates to keys.DefaultKeyMap.
func DefaultKeyMap() *KeyMap {
	return keys.DefaultKeyMap()
}
