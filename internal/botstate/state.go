// Package botstate
// Author: momentics <momentics@gmail.com>
//
// Persistent configuration of the chat bot: welcome channel, feed
// subscriptions and the owner id. Values of Config are only ever mutated
// through autosave.Store.WithWrite.

package botstate

import (
	"fmt"
	"slices"
)

// Kind identifies a relayed feed.
type Kind uint8

const (
	KindNazeBoku Kind = iota
	KindBisokuzenshin
)

// String returns the feed's short name.
func (k Kind) String() string {
	switch k {
	case KindNazeBoku:
		return "naze"
	case KindBisokuzenshin:
		return "bisokuzenshin"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "naze":
		return KindNazeBoku, nil
	case "bisokuzenshin":
		return KindBisokuzenshin, nil
	default:
		return 0, fmt.Errorf("unknown feed %q", s)
	}
}

// Channels lists channel ids. Subscription lists are kept sorted and unique.
type Channels struct {
	Welcome       uint64   `json:"welcome"`
	Naze          []uint64 `json:"naze"`
	Bisokuzenshin []uint64 `json:"bisokuzenshin"`
}

// Config is the state value guarded by the autosave store.
type Config struct {
	Channels Channels `json:"channels"`
	Owner    uint64   `json:"owner"`
}

// Default returns an empty configuration.
func Default() Config {
	return Config{}
}

func (c *Config) list(kind Kind) *[]uint64 {
	switch kind {
	case KindNazeBoku:
		return &c.Channels.Naze
	case KindBisokuzenshin:
		return &c.Channels.Bisokuzenshin
	default:
		return nil
	}
}

// Subscribe adds channel to kind's list. Reports whether it was added.
func (c *Config) Subscribe(kind Kind, channel uint64) bool {
	l := c.list(kind)
	if l == nil {
		return false
	}
	i, found := slices.BinarySearch(*l, channel)
	if found {
		return false
	}
	*l = slices.Insert(*l, i, channel)
	return true
}

// Unsubscribe removes channel from kind's list. Reports whether it was present.
func (c *Config) Unsubscribe(kind Kind, channel uint64) bool {
	l := c.list(kind)
	if l == nil {
		return false
	}
	i, found := slices.BinarySearch(*l, channel)
	if !found {
		return false
	}
	*l = slices.Delete(*l, i, i+1)
	return true
}

// Subscribers returns a copy of kind's channel list.
func (c *Config) Subscribers(kind Kind) []uint64 {
	l := c.list(kind)
	if l == nil {
		return nil
	}
	return slices.Clone(*l)
}

// IsSubscribed reports whether channel receives kind.
func (c *Config) IsSubscribed(kind Kind, channel uint64) bool {
	l := c.list(kind)
	if l == nil {
		return false
	}
	_, found := slices.BinarySearch(*l, channel)
	return found
}

// SetWelcome sets the welcome channel and returns the previous one.
func (c *Config) SetWelcome(channel uint64) uint64 {
	prev := c.Channels.Welcome
	c.Channels.Welcome = channel
	return prev
}

// RemoveWelcome clears the welcome channel. Reports whether one was set.
func (c *Config) RemoveWelcome() bool {
	had := c.Channels.Welcome != 0
	c.Channels.Welcome = 0
	return had
}

// SetOwnerIfUnset records owner when none is stored yet.
func (c *Config) SetOwnerIfUnset(owner uint64) bool {
	if c.Owner != 0 || owner == 0 {
		return false
	}
	c.Owner = owner
	return true
}

// IsOwner reports whether id is the stored owner.
func (c *Config) IsOwner(id uint64) bool {
	return c.Owner != 0 && c.Owner == id
}

// Normalize sorts and dedupes subscription lists loaded from storage.
func (c *Config) Normalize() {
	for _, l := range []*[]uint64{&c.Channels.Naze, &c.Channels.Bisokuzenshin} {
		slices.Sort(*l)
		*l = slices.Compact(*l)
	}
}
