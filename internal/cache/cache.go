package cache

import (
	"sort"
	"sync"
)

// Conflict reports a key already used with a different text in another scope.
type Conflict struct {
	Key       string
	Text      string
	Scope     string
	OtherText string
	// OtherScope is the scope that recorded the key first.
	OtherScope string
}

type entry struct {
	scope string
	text  string
}

// KeyIndex remembers every key recorded during a run, across files.
// Keys are never merged or renamed; the index only reports reuse.
// It is safe for concurrent use.
type KeyIndex struct {
	mu     sync.RWMutex
	memory map[string]entry // key → first scope and text seen
	scopes map[string]map[string]struct{}
}

// NewKeyIndex creates an empty index.
func NewKeyIndex() *KeyIndex {
	return &KeyIndex{
		memory: make(map[string]entry),
		scopes: make(map[string]map[string]struct{}),
	}
}

// Record registers key with text for scope. It returns a Conflict when the
// key was first recorded by another scope with a different text.
func (c *KeyIndex) Record(scope, key, text string) (Conflict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scopes[key] == nil {
		c.scopes[key] = make(map[string]struct{})
	}
	c.scopes[key][scope] = struct{}{}

	first, ok := c.memory[key]
	if !ok {
		c.memory[key] = entry{scope: scope, text: text}
		return Conflict{}, false
	}
	if first.scope == scope || first.text == text {
		return Conflict{}, false
	}
	return Conflict{
		Key:        key,
		Text:       text,
		Scope:      scope,
		OtherText:  first.text,
		OtherScope: first.scope,
	}, true
}

// Shared returns the keys used by more than one scope, sorted.
func (c *KeyIndex) Shared() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	for key, scopes := range c.scopes {
		if len(scopes) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct keys recorded.
func (c *KeyIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
