package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful on shared backends (redis) where different projects or
// environments need separate cache namespaces.
//
// Example usage:
//
//	// Per-project keys on a shared redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "proj:billing:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for a layout result.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}
