package schema

// Compact maps field names to their descriptors. It is the form test
// authors write; ObjectSchema derives the strict schema from it.
type Compact map[string]Field

// Keys returns the field names in sorted order.
func (c Compact) Keys() []string {
	return sortedKeys(c)
}

// Clone returns a shallow copy. Fields are values, so the copy is
// independent of the original map.
func (c Compact) Clone() Compact {
	if c == nil {
		return nil
	}
	out := make(Compact, len(c))
	for name, field := range c {
		out[name] = field
	}
	return out
}

// With returns a copy including the named field.
func (c Compact) With(name string, field Field) Compact {
	out := c.Clone()
	if out == nil {
		out = make(Compact, 1)
	}
	out[name] = field
	return out
}

// Without returns a copy with the named fields removed.
func (c Compact) Without(names ...string) Compact {
	out := c.Clone()
	for _, name := range names {
		delete(out, name)
	}
	return out
}

// Merge returns a copy combining c with other; other wins on conflicts.
func (c Compact) Merge(other Compact) Compact {
	out := c.Clone()
	if out == nil {
		out = make(Compact, len(other))
	}
	for name, field := range other {
		out[name] = field
	}
	return out
}
