package domain

// Attr is a single diagnostic attribute attached to a Failure or LogRecord.
type Attr struct {
	Key   string
	Value any
}

// Context is an ordered list of diagnostic attributes. Values are treated
// as immutable once attached to a Failure or LogRecord; all mutation
// helpers copy.
type Context []Attr

// Ctx builds a Context from alternating key/value pairs.
// An odd trailing argument is ignored.
func Ctx(kv ...any) Context {
	c := make(Context, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		c = append(c, Attr{Key: key, Value: kv[i+1]})
	}
	return c
}

// With returns a copy of the context with the attribute appended.
func (c Context) With(key string, value any) Context {
	out := make(Context, len(c), len(c)+1)
	copy(out, c)
	return append(out, Attr{Key: key, Value: value})
}

// Merge returns a copy of c followed by all attributes of other.
// Later attributes win when projected to a map.
func (c Context) Merge(other Context) Context {
	if len(other) == 0 {
		return c
	}
	out := make(Context, 0, len(c)+len(other))
	out = append(out, c...)
	out = append(out, other...)
	return out
}

// Get returns the last value recorded for key.
func (c Context) Get(key string) (any, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Key == key {
			return c[i].Value, true
		}
	}
	return nil, false
}

// Map projects the context to a plain map for serialization.
func (c Context) Map() map[string]any {
	m := make(map[string]any, len(c))
	for _, a := range c {
		m[a.Key] = a.Value
	}
	return m
}
