package template

// Fields is a name to Field mapping that remembers insertion order.
// The zero value is ready to use.
type Fields struct {
	keys []string
	m    map[string]Field
}

// NewFields returns an empty ordered field set.
func NewFields() *Fields {
	return &Fields{}
}

// Set adds or replaces name. Replacing keeps the original position.
func (fs *Fields) Set(name string, f Field) *Fields {
	if fs.m == nil {
		fs.m = make(map[string]Field)
	}
	if _, ok := fs.m[name]; !ok {
		fs.keys = append(fs.keys, name)
	}
	fs.m[name] = f
	return fs
}

// Get returns the field declared under name.
func (fs *Fields) Get(name string) (Field, bool) {
	if fs == nil || fs.m == nil {
		return nil, false
	}
	f, ok := fs.m[name]
	return f, ok
}

// Has reports whether name is declared.
func (fs *Fields) Has(name string) bool {
	_, ok := fs.Get(name)
	return ok
}

// Delete removes name if present.
func (fs *Fields) Delete(name string) {
	if fs == nil || fs.m == nil {
		return
	}
	if _, ok := fs.m[name]; !ok {
		return
	}
	delete(fs.m, name)
	for i, k := range fs.keys {
		if k == name {
			fs.keys = append(fs.keys[:i], fs.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of declared fields.
func (fs *Fields) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.keys)
}

// Keys returns field names in declaration order. The slice is a copy.
func (fs *Fields) Keys() []string {
	if fs == nil {
		return nil
	}
	out := make([]string, len(fs.keys))
	copy(out, fs.keys)
	return out
}

// Each calls fn for every field in declaration order and stops at the first error.
func (fs *Fields) Each(fn func(name string, f Field) error) error {
	if fs == nil {
		return nil
	}
	for _, k := range fs.keys {
		if err := fn(k, fs.m[k]); err != nil {
			return err
		}
	}
	return nil
}
