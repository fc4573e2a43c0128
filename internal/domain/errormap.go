package domain

// ErrorMap holds the per-field messages currently shown next to form
// controls, keyed by field name. A nil ErrorMap is empty and safe to read.
type ErrorMap map[string]string

// Set records message for field, replacing any previous message.
func (m ErrorMap) Set(field, message string) {
	m[field] = message
}

// Get returns the message for field, or "" when the field has no error.
func (m ErrorMap) Get(field string) string {
	return m[field]
}

// Has reports whether field currently has an error.
func (m ErrorMap) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Clear removes the error for field and reports whether one was present.
func (m ErrorMap) Clear(field string) bool {
	if _, ok := m[field]; !ok {
		return false
	}
	delete(m, field)
	return true
}

// Merge copies every entry of other into m. Entries in other win.
func (m ErrorMap) Merge(other ErrorMap) {
	for field, message := range other {
		m[field] = message
	}
}

// Len returns the number of fields with errors.
func (m ErrorMap) Len() int {
	return len(m)
}

// Empty reports whether no field has an error.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// Clone returns an independent copy of m. Cloning nil yields an empty map.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for field, message := range m {
		out[field] = message
	}
	return out
}

// First returns the first field in catalog declaration order that has an
// error. Errors on fields the catalog does not declare are never returned.
func (m ErrorMap) First(c *Catalog) string {
	if len(m) == 0 || c == nil {
		return ""
	}
	for _, f := range c.Fields() {
		if m.Has(f.Name) {
			return f.Name
		}
	}
	return ""
}
