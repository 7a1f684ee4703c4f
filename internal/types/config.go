package types

// ConfigSection is one [section] of the source-of-truth document. Values
// keeps every occurrence of a key in document order; lookups return the
// first one.
type ConfigSection struct {
	Name   string
	Keys   []string
	Values map[string][]string
}

type ConfigDocument struct {
	Path     string
	Sections []ConfigSection
}

func (s ConfigSection) Get(key string) (string, bool) {
	values, ok := s.Values[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (s ConfigSection) Duplicates() []string {
	var keys []string
	for _, key := range s.Keys {
		if len(s.Values[key]) > 1 {
			keys = append(keys, key)
		}
	}
	return keys
}

func (d ConfigDocument) Section(name string) (ConfigSection, bool) {
	for _, section := range d.Sections {
		if section.Name == name {
			return section, true
		}
	}
	return ConfigSection{}, false
}

func (d ConfigDocument) Get(section string, key string) (string, bool) {
	s, ok := d.Section(section)
	if !ok {
		return "", false
	}
	return s.Get(key)
}

// ListKeys returns the keys of a section in document order. A missing
// section yields nil.
func (d ConfigDocument) ListKeys(section string) []string {
	s, ok := d.Section(section)
	if !ok {
		return nil
	}
	return append([]string(nil), s.Keys...)
}

func (d ConfigDocument) DetectDuplicates(section string) []string {
	s, ok := d.Section(section)
	if !ok {
		return nil
	}
	return s.Duplicates()
}

// Duplicates reports repeated keys for every section that has any.
func (d ConfigDocument) Duplicates() map[string][]string {
	found := map[string][]string{}
	for _, section := range d.Sections {
		if keys := section.Duplicates(); len(keys) > 0 {
			found[section.Name] = keys
		}
	}
	return found
}
