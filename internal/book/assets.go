package book

import "sort"

// AddImage stores data under name, replacing any previous asset with that name.
func (b *Book) AddImage(name string, data []byte) {
	if b.assets == nil {
		b.assets = make(map[string][]byte)
	}
	b.assets[name] = data
}

// RemoveImage deletes the named asset and reports whether it existed.
func (b *Book) RemoveImage(name string) bool {
	if _, ok := b.assets[name]; !ok {
		return false
	}
	delete(b.assets, name)
	return true
}

// Image returns the named asset.
func (b *Book) Image(name string) ([]byte, bool) {
	data, ok := b.assets[name]
	return data, ok
}

// ImageNames returns the asset names in lexical order.
func (b *Book) ImageNames() []string {
	names := make([]string, 0, len(b.assets))
	for name := range b.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
