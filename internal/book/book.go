// Package book holds the in-memory document model: book metadata, an ordered
// sequence of content units (chapters and section markers) and image assets.
//
// Chapters are addressed by their Order value. Every order-keyed operation acts
// on the first matching chapter in sequence order and reports whether it found
// one; a miss is never an error. Callers are responsible for keeping Order
// values unique.
package book

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// Book is the aggregate root of the model.
type Book struct {
	Title    string
	Author   string
	Language string
	Cover    string // asset name of the cover image, empty for none
	Modified int64  // seconds since epoch

	units  []Unit
	assets map[string][]byte
}

// New creates an empty book stamped with the current time.
func New(title string) *Book {
	return &Book{
		Title:    title,
		Modified: time.Now().Unix(),
		assets:   make(map[string][]byte),
	}
}

// Units returns a copy of the unit sequence.
func (b *Book) Units() []Unit {
	return slices.Clone(b.units)
}

// Len returns the number of units, sections included.
func (b *Book) Len() int {
	return len(b.units)
}

// Chapters returns the chapters in sequence order, skipping sections.
func (b *Book) Chapters() []*Chapter {
	chapters := make([]*Chapter, 0, len(b.units))
	for _, u := range b.units {
		if c, ok := u.(*Chapter); ok {
			chapters = append(chapters, c)
		}
	}
	return chapters
}

// SetChapters replaces the whole unit sequence with the given chapters.
func (b *Book) SetChapters(chapters []*Chapter) {
	b.units = make([]Unit, 0, len(chapters))
	for _, c := range chapters {
		b.units = append(b.units, c)
	}
}

// AddChapter appends a chapter at the end of the sequence. The sequence
// position is independent of order until the next SwapChapters.
func (b *Book) AddChapter(title, content string, order int) *Chapter {
	c := NewChapter(title, content, order)
	b.units = append(b.units, c)
	return c
}

// AddChapterAfter inserts a new chapter right after the first chapter with the
// given order. When no chapter matches, the new chapter is dropped and false
// is returned.
func (b *Book) AddChapterAfter(order int, title, content string, newOrder int) bool {
	return b.firstMatch(order, func(i int, _ *Chapter) {
		b.units = slices.Insert(b.units, i+1, Unit(NewChapter(title, content, newOrder)))
	})
}

// RemoveChapter removes the first chapter with the given order.
func (b *Book) RemoveChapter(order int) bool {
	return b.firstMatch(order, func(i int, _ *Chapter) {
		b.units = slices.Delete(b.units, i, i+1)
	})
}

// ChapterContent returns the body of the first chapter with the given order.
func (b *Book) ChapterContent(order int) (string, bool) {
	var content string
	found := b.firstMatch(order, func(_ int, c *Chapter) {
		content = c.Content
	})
	return content, found
}

// SetChapterContent replaces the body of the first chapter with the given order.
func (b *Book) SetChapterContent(order int, content string) bool {
	return b.firstMatch(order, func(_ int, c *Chapter) {
		c.Content = content
	})
}

// RenameChapter sets the title of the first chapter with the given order.
func (b *Book) RenameChapter(order int, title string) bool {
	return b.firstMatch(order, func(_ int, c *Chapter) {
		c.Title = title
	})
}

// MoveChapter sets the folder of the first chapter with the given order.
func (b *Book) MoveChapter(order int, folder string) bool {
	return b.firstMatch(order, func(_ int, c *Chapter) {
		c.Folder = folder
	})
}

// SwapChapters exchanges the order values of the chapters matching order1 and
// order2, moves both to the end of the sequence and stably re-sorts every unit
// by ascending order. Sections sort as SectionOrder. Returns false, leaving the
// book untouched, when either order has no match.
func (b *Book) SwapChapters(order1, order2 int) bool {
	i, first := b.find(order1)
	j, second := b.find(order2)
	if first == nil || second == nil {
		return false
	}

	if i != j {
		first.Order, second.Order = second.Order, first.Order
		lo, hi := min(i, j), max(i, j)
		b.units = slices.Delete(b.units, hi, hi+1)
		b.units = slices.Delete(b.units, lo, lo+1)
		b.units = append(b.units, first, second)
	}

	sort.SliceStable(b.units, func(x, y int) bool {
		return sortKey(b.units[x]) < sortKey(b.units[y])
	})
	return true
}

// AddSection appends a section marker.
func (b *Book) AddSection(title string) *Section {
	s := &Section{Title: title}
	b.units = append(b.units, s)
	return s
}

// FindAndReplace replaces every non-overlapping occurrence of search in each
// chapter body. Sections are left alone. Returns the number of chapters whose
// body changed.
func (b *Book) FindAndReplace(search, replace string) int {
	if search == "" {
		return 0
	}

	changed := 0
	for _, u := range b.units {
		switch u := u.(type) {
		case *Chapter:
			if strings.Contains(u.Content, search) {
				u.Content = strings.ReplaceAll(u.Content, search, replace)
				changed++
			}
		case *Section:
		}
	}
	return changed
}

// find returns the index and chapter of the first chapter with the given order.
func (b *Book) find(order int) (int, *Chapter) {
	for i, u := range b.units {
		switch u := u.(type) {
		case *Chapter:
			if u.Order == order {
				return i, u
			}
		case *Section:
			// never matches an order lookup
		}
	}
	return -1, nil
}

// firstMatch runs fn on the first chapter with the given order and reports
// whether one was found.
func (b *Book) firstMatch(order int, fn func(i int, c *Chapter)) bool {
	i, c := b.find(order)
	if c == nil {
		return false
	}
	fn(i, c)
	return true
}
