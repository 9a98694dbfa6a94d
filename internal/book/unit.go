package book

import (
	"crypto/md5"
	"encoding/hex"
	"math"
)

// RootFolder is the folder every new chapter starts in.
const RootFolder = "OPS"

// SectionOrder is the sort key used for sections when the sequence is re-sorted.
const SectionOrder = math.MaxInt

// Unit is an entry of the book body: either a *Chapter or a *Section.
type Unit interface {
	unit()
}

// Chapter is a titled body of content.
type Chapter struct {
	Title   string
	Content string // may contain inline markup
	Order   int
	Folder  string
}

// Section is a structural marker with a title only.
type Section struct {
	Title string
}

func (*Chapter) unit() {}
func (*Section) unit() {}

// NewChapter creates a chapter in RootFolder.
func NewChapter(title, content string, order int) *Chapter {
	return &Chapter{
		Title:   title,
		Content: content,
		Order:   order,
		Folder:  RootFolder,
	}
}

// ID returns the content-hash identifier of the chapter: the lowercase hex MD5
// of its title. Two chapters with the same title share an ID.
func (c *Chapter) ID() string {
	return TitleHash(c.Title)
}

// TitleHash returns the lowercase hex MD5 digest of title.
func TitleHash(title string) string {
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:])
}

func sortKey(u Unit) int {
	switch u := u.(type) {
	case *Chapter:
		return u.Order
	case *Section:
		return SectionOrder
	}
	return SectionOrder
}
