// Package epub encodes a book.Book into an EPUB container and decodes one back.
//
// The container layout is fixed:
//
//	mimetype                 stored, "application/epub+zip"
//	META-INF/container.xml   points at OPS/content.opf
//	OPS/css/style.css
//	OPS/<hash>.xml           one content document per chapter
//	OPS/contents.xhtml       navigation page
//	OPS/images/<name>        one per asset
//	OPS/content.opf
//	OPS/toc.ncx
//
// <hash> is the lowercase hex MD5 of the chapter title and is used as the
// manifest id, spine idref, navigation target and file name alike.
package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
	Guide         []GuideReference
	NCXPath       string
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title      string
	Creators   []Creator
	Language   string
	Identifier string
	Date       string
	Modified   string // dcterms:modified
	CoverID    string // manifest id named by meta name="cover"
}

// Creator represents a creator (author, editor, etc.) of the book
type Creator struct {
	Name   string
	FileAs string
	Role   string // e.g., "aut" for author
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// GuideReference is an entry of the OPF guide.
type GuideReference struct {
	Type  string
	Title string
	Href  string
}

// NCX represents the parsed navigation control document.
type NCX struct {
	UID       string
	Depth     int
	DocTitle  string
	DocAuthor string
	NavPoints []NavPoint
}

// NavPoint represents a single navigation point in the table of contents.
type NavPoint struct {
	ID          string
	PlayOrder   int
	Label       string
	ContentPath string // fragment-free path within the container
	Fragment    string // without #
	Children    []NavPoint
}
