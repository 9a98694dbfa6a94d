package epub

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuanying/epubbook/internal/book"
)

const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

// Class names that mark the parts of a chapter document.
const (
	headingClass  = "bordered-title"
	subtitleClass = "subtitle"
	bodyClass     = "ps1"
	breakClass    = "br"
)

// ErrMissingElement is returned when a chapter document lacks one of the
// heading, subtitle or body elements.
var ErrMissingElement = errors.New("missing chapter element")

var nonDigitRe = regexp.MustCompile(`\D`)

// Content represents a parsed XHTML content file
type Content struct {
	ID        string            // Manifest ID
	Path      string            // File path
	Raw       []byte            // Unparsed document
	Document  *goquery.Document // Parsed HTML document
	CSSLinks  []string          // Referenced CSS file paths
	ImageRefs []string          // Referenced image paths
}

// LoadContent loads and parses an XHTML content file
// id: manifest item ID
// path: file path within the container (used for relative path resolution)
// content: XHTML file content
func LoadContent(id, filePath string, content []byte) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	c := &Content{
		ID:        id,
		Path:      filePath,
		Raw:       content,
		Document:  doc,
		CSSLinks:  []string{},
		ImageRefs: []string{},
	}

	baseDir := path.Dir(filePath)
	doc.Find("link[rel='stylesheet']").Each(func(i int, s *goquery.Selection) {
		if href, exists := s.Attr("href"); exists {
			c.CSSLinks = append(c.CSSLinks, resolvePath(baseDir, href))
		}
	})
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if src, exists := s.Attr("src"); exists {
			c.ImageRefs = append(c.ImageRefs, resolvePath(baseDir, src))
		}
	})

	return c, nil
}

// resolvePath resolves a relative path against a base directory
// ("text" + "../images/photo.jpg" -> "images/photo.jpg").
func resolvePath(baseDir, relPath string) string {
	return path.Clean(path.Join(baseDir, relPath))
}

// Chapter extracts the chapter title, body and order from a document produced
// by Export. Every one of the three elements must be present.
func (c *Content) Chapter() (*book.Chapter, error) {
	heading := c.Document.Find("h2." + headingClass).First()
	if heading.Length() == 0 {
		return nil, fmt.Errorf("%s: %w: h2.%s", c.Path, ErrMissingElement, headingClass)
	}
	subtitle := c.Document.Find("h3." + subtitleClass).First()
	if subtitle.Length() == 0 {
		return nil, fmt.Errorf("%s: %w: h3.%s", c.Path, ErrMissingElement, subtitleClass)
	}
	body := c.Document.Find("p." + bodyClass).First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("%s: %w: p.%s", c.Path, ErrMissingElement, bodyClass)
	}

	digits := nonDigitRe.ReplaceAllString(heading.Text(), "")
	order, err := strconv.Atoi(digits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: no chapter number in %q", c.Path, ErrMissingElement, heading.Text())
	}

	content, ok := c.rawBody()
	if !ok {
		// not well-formed XML; take the HTML serialisation instead
		if content, err = body.Html(); err != nil {
			return nil, fmt.Errorf("%s: failed to render body: %w", c.Path, err)
		}
	}

	title := strings.TrimSpace(subtitle.Text())
	if em := subtitle.Find("em").First(); em.Length() > 0 {
		title = em.Text()
	}

	return book.NewChapter(title, content, order), nil
}

// rawBody returns the body paragraph markup byte for byte as it appears in
// the document. goquery re-serialises markup, which escapes quotes.
func (c *Content) rawBody() (string, bool) {
	var doc struct {
		Paragraphs []xhtmlParagraph `xml:"body>p"`
	}
	dec := xml.NewDecoder(bytes.NewReader(c.Raw))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&doc); err != nil {
		return "", false
	}
	for _, p := range doc.Paragraphs {
		if hasClass(p.Class, bodyClass) {
			return p.Inner, true
		}
	}
	return "", false
}

func hasClass(attr, class string) bool {
	for _, f := range strings.Fields(attr) {
		if f == class {
			return true
		}
	}
	return false
}

// Content document writer types.

type xhtmlDocument struct {
	XMLName xml.Name  `xml:"html"`
	Xmlns   string    `xml:"xmlns,attr"`
	Head    xhtmlHead `xml:"head"`
	Body    xhtmlBody `xml:"body"`
}

type xhtmlHead struct {
	Title string    `xml:"title"`
	Link  xhtmlLink `xml:"link"`
}

type xhtmlLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
	Rel  string `xml:"rel,attr"`
}

type xhtmlBody struct {
	Heading    *xhtmlText       `xml:"h2,omitempty"`
	Subtitle   *xhtmlSubtitle   `xml:"h3,omitempty"`
	Title      *xhtmlText       `xml:"h1,omitempty"`
	List       *xhtmlList       `xml:"ul,omitempty"`
	Paragraphs []xhtmlParagraph `xml:"p"`
}

type xhtmlText struct {
	Class string `xml:"class,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type xhtmlSubtitle struct {
	Class string `xml:"class,attr"`
	Em    string `xml:"em"`
}

type xhtmlParagraph struct {
	Class string `xml:"class,attr"`
	Inner string `xml:",innerxml"`
}

type xhtmlList struct {
	Items []xhtmlListItem `xml:"li"`
}

type xhtmlListItem struct {
	Link xhtmlAnchor `xml:"a"`
}

type xhtmlAnchor struct {
	Href string `xml:"href,attr"`
	Text string `xml:",chardata"`
}

func newXHTMLDocument(title string, body xhtmlBody) xhtmlDocument {
	return xhtmlDocument{
		Xmlns: xhtmlNamespace,
		Head: xhtmlHead{
			Title: title,
			Link:  xhtmlLink{Href: styleHref, Type: cssMediaType, Rel: "stylesheet"},
		},
		Body: body,
	}
}

// renderChapter renders the content document of one chapter. The body is
// inserted verbatim, so inline markup in it must be well-formed.
func renderChapter(c *book.Chapter) ([]byte, error) {
	doc := newXHTMLDocument(c.Title, xhtmlBody{
		Heading:  &xhtmlText{Class: headingClass, Text: fmt.Sprintf("Chapter %d", c.Order)},
		Subtitle: &xhtmlSubtitle{Class: subtitleClass, Em: c.Title},
		Paragraphs: []xhtmlParagraph{
			{Class: bodyClass, Inner: c.Content},
			{Class: breakClass, Inner: "<br/>"},
		},
	})
	return marshalDocument(doc)
}

// renderContents renders the navigation page targeted by the Contents entry
// of the NCX: one link per chapter in sequence order.
func renderContents(b *book.Book) ([]byte, error) {
	list := &xhtmlList{}
	for _, c := range b.Chapters() {
		list.Items = append(list.Items, xhtmlListItem{
			Link: xhtmlAnchor{Href: chapterHref(c.ID()), Text: c.Title},
		})
	}
	doc := newXHTMLDocument(contentsTitle, xhtmlBody{
		Title: &xhtmlText{Class: "page-title", Text: contentsTitle},
		List:  list,
	})
	return marshalDocument(doc)
}
