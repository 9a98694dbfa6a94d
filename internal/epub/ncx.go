package epub

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuanying/epubbook/internal/book"
)

const (
	ncxNamespace = "http://www.daisy.org/z3986/2005/ncx/"

	// contentsTitle labels the synthetic first navigation entry.
	contentsTitle = "Contents"
)

// ncxDocument is used for both reading and writing toc.ncx.
type ncxDocument struct {
	XMLName   xml.Name  `xml:"ncx"`
	Xmlns     string    `xml:"xmlns,attr"`
	Version   string    `xml:"version,attr"`
	Head      ncxHead   `xml:"head"`
	DocTitle  ncxText   `xml:"docTitle"`
	DocAuthor ncxText   `xml:"docAuthor"`
	NavMap    ncxNavMap `xml:"navMap"`
}

type ncxHead struct {
	Meta []ncxMeta `xml:"meta"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxText struct {
	Text string `xml:"text"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	ID        string        `xml:"id,attr"`
	PlayOrder int           `xml:"playOrder,attr"`
	NavLabel  ncxText       `xml:"navLabel"`
	Content   ncxContent    `xml:"content"`
	Children  []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// ParseNCX parses an NCX document. ncxDir is the directory containing it and
// is used to turn content sources into container paths.
func ParseNCX(content []byte, ncxDir string) (*NCX, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX XML: %w", err)
	}

	ncx := &NCX{
		DocTitle:  strings.TrimSpace(doc.DocTitle.Text),
		DocAuthor: strings.TrimSpace(doc.DocAuthor.Text),
		NavPoints: convertNavPoints(doc.NavMap.NavPoints, ncxDir),
	}
	for _, m := range doc.Head.Meta {
		switch m.Name {
		case "dtb:uid":
			ncx.UID = m.Content
		case "dtb:depth":
			ncx.Depth, _ = strconv.Atoi(m.Content)
		}
	}

	return ncx, nil
}

func convertNavPoints(points []ncxNavPoint, ncxDir string) []NavPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]NavPoint, 0, len(points))
	for _, p := range points {
		src, fragment := splitFragment(p.Content.Src)
		if src != "" {
			src = joinPath(ncxDir, src)
		}
		out = append(out, NavPoint{
			ID:          p.ID,
			PlayOrder:   p.PlayOrder,
			Label:       strings.TrimSpace(p.NavLabel.Text),
			ContentPath: src,
			Fragment:    fragment,
			Children:    convertNavPoints(p.Children, ncxDir),
		})
	}
	return out
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	path, fragment, _ = strings.Cut(src, "#")
	return path, fragment
}

// buildNCX renders the navigation document: a synthetic Contents entry
// followed by one entry per chapter in sequence order, numbered from 1.
func buildNCX(b *book.Book, identifier string) ([]byte, error) {
	doc := ncxDocument{
		Xmlns:   ncxNamespace,
		Version: "2005-1",
		Head: ncxHead{Meta: []ncxMeta{
			{Name: "dtb:uid", Content: identifier},
			{Name: "dtb:depth", Content: "1"},
			{Name: "dtb:totalPageCount", Content: "0"},
			{Name: "dtb:maxPageNumber", Content: "0"},
		}},
		DocTitle:  ncxText{Text: b.Title},
		DocAuthor: ncxText{Text: b.Author},
	}

	points := []ncxNavPoint{{
		ID:        "navpoint-1",
		PlayOrder: 1,
		NavLabel:  ncxText{Text: contentsTitle},
		Content:   ncxContent{Src: contentsHref},
	}}
	for _, c := range b.Chapters() {
		playOrder := len(points) + 1
		points = append(points, ncxNavPoint{
			ID:        "navpoint-" + strconv.Itoa(playOrder),
			PlayOrder: playOrder,
			NavLabel:  ncxText{Text: c.Title},
			Content:   ncxContent{Src: chapterHref(c.ID())},
		})
	}
	doc.NavMap.NavPoints = points

	return marshalDocument(doc)
}
