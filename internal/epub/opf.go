package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/yuanying/epubbook/internal/book"
)

const (
	opfNamespace = "http://www.idpf.org/2007/opf"
	dcNamespace  = "http://purl.org/dc/elements/1.1/"

	// modifiedLayout formats book.Book.Modified in the package document.
	modifiedLayout = "2006-01-02T15:04:05Z"
)

// ErrMissingMetadata is returned when a required Dublin Core field is absent.
var ErrMissingMetadata = errors.New("missing required metadata")

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
	Guide    opfGuide    `xml:"guide"`
}

// opfMetadata represents the metadata section
type opfMetadata struct {
	Title      []string        `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator    []opfCreator    `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language   []string        `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Date       []string        `xml:"http://purl.org/dc/elements/1.1/ date"`
	Meta       []opfMeta       `xml:"meta"`
}

type opfCreator struct {
	Name   string `xml:",chardata"`
	Role   string `xml:"http://www.idpf.org/2007/opf role,attr"`
	FileAs string `xml:"http://www.idpf.org/2007/opf file-as,attr"`
	ID     string `xml:"id,attr"`
}

type opfIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta covers both the EPUB 2.0 (name/content) and 3.0 (property/chardata) forms.
type opfMeta struct {
	Name     string `xml:"name,attr,omitempty"`
	Content  string `xml:"content,attr,omitempty"`
	Property string `xml:"property,attr,omitempty"`
	Refines  string `xml:"refines,attr,omitempty"`
	Scheme   string `xml:"scheme,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr,omitempty"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr,omitempty"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr,omitempty"`
}

type opfGuide struct {
	References []opfReference `xml:"reference"`
}

type opfReference struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr,omitempty"`
	Href  string `xml:"href,attr"`
}

func unmarshalPackage(content []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}
	return &pkg, nil
}

// ParseOPF parses an OPF file content and returns the OPF structure.
// opfDir is the directory containing the OPF file (e.g., "OPS").
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	pkg, err := unmarshalPackage(content)
	if err != nil {
		return nil, err
	}

	opf := &OPF{
		Manifest: make(map[string]ManifestItem),
		Metadata: parseMetadata(&pkg.Metadata, pkg.UniqueID),
	}

	for _, item := range pkg.Manifest.Items {
		manifestItem := ManifestItem{
			ID:         item.ID,
			Href:       joinPath(opfDir, item.Href),
			MediaType:  item.MediaType,
			Properties: strings.Fields(item.Properties),
		}
		if _, dup := opf.Manifest[item.ID]; !dup {
			opf.ManifestOrder = append(opf.ManifestOrder, item.ID)
		}
		opf.Manifest[item.ID] = manifestItem
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: itemRef.Linear != "no",
		})
	}

	for _, ref := range pkg.Guide.References {
		opf.Guide = append(opf.Guide, GuideReference{
			Type:  ref.Type,
			Title: ref.Title,
			Href:  joinPath(opfDir, ref.Href),
		})
	}

	if ncxItem, ok := opf.Manifest[pkg.Spine.Toc]; ok && pkg.Spine.Toc != "" {
		opf.NCXPath = ncxItem.Href
	}

	return opf, nil
}

func parseMetadata(meta *opfMetadata, uniqueID string) Metadata {
	md := Metadata{
		Creators: []Creator{},
		Title:    first(meta.Title),
		Language: first(meta.Language),
		Date:     first(meta.Date),
	}

	for _, id := range meta.Identifier {
		if id.ID == uniqueID {
			md.Identifier = id.Value
			break
		}
	}
	if md.Identifier == "" && len(meta.Identifier) > 0 {
		md.Identifier = meta.Identifier[0].Value
	}

	for _, creator := range meta.Creator {
		md.Creators = append(md.Creators, Creator{
			Name:   creator.Name,
			FileAs: creator.FileAs,
			Role:   creator.Role,
		})
	}
	refineCreators(&md, meta)

	for _, m := range meta.Meta {
		switch {
		case m.Name == "cover" && m.Content != "" && md.CoverID == "":
			md.CoverID = m.Content
		case m.Property == "dcterms:modified" && md.Modified == "":
			md.Modified = strings.TrimSpace(m.Value)
		}
	}

	return md
}

// refineCreators applies EPUB 3.0 meta refinements (role, file-as) to creators.
func refineCreators(md *Metadata, meta *opfMetadata) {
	byID := make(map[string]int)
	for i, c := range meta.Creator {
		if c.ID != "" {
			byID["#"+c.ID] = i
		}
	}

	for _, m := range meta.Meta {
		idx, ok := byID[m.Refines]
		if !ok {
			continue
		}
		value := m.Value
		if value == "" {
			value = m.Content
		}
		switch m.Property {
		case "role":
			md.Creators[idx].Role = value
		case "file-as":
			md.Creators[idx].FileAs = value
		}
	}
}

// bookMetadata extracts the title, author and language required to rebuild a
// book. The first occurrence of each field wins; absence is an error.
func bookMetadata(pkg *opfPackage) (title, author, language string, err error) {
	meta := &pkg.Metadata
	switch {
	case len(meta.Title) == 0:
		return "", "", "", fmt.Errorf("%w: dc:title", ErrMissingMetadata)
	case len(meta.Creator) == 0:
		return "", "", "", fmt.Errorf("%w: dc:creator", ErrMissingMetadata)
	case len(meta.Language) == 0:
		return "", "", "", fmt.Errorf("%w: dc:language", ErrMissingMetadata)
	}
	return meta.Title[0], meta.Creator[0].Name, meta.Language[0], nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// joinPath joins OPF directory with a relative path
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return rel
	}
	return path.Join(base, rel)
}

// Package document writer types. Prefixed names are spelled out literally
// since encoding/xml does not emit namespace prefixes of its own.

type opfPackageDoc struct {
	XMLName  xml.Name       `xml:"package"`
	Xmlns    string         `xml:"xmlns,attr"`
	UniqueID string         `xml:"unique-identifier,attr"`
	Version  string         `xml:"version,attr"`
	Metadata opfMetadataDoc `xml:"metadata"`
	Manifest opfManifest    `xml:"manifest"`
	Spine    opfSpine       `xml:"spine"`
	Guide    opfGuide       `xml:"guide"`
}

type opfMetadataDoc struct {
	XmlnsDC    string          `xml:"xmlns:dc,attr"`
	XmlnsOPF   string          `xml:"xmlns:opf,attr"`
	Title      string          `xml:"dc:title"`
	Creator    dcCreatorDoc    `xml:"dc:creator"`
	Language   string          `xml:"dc:language"`
	Identifier dcIdentifierDoc `xml:"dc:identifier"`
	Date       string          `xml:"dc:date"`
	Meta       []opfMeta       `xml:"meta"`
}

type dcCreatorDoc struct {
	ID     string `xml:"id,attr"`
	FileAs string `xml:"opf:file-as,attr"`
	Role   string `xml:"opf:role,attr"`
	Name   string `xml:",chardata"`
}

type dcIdentifierDoc struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// fileAs derives the sort form of an author name by splitting on the first
// space: "Jane Doe" becomes "Doe, Jane". Single names are returned unchanged.
func fileAs(author string) string {
	given, family, ok := strings.Cut(strings.TrimSpace(author), " ")
	if !ok || strings.TrimSpace(family) == "" {
		return strings.TrimSpace(author)
	}
	return strings.TrimSpace(family) + ", " + given
}

func formatModified(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(modifiedLayout)
}

// buildOPF renders the package document for b. assets must already carry
// their manifest ids and media types.
func buildOPF(b *book.Book, identifier string, assets []asset) ([]byte, error) {
	modified := formatModified(b.Modified)
	doc := opfPackageDoc{
		Xmlns:    opfNamespace,
		UniqueID: "BookId",
		Version:  "2.0",
		Metadata: opfMetadataDoc{
			XmlnsDC:  dcNamespace,
			XmlnsOPF: opfNamespace,
			Title:    b.Title,
			Creator: dcCreatorDoc{
				ID:     "creator",
				FileAs: fileAs(b.Author),
				Role:   "aut",
				Name:   b.Author,
			},
			Language:   b.Language,
			Identifier: dcIdentifierDoc{ID: "BookId", Value: identifier},
			Date:       modified,
			Meta: []opfMeta{
				{Refines: "#creator", Property: "file-as", Value: fileAs(b.Author)},
				{Refines: "#creator", Property: "role", Scheme: "marc:relators", Value: "aut"},
				{Property: "dcterms:modified", Value: modified},
			},
		},
		Spine: opfSpine{Toc: ncxID},
		Guide: opfGuide{References: []opfReference{
			{Type: "toc", Title: contentsTitle, Href: contentsHref},
		}},
	}

	items := []opfManifestItem{
		{ID: ncxID, Href: ncxName, MediaType: ncxMediaType},
		{ID: styleID, Href: styleHref, MediaType: cssMediaType},
		{ID: contentsID, Href: contentsHref, MediaType: xhtmlMediaType},
	}
	for _, c := range b.Chapters() {
		id := c.ID()
		items = append(items, opfManifestItem{ID: id, Href: chapterHref(id), MediaType: xhtmlMediaType})
		doc.Spine.ItemRefs = append(doc.Spine.ItemRefs, opfItemRef{IDRef: id})
	}
	for _, a := range assets {
		items = append(items, opfManifestItem{ID: a.id, Href: a.href, MediaType: a.mediaType})
		if a.id == coverID {
			doc.Metadata.Meta = append(doc.Metadata.Meta, opfMeta{Name: "cover", Content: coverID})
		}
	}
	doc.Manifest.Items = items

	return marshalDocument(doc)
}

// marshalDocument renders v as an indented XML document with a declaration.
func marshalDocument(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
