package epub

import "path"

// MimeType is the literal content of the uncompressed mimetype entry.
const MimeType = "application/epub+zip"

const (
	mimetypeName  = "mimetype"
	containerName = "META-INF/container.xml"
	contentDir    = "OPS"
	opfName       = "content.opf"
	ncxName       = "toc.ncx"
	styleHref     = "css/style.css"
	contentsHref  = "contents.xhtml"
	imagesDir     = "images"
	chapterExt    = ".xml"

	opfMediaType   = "application/oebps-package+xml"
	xhtmlMediaType = "application/xhtml+xml"
	ncxMediaType   = "application/x-dtbncx+xml"
	cssMediaType   = "text/css"

	coverID    = "cover-image"
	ncxID      = "ncx"
	styleID    = "style"
	contentsID = "contents"
)

// chapterHref is the path of a chapter document relative to contentDir.
func chapterHref(id string) string {
	return id + chapterExt
}

// imageHref is the path of an asset relative to contentDir.
func imageHref(name string) string {
	return imagesDir + "/" + name
}

// inContentDir joins a contentDir-relative href into an archive entry name.
func inContentDir(href string) string {
	return path.Join(contentDir, href)
}
