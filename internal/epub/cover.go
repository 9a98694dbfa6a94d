package epub

import (
	"path"
	"slices"
	"strings"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Href            string
	MediaType       string
	DetectionMethod string // "properties", "meta", "guide", "filename"
}

// DetectCover finds the cover image declared by the package document. Methods
// are tried in order: properties="cover-image", meta name="cover", a guide
// reference of type cover pointing at an image, and finally an image whose
// file name contains "cover". SVG images are never picked by the last two.
// Returns nil if no cover image is found.
func (opf *OPF) DetectCover() *CoverInfo {
	found := func(item ManifestItem, method string) *CoverInfo {
		return &CoverInfo{
			ManifestID:      item.ID,
			Href:            item.Href,
			MediaType:       item.MediaType,
			DetectionMethod: method,
		}
	}

	for _, item := range opf.orderedItems() {
		if slices.Contains(item.Properties, "cover-image") {
			return found(item, "properties")
		}
	}

	if item, ok := opf.Manifest[opf.Metadata.CoverID]; ok && opf.Metadata.CoverID != "" {
		return found(item, "meta")
	}

	for _, ref := range opf.Guide {
		if ref.Type != "cover" {
			continue
		}
		href, _ := splitFragment(ref.Href)
		for _, item := range opf.orderedItems() {
			if isRasterImage(item.MediaType) && item.Href == href {
				return found(item, "guide")
			}
		}
	}

	for _, item := range opf.orderedItems() {
		if isRasterImage(item.MediaType) && strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			return found(item, "filename")
		}
	}

	return nil
}

// FindCoverImage returns the href of the detected cover image.
func (opf *OPF) FindCoverImage() (string, bool) {
	if c := opf.DetectCover(); c != nil {
		return c.Href, true
	}
	return "", false
}

func (opf *OPF) orderedItems() []ManifestItem {
	items := make([]ManifestItem, 0, len(opf.ManifestOrder))
	for _, id := range opf.ManifestOrder {
		if item, ok := opf.Manifest[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// isRasterImage checks if a media type is a raster image (SVG excluded).
func isRasterImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml"
}
