package epub

import "encoding/xml"

const containerNamespace = "urn:oasis:names:tc:opendocument:xmlns:container"

// container.xml structure
type container struct {
	XMLName   xml.Name `xml:"container"`
	Xmlns     string   `xml:"xmlns,attr,omitempty"`
	Version   string   `xml:"version,attr"`
	Rootfiles struct {
		Rootfile []rootfile `xml:"rootfile"`
	} `xml:"rootfiles"`
}

type rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// buildContainer renders META-INF/container.xml pointing at the package document.
func buildContainer() ([]byte, error) {
	c := container{
		Xmlns:   containerNamespace,
		Version: "1.0",
	}
	c.Rootfiles.Rootfile = []rootfile{{
		FullPath:  inContentDir(opfName),
		MediaType: opfMediaType,
	}}
	return marshalDocument(c)
}
