package domain

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"m3c/pkg/rdf"
)

// DefaultStorageAlias is the VIVO file-storage shorthand for the individual
// namespace.
const DefaultStorageAlias = "b"

// Photo is a profile picture found in file storage for a person.
type Photo struct {
	PersonID  string
	Extension string // jpg or png
	Alias     string
}

// NewPhoto validates the person ID and normalizes the extension.
func NewPhoto(personID, extension string) (Photo, error) {
	if _, err := strconv.Atoi(personID); err != nil {
		return Photo{}, fmt.Errorf("photo: person id %q is not numeric", personID)
	}
	ext := strings.ToLower(extension)
	switch ext {
	case "jpg", "jpeg":
		ext = "jpg"
	case "png":
	default:
		return Photo{}, fmt.Errorf("photo: unsupported extension %q", extension)
	}
	return Photo{PersonID: personID, Extension: ext, Alias: DefaultStorageAlias}, nil
}

func (Photo) entity() {}

// EntityType implements Entity.
func (Photo) EntityType() EntityType { return EntityPhoto }

// Filename is the stored file name.
func (p Photo) Filename() string { return "photo." + p.Extension }

// MimeType is derived from the extension.
func (p Photo) MimeType() string {
	if p.Extension == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

// DownloadURL is the path VIVO serves the image from.
func (p Photo) DownloadURL() string {
	return "/file/" + PersonNNumber(p.PersonID) + "pic/" + p.Filename()
}

// StorageKey is the file-storage key, relative to the storage root. VIVO
// shards the "<alias>~<n-number>" path into directories of at most three
// characters.
func (p Photo) StorageKey() string {
	alias := p.Alias
	if alias == "" {
		alias = DefaultStorageAlias
	}
	full := alias + "~" + PersonNNumber(p.PersonID)
	var parts []string
	for len(full) > 3 {
		parts = append(parts, full[:3])
		full = full[3:]
	}
	if full != "" {
		parts = append(parts, full)
	}
	parts = append(parts, p.Filename())
	return path.Join(parts...)
}

// Triples implements Entity.
func (p Photo) Triples(namespace string) []rdf.Statement {
	person := PersonURI(namespace, p.PersonID)
	image := person + "photo"
	thumb := person + "thumb"
	imageDL := person + "pic"
	thumbDL := person + "tn"
	return []rdf.Statement{
		rdf.Link(person, rdf.VitroMainImage, image),

		rdf.Link(image, rdf.Type, rdf.VitroFile),
		rdf.Link(image, rdf.VitroDownloadLocation, imageDL),
		rdf.Triple(image, rdf.VitroFilename, rdf.Plain(p.Filename())),
		rdf.Triple(image, rdf.VitroMimeType, rdf.Plain(p.MimeType())),
		rdf.Link(image, rdf.VitroThumbnailImage, thumb),

		rdf.Link(imageDL, rdf.Type, rdf.VitroFileByteStream),
		rdf.Triple(imageDL, rdf.VitroDirectDownloadURL, rdf.Plain(p.DownloadURL())),

		rdf.Link(thumb, rdf.Type, rdf.VitroFile),
		rdf.Link(thumb, rdf.VitroDownloadLocation, thumbDL),
		rdf.Triple(thumb, rdf.VitroFilename, rdf.Plain(p.Filename())),
		rdf.Triple(thumb, rdf.VitroMimeType, rdf.Plain(p.MimeType())),

		// The thumbnail byte stream points at the full image.
		rdf.Link(thumbDL, rdf.Type, rdf.VitroFileByteStream),
		rdf.Triple(thumbDL, rdf.VitroDirectDownloadURL, rdf.Plain(p.DownloadURL())),
	}
}
