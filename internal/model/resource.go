package model

import "strings"

type ResourceKind string

const (
	ResourceKindFolder   ResourceKind = "folder"
	ResourceKindDocument ResourceKind = "document"
	ResourceKindOther    ResourceKind = "other"
)

const (
	MimeTypeFolder   = "application/vnd.google-apps.folder"
	MimeTypeDocument = "application/vnd.google-apps.document"
)

// KindFromMimeType maps a store mime type onto a ResourceKind.
func KindFromMimeType(mimeType string) ResourceKind {
	switch {
	case mimeType == MimeTypeFolder:
		return ResourceKindFolder
	case strings.Contains(mimeType, "document"):
		return ResourceKindDocument
	default:
		return ResourceKindOther
	}
}

// ResourceHandle is a read-only view of one node in the document store.
type ResourceHandle struct {
	ID       string
	Name     string
	Kind     ResourceKind
	MimeType string
	Link     string
}

// ShareableLink returns the store-provided link, or one synthesized from the id.
func (r ResourceHandle) ShareableLink() string {
	if r.Link != "" {
		return r.Link
	}
	return "https://drive.google.com/open?id=" + r.ID
}

// Container is a top-level namespace (shared drive) in the document store.
type Container struct {
	ID   string
	Name string
}

// Resources is what the resource resolver found for one artist.
// NameUsed is the name that located the artist folder, or the input name when nothing matched.
type Resources struct {
	ArtistFolder *ResourceHandle
	EditFolder   *ResourceHandle
	OutlineDoc   *ResourceHandle
	NameUsed     string
}
