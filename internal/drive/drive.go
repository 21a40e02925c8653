// Package drive is the hierarchical document store used to locate an artist's
// course folders and outline document. It is read-only: nothing here creates,
// moves or deletes files.
package drive

import (
	"context"

	"autodraft.app/assistant/internal/model"
)

// Query narrows a name search. Name is a case-insensitive "contains" match.
type Query struct {
	Name        string
	ParentID    string
	MimeType    string
	ContainerID string // shared drive scope; empty searches the user's drive
}

type Store interface {
	ListContainers(ctx context.Context) ([]model.Container, error)
	SearchByName(ctx context.Context, q Query) ([]model.ResourceHandle, error)
	ListSubfolders(ctx context.Context, parentID, containerID string) ([]model.ResourceHandle, error)
	// GetByID returns nil, nil when the item does not exist.
	GetByID(ctx context.Context, id string) (*model.ResourceHandle, error)
}
