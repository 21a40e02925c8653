package resource

import (
	"context"
	"fmt"
	"strings"

	"autodraft.app/assistant/internal/drive"
	"autodraft.app/assistant/internal/model"
)

// baseFolder resolves the configured base path once per resolver. The first
// path segment names a shared drive, the rest is walked folder by folder.
// Returns nil when some segment does not exist.
func (r *Resolver) baseFolder(ctx context.Context) (*location, error) {
	if r.base != nil {
		return r.base, nil
	}

	parts := splitPath(r.cfg.BasePath)
	var containerID string
	if len(parts) > 0 {
		id, err := r.containerID(ctx, parts[0])
		if err != nil {
			return nil, err
		}
		if id == "" {
			return nil, nil
		}
		containerID = id
	}

	if r.cfg.BaseFolderID != "" {
		folder, err := r.store.GetByID(ctx, r.cfg.BaseFolderID)
		if err != nil {
			return nil, fmt.Errorf("getting base folder: %w", err)
		}
		if folder == nil || folder.Kind != model.ResourceKindFolder {
			return nil, nil
		}
		r.base = &location{folderID: folder.ID, containerID: containerID}
		return r.base, nil
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("drive base path is empty")
	}

	current := containerID
	for _, part := range parts[1:] {
		items, err := r.store.SearchByName(ctx, drive.Query{
			Name:        part,
			ParentID:    current,
			MimeType:    model.MimeTypeFolder,
			ContainerID: containerID,
		})
		if err != nil {
			return nil, fmt.Errorf("walking base path at %q: %w", part, err)
		}
		folder := pickByName(items, part)
		if folder == nil {
			return nil, nil
		}
		current = folder.ID
	}

	r.base = &location{folderID: current, containerID: containerID}
	return r.base, nil
}

// containerID returns the shared drive id for name, listing drives only on a cache miss.
func (r *Resolver) containerID(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(name)
	if id, ok := r.containers[key]; ok {
		return id, nil
	}

	containers, err := r.store.ListContainers(ctx)
	if err != nil {
		return "", fmt.Errorf("listing shared drives: %w", err)
	}
	for _, c := range containers {
		r.containers[strings.ToLower(c.Name)] = c.ID
	}
	if _, ok := r.containers[key]; !ok {
		r.containers[key] = ""
	}
	return r.containers[key], nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
