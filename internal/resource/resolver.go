// Package resource locates an artist's course folders in the shared drive: the
// artist folder under the configured base path, the edit folder inside it
// (possibly one course folder down) and the course outline document.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"autodraft.app/assistant/internal/drive"
	"autodraft.app/assistant/internal/model"
)

// Names supplies fallback names when the pen name finds no folder.
type Names interface {
	ResolveLegalName(ctx context.Context, penName, address string) string
	ResolveInternalName(ctx context.Context, address string) string
}

type Config struct {
	BasePath       string
	BaseFolderID   string
	EditFolderName string
	OutlineDocName string
}

// location is a folder plus the shared drive scope searches under it need.
type location struct {
	folderID    string
	containerID string
}

// Resolver is meant to live for one run. Its caches are never invalidated.
type Resolver struct {
	store drive.Store
	names Names
	cfg   Config

	containers map[string]string // lower-cased shared drive name -> id
	base       *location
	artists    map[string]*model.ResourceHandle // lower-cased name -> folder, nil for a miss
}

func NewResolver(store drive.Store, names Names, cfg Config) *Resolver {
	return &Resolver{
		store:      store,
		names:      names,
		cfg:        cfg,
		containers: make(map[string]string),
		artists:    make(map[string]*model.ResourceHandle),
	}
}

// FindResources looks up the artist folder under name, then under the
// artist's legal name, its first token and a name mined from internal mail.
// Missing folders are not errors; store failures are.
func (r *Resolver) FindResources(ctx context.Context, name, address string) (model.Resources, error) {
	res := model.Resources{NameUsed: name}

	base, err := r.baseFolder(ctx)
	if err != nil {
		return res, err
	}
	if base == nil {
		slog.WarnContext(ctx, "drive base folder not found", "base_path", r.cfg.BasePath)
		return res, nil
	}

	tried := make(map[string]bool)
	for _, candidate := range r.candidateNames(name, address) {
		n := strings.TrimSpace(candidate(ctx))
		if n == "" || tried[strings.ToLower(n)] {
			continue
		}
		tried[strings.ToLower(n)] = true

		folder, err := r.artistFolder(ctx, base, n)
		if err != nil {
			return res, err
		}
		if folder != nil {
			res.ArtistFolder = folder
			res.NameUsed = n
			break
		}
		slog.InfoContext(ctx, "artist folder not found", "name", n)
	}
	if res.ArtistFolder == nil {
		return res, nil
	}

	artist := location{folderID: res.ArtistFolder.ID, containerID: base.containerID}
	subfolders, err := r.store.ListSubfolders(ctx, artist.folderID, artist.containerID)
	if err != nil {
		return res, fmt.Errorf("listing subfolders of %q: %w", res.ArtistFolder.Name, err)
	}

	if res.EditFolder, err = r.editFolder(ctx, artist, subfolders); err != nil {
		return res, err
	}
	if res.OutlineDoc, err = r.outlineDoc(ctx, artist, subfolders); err != nil {
		return res, err
	}

	slog.InfoContext(ctx, "resources resolved",
		"name_used", res.NameUsed,
		"artist_folder", res.ArtistFolder.Name,
		"edit_folder_found", res.EditFolder != nil,
		"outline_found", res.OutlineDoc != nil)
	return res, nil
}

// candidateNames is evaluated lazily so a direct hit never touches mail.
func (r *Resolver) candidateNames(name, address string) []func(context.Context) string {
	var (
		legal    string
		resolved bool
	)
	legalName := func(ctx context.Context) string {
		if !resolved {
			legal, resolved = r.names.ResolveLegalName(ctx, name, address), true
		}
		return legal
	}

	return []func(context.Context) string{
		func(context.Context) string { return name },
		legalName,
		func(ctx context.Context) string {
			if fields := strings.Fields(legalName(ctx)); len(fields) > 0 {
				return fields[0]
			}
			return ""
		},
		func(ctx context.Context) string { return r.names.ResolveInternalName(ctx, address) },
	}
}

func (r *Resolver) artistFolder(ctx context.Context, base *location, name string) (*model.ResourceHandle, error) {
	key := strings.ToLower(name)
	if folder, ok := r.artists[key]; ok {
		return folder, nil
	}

	items, err := r.store.SearchByName(ctx, drive.Query{
		Name:        name,
		ParentID:    base.folderID,
		MimeType:    model.MimeTypeFolder,
		ContainerID: base.containerID,
	})
	if err != nil {
		return nil, fmt.Errorf("searching artist folder %q: %w", name, err)
	}

	folder := pickByName(items, name)
	r.artists[key] = folder
	return folder, nil
}

func (r *Resolver) editFolder(ctx context.Context, artist location, subfolders []model.ResourceHandle) (*model.ResourceHandle, error) {
	if edit, err := r.childFolder(ctx, artist.folderID, artist.containerID, r.cfg.EditFolderName); edit != nil || err != nil {
		return edit, err
	}
	for _, sub := range subfolders {
		edit, err := r.childFolder(ctx, sub.ID, artist.containerID, r.cfg.EditFolderName)
		if edit != nil || err != nil {
			return edit, err
		}
	}
	return nil, nil
}

func (r *Resolver) outlineDoc(ctx context.Context, artist location, subfolders []model.ResourceHandle) (*model.ResourceHandle, error) {
	folders := []string{artist.folderID}
	for _, sub := range subfolders {
		folders = append(folders, sub.ID)
		edit, err := r.childFolder(ctx, sub.ID, artist.containerID, r.cfg.EditFolderName)
		if err != nil {
			return nil, err
		}
		if edit != nil {
			folders = append(folders, edit.ID)
		}
	}

	for _, folderID := range folders {
		items, err := r.store.SearchByName(ctx, drive.Query{
			Name:        r.cfg.OutlineDocName,
			ParentID:    folderID,
			ContainerID: artist.containerID,
		})
		if err != nil {
			return nil, fmt.Errorf("searching outline document: %w", err)
		}
		items = containing(items, r.cfg.OutlineDocName)
		if len(items) == 0 {
			continue
		}
		for i := range items {
			if items[i].Kind == model.ResourceKindDocument {
				return &items[i], nil
			}
		}
		return &items[0], nil
	}
	return nil, nil
}

func (r *Resolver) childFolder(ctx context.Context, parentID, containerID, name string) (*model.ResourceHandle, error) {
	items, err := r.store.SearchByName(ctx, drive.Query{
		Name:        name,
		ParentID:    parentID,
		MimeType:    model.MimeTypeFolder,
		ContainerID: containerID,
	})
	if err != nil {
		return nil, fmt.Errorf("searching folder %q: %w", name, err)
	}
	return pickByName(items, name), nil
}

// pickByName prefers a case-insensitive exact match, then the first item whose
// name contains name.
func pickByName(items []model.ResourceHandle, name string) *model.ResourceHandle {
	for i := range items {
		if strings.EqualFold(items[i].Name, name) {
			return &items[i]
		}
	}
	if matches := containing(items, name); len(matches) > 0 {
		return &matches[0]
	}
	return nil
}

func containing(items []model.ResourceHandle, name string) []model.ResourceHandle {
	needle := strings.ToLower(name)
	var out []model.ResourceHandle
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			out = append(out, item)
		}
	}
	return out
}
