package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"autodraft.app/assistant/internal/model"
)

const (
	itemFields = "id, name, mimeType, webViewLink"
	pageSize   = 20
)

// GoogleDrive implements Store over the Drive v3 API.
type GoogleDrive struct {
	svc    *gdrive.Service
	logger *slog.Logger
}

func NewGoogleDrive(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*GoogleDrive, error) {
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleDrive{svc: svc, logger: logger}, nil
}

func (d *GoogleDrive) ListContainers(ctx context.Context) ([]model.Container, error) {
	resp, err := d.svc.Drives.List().PageSize(50).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing shared drives: %w", err)
	}
	containers := make([]model.Container, 0, len(resp.Drives))
	for _, drv := range resp.Drives {
		containers = append(containers, model.Container{ID: drv.Id, Name: drv.Name})
	}
	return containers, nil
}

func (d *GoogleDrive) SearchByName(ctx context.Context, q Query) ([]model.ResourceHandle, error) {
	clauses := []string{fmt.Sprintf("name contains '%s'", escapeQuery(q.Name)), "trashed = false"}
	if q.ParentID != "" {
		clauses = append(clauses, fmt.Sprintf("'%s' in parents", escapeQuery(q.ParentID)))
	}
	if q.MimeType != "" {
		clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", q.MimeType))
	}
	return d.list(ctx, strings.Join(clauses, " and "), q.ContainerID)
}

func (d *GoogleDrive) ListSubfolders(ctx context.Context, parentID, containerID string) ([]model.ResourceHandle, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escapeQuery(parentID), model.MimeTypeFolder)
	return d.list(ctx, query, containerID)
}

func (d *GoogleDrive) GetByID(ctx context.Context, id string) (*model.ResourceHandle, error) {
	f, err := d.svc.Files.Get(id).Fields(itemFields).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting drive item %s: %w", id, err)
	}
	h := toHandle(f)
	return &h, nil
}

func (d *GoogleDrive) list(ctx context.Context, query, containerID string) ([]model.ResourceHandle, error) {
	call := d.svc.Files.List().
		Q(query).
		Fields("files(" + itemFields + ")").
		PageSize(pageSize).
		Context(ctx)
	if containerID != "" {
		call = call.Corpora("drive").
			DriveId(containerID).
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true)
	} else {
		call = call.Spaces("drive")
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing drive files: %w", err)
	}

	d.logger.DebugContext(ctx, "drive query", "q", query, "container_id", containerID, "results", len(resp.Files))

	items := make([]model.ResourceHandle, 0, len(resp.Files))
	for _, f := range resp.Files {
		items = append(items, toHandle(f))
	}
	return items, nil
}

func toHandle(f *gdrive.File) model.ResourceHandle {
	return model.ResourceHandle{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     model.KindFromMimeType(f.MimeType),
		MimeType: f.MimeType,
		Link:     f.WebViewLink,
	}
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// escapeQuery escapes a literal for use inside a single-quoted Drive query string.
func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}
