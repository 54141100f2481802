// Package blobstore provides file storage for uploaded site assets such as
// post covers, slider images and course material. It defines the Store
// interface, an in-memory implementation for testing, a disk-backed
// implementation for production, and Echo HTTP handlers for multipart upload,
// download, metadata retrieval and deletion.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrBlobNotFound       = errors.New("file not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// DefaultMaxFileSize caps uploads at 10 MB unless overridden in config.
const DefaultMaxFileSize = 10 * 1024 * 1024

// AllowedCategories lists valid upload category values.
var AllowedCategories = map[string]bool{
	"post-cover":      true,
	"slide-image":     true,
	"course-material": true,
	"testimonial":     true,
	"site-asset":      true,
	"other":           true,
}

// AllowedContentTypes lists the MIME types accepted for upload. The site
// serves images and downloadable course documents only.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// Metadata describes a stored file.
type Metadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Category    string    `json:"category"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// Store defines the contract for file storage backends.
type Store interface {
	Upload(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *Metadata, error)
	Delete(ctx context.Context, id string) error
	GetMetadata(ctx context.Context, id string) (*Metadata, error)
	List(ctx context.Context, category string, limit, offset int) ([]*Metadata, int, error)
}

func validateUpload(meta *Metadata) error {
	if meta.FileName == "" {
		return ErrMissingFileName
	}
	if !AllowedContentTypes[meta.ContentType] {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, meta.ContentType)
	}
	if meta.Category == "" {
		meta.Category = "other"
	}
	if !AllowedCategories[meta.Category] {
		return fmt.Errorf("unknown category %q", meta.Category)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedBlob struct {
	metadata Metadata
	content  []byte
}

// MemoryStore is a thread-safe, in-memory Store for testing and development.
type MemoryStore struct {
	maxSize int64

	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

// NewMemoryStore returns a ready-to-use MemoryStore. A maxSize of zero
// falls back to DefaultMaxFileSize.
func NewMemoryStore(maxSize int64) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &MemoryStore{
		maxSize: maxSize,
		blobs:   make(map[string]*storedBlob),
	}
}

// Upload validates inputs, reads the content, computes a SHA-256 hash, and
// stores the file in memory.
func (s *MemoryStore) Upload(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	if err := validateUpload(&meta); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

// Download returns an io.ReadCloser over the file content and its metadata.
func (s *MemoryStore) Download(_ context.Context, id string) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

// Delete removes a file by ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

// GetMetadata returns file metadata without content.
func (s *MemoryStore) GetMetadata(_ context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return &meta, nil
}

// List returns stored files, optionally filtered by category, with the
// matching page and the total count.
func (s *MemoryStore) List(_ context.Context, category string, limit, offset int) ([]*Metadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Metadata
	for _, b := range s.blobs {
		if category != "" && b.metadata.Category != category {
			continue
		}
		m := b.metadata
		matched = append(matched, &m)
	}

	total := len(matched)
	matched = paginate(matched, limit, offset)
	return matched, total, nil
}

func paginate(items []*Metadata, limit, offset int) []*Metadata {
	if limit <= 0 {
		limit = 20
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ---------------------------------------------------------------------------
// Disk implementation
// ---------------------------------------------------------------------------

// DiskStore persists files under a root directory. Content lives in
// <root>/<id> and metadata in <root>/<id>.meta as a small text record.
type DiskStore struct {
	root    string
	maxSize int64

	mu sync.RWMutex
}

// NewDiskStore creates the root directory if needed and returns a DiskStore.
func NewDiskStore(root string, maxSize int64) (*DiskStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", root, err)
	}
	return &DiskStore{root: root, maxSize: maxSize}, nil
}

func (s *DiskStore) contentPath(id string) string { return filepath.Join(s.root, id) }
func (s *DiskStore) metaPath(id string) string    { return filepath.Join(s.root, id+".meta") }

// Upload validates inputs, writes the content to disk and records metadata
// alongside it.
func (s *DiskStore) Upload(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	if err := validateUpload(&meta); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.contentPath(meta.ID), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := writeMetaFile(s.metaPath(meta.ID), &meta); err != nil {
		os.Remove(s.contentPath(meta.ID))
		return nil, fmt.Errorf("writing metadata: %w", err)
	}

	out := meta
	return &out, nil
}

// Download opens the stored content and returns it with its metadata.
func (s *DiskStore) Download(ctx context.Context, id string) (io.ReadCloser, *Metadata, error) {
	meta, err := s.GetMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(s.contentPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	return f, meta, nil
}

// Delete removes both the content and the metadata record.
func (s *DiskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.metaPath(id)); os.IsNotExist(err) {
		return ErrBlobNotFound
	}
	if err := os.Remove(s.contentPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	if err := os.Remove(s.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing metadata: %w", err)
	}
	return nil
}

// GetMetadata loads the metadata record for a stored file.
func (s *DiskStore) GetMetadata(_ context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := readMetaFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	return meta, nil
}

// List scans the metadata records under the root directory.
func (s *DiskStore) List(_ context.Context, category string, limit, offset int) ([]*Metadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, 0, fmt.Errorf("reading upload dir: %w", err)
	}

	var matched []*Metadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta") {
			continue
		}
		meta, err := readMetaFile(filepath.Join(s.root, e.Name()))
		if err != nil {
			continue
		}
		if category != "" && meta.Category != category {
			continue
		}
		matched = append(matched, meta)
	}

	total := len(matched)
	matched = paginate(matched, limit, offset)
	return matched, total, nil
}

// Metadata records use a line-oriented key=value format so the upload
// directory stays inspectable with standard tools.
func writeMetaFile(path string, m *Metadata) error {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%s\n", m.ID)
	fmt.Fprintf(&b, "file_name=%s\n", m.FileName)
	fmt.Fprintf(&b, "content_type=%s\n", m.ContentType)
	fmt.Fprintf(&b, "size=%d\n", m.Size)
	fmt.Fprintf(&b, "category=%s\n", m.Category)
	fmt.Fprintf(&b, "hash=%s\n", m.Hash)
	fmt.Fprintf(&b, "created_at=%s\n", m.CreatedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "created_by=%s\n", m.CreatedBy)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func readMetaFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := &Metadata{}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch k {
		case "id":
			m.ID = v
		case "file_name":
			m.FileName = v
		case "content_type":
			m.ContentType = v
		case "size":
			m.Size, _ = strconv.ParseInt(v, 10, 64)
		case "category":
			m.Category = v
		case "hash":
			m.Hash = v
		case "created_at":
			m.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
		case "created_by":
			m.CreatedBy = v
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// HTTP handler
// ---------------------------------------------------------------------------

type listResponse struct {
	Items []*Metadata `json:"items"`
	Total int         `json:"total"`
}

// Handler provides Echo HTTP handlers for file operations.
type Handler struct {
	store Store
}

// NewHandler creates a new Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts upload routes. Public gets read access; write
// operations go on the admin group.
func (h *Handler) RegisterRoutes(public, admin *echo.Group) {
	public.GET("/uploads/:id", h.handleDownload)
	public.GET("/uploads/:id/metadata", h.handleGetMetadata)
	admin.POST("/uploads", h.handleUpload)
	admin.GET("/uploads", h.handleList)
	admin.DELETE("/uploads/:id", h.handleDelete)
}

func (h *Handler) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")

	meta := Metadata{
		FileName:    file.Filename,
		ContentType: contentType,
		Category:    c.FormValue("category"),
		CreatedBy:   c.FormValue("created_by"),
	}

	result, err := h.store.Upload(c.Request().Context(), meta, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, ErrMissingFileName):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) handleDownload(c echo.Context) error {
	id := c.Param("id")

	rc, meta, err := h.store.Download(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *Handler) handleGetMetadata(c echo.Context) error {
	meta, err := h.store.GetMetadata(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) handleDelete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) handleList(c echo.Context) error {
	limit := intParam(c, "limit", 20)
	offset := intParam(c, "offset", 0)

	items, total, err := h.store.List(c.Request().Context(), c.QueryParam("category"), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Metadata{}
	}

	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

func intParam(c echo.Context, name string, defaultVal int) int {
	v := c.QueryParam(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
