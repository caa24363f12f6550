package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jfernandes/portfolio-content/backend"
	"github.com/jfernandes/portfolio-content/telemetry"
)

// MaxUploadSize is the upload size limit for profile pictures.
const MaxUploadSize = 5 << 20

const (
	uploadPrefix     = "uploads/"
	uploadPointerKey = "uploads/current.json"
)

// ErrUploadRejected is returned for uploads that fail the type or size checks.
var ErrUploadRejected = errors.New("upload rejected")

// allowed sniffed content types and their stored extensions
var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadInfo describes a stored profile picture.
type UploadInfo struct {
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// uploadStore persists uploaded images through the backend, alongside a
// pointer document naming the current profile picture.
type uploadStore struct {
	backend backend.Backend
	logger  *slog.Logger
	now     func() time.Time
}

func newUploadStore(b backend.Backend, logger *slog.Logger) *uploadStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &uploadStore{backend: b, logger: logger, now: time.Now}
}

// Save validates and stores an uploaded image under a fresh uuid-suffixed
// name, then atomically repoints the current-picture document at it.
func (u *uploadStore) Save(ctx context.Context, data []byte) (*UploadInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUploadRejected)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrUploadRejected, MaxUploadSize)
	}

	// Trust the bytes, not the declared content type.
	contentType := http.DetectContentType(data)
	ext, ok := uploadExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrUploadRejected, contentType)
	}

	name := "profile-" + uuid.NewString() + ext
	if err := u.backend.Write(ctx, uploadPrefix+name, data); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	info := &UploadInfo{
		FileName:    name,
		URL:         "/files/" + name,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedAt:  u.now(),
	}

	pointer, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encoding upload pointer: %w", err)
	}
	if err := u.backend.Write(ctx, uploadPointerKey, pointer); err != nil {
		return nil, fmt.Errorf("writing upload pointer: %w", err)
	}

	u.logger.Info("profile picture stored", "file", name, "bytes", info.Size)
	return info, nil
}

// Current returns the newest upload, or backend.ErrNotFound when none exists.
func (u *uploadStore) Current(ctx context.Context) (*UploadInfo, error) {
	data, err := u.backend.Read(ctx, uploadPointerKey)
	if err != nil {
		return nil, err
	}
	var info UploadInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding upload pointer: %w", err)
	}
	return &info, nil
}

// Open returns the bytes and content type of a stored upload. Only names
// this store generates are served: path separators, traversal segments, and
// foreign prefixes are rejected before touching the backend.
func (u *uploadStore) Open(ctx context.Context, name string) ([]byte, string, error) {
	if !strings.HasPrefix(name, "profile-") || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return nil, "", backend.ErrNotFound
	}
	data, err := u.backend.Read(ctx, uploadPrefix+name)
	if err != nil {
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}

func (s *Server) handleUploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "uploads")
	telemetry.SetEndpoint(r, "upload")

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	info, err := s.uploads.Save(r.Context(), data)
	if err != nil {
		if errors.Is(err, ErrUploadRejected) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("storing upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": info})
}

func (s *Server) handleGetProfilePicture(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "uploads")
	telemetry.SetEndpoint(r, "current")

	info, err := s.uploads.Current(r.Context())
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no profile picture uploaded")
			return
		}
		s.logger.Error("reading upload pointer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile picture")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "uploads")
	telemetry.SetEndpoint(r, "serve")

	data, contentType, err := s.uploads.Open(r.Context(), r.PathValue("name"))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("reading upload failed", "error", err)
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}
