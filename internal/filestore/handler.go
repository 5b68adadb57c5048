// ABOUTME: Multipart upload endpoint for chat attachments
// ABOUTME: Accepts one or more files, returns the stored URLs as JSON

package filestore

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const maxMultipartMemory = 32 << 20 // 32 MiB

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	URLs []string `json:"urls"`
}

// UploadHandler accepts multipart/form-data with one or more "files"
// parts and stores each. Authentication happens upstream; by the time a
// request reaches here the caller holds a valid token.
func UploadHandler(store Store, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		parts := r.MultipartForm.File["files"]
		if len(parts) == 0 {
			http.Error(w, "at least one file required", http.StatusBadRequest)
			return
		}

		uploads := make([]Upload, 0, len(parts))
		for _, part := range parts {
			f, err := part.Open()
			if err != nil {
				http.Error(w, "unreadable file part", http.StatusBadRequest)
				return
			}
			defer f.Close()
			uploads = append(uploads, Upload{
				Filename: part.Filename,
				Size:     part.Size,
				Content:  f,
			})
		}

		urls, err := store.Store(r.Context(), uploads)
		if err != nil {
			logger.Error("attachment upload failed", "error", err, "files", len(uploads))
			http.Error(w, "upload failed", http.StatusInternalServerError)
			return
		}

		logger.Info("attachments stored", "count", len(urls))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UploadResponse{URLs: urls})
	}
}
