// upload.go - Multipart file upload streamed to object storage.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// uploadResponse is the JSON body returned after a successful upload.
type uploadResponse struct {
	Message string `json:"message"`
	FileURL string `json:"fileUrl"`
}

type uploadErrorResponse struct {
	Error string `json:"error"`
}

func writeUploadError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(uploadErrorResponse{Error: msg})
}

// sanitizeFilename strips path separators and control bytes from a
// client-supplied filename before it becomes part of an object key.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "\x00", "")
	filename = strings.Trim(filename, " .")

	if len(filename) > 255 {
		ext := filepath.Ext(filename)
		if len(ext) >= 255 {
			// The extension alone exceeds the cap; keeping it would make
			// the base slice bound negative.
			filename = filename[:255]
		} else {
			base := filename[:len(filename)-len(ext)]
			filename = base[:255-len(ext)] + ext
		}
	}
	if filename == "" {
		filename = "unnamed"
	}
	return filename
}

// uploadHandler handles POST /upload-file. The request is a multipart form
// with a single "file" field, streamed straight to the object storage
// bucket without buffering the whole payload in memory. The object key
// prefixes the sanitized original name with a millisecond timestamp so
// repeated uploads of the same file never collide. The stored object is
// attributed to the authenticated user via its metadata.
//
// Authentication: required (token cookie, checked by requireAuth).
func (cfg Config) uploadHandler() http.Handler {
	return cfg.Auth.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		claims, err := cfg.Auth.currentUser(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if cfg.Storage == nil {
			writeAPIError(w, r, configurationError("Object storage is not configured. Please contact the administrator."))
			return
		}

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			writeUploadError(w, http.StatusBadRequest, "No file uploaded.")
			return
		}

		var filePart io.Reader
		var fileName string
		var contentType string

		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				writeUploadError(w, http.StatusBadRequest, "No file uploaded.")
				return
			}
			defer func() { _ = part.Close() }()

			if part.FormName() != "file" {
				continue
			}

			filePart = part
			fileName = part.FileName()
			contentType = part.Header.Get("Content-Type")
			break
		}

		if filePart == nil {
			writeUploadError(w, http.StatusBadRequest, "No file uploaded.")
			return
		}

		objectKey := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), sanitizeFilename(fileName))

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		_, err = cfg.Storage.Client.PutObject(
			ctx,
			cfg.Storage.Bucket,
			objectKey,
			filePart,
			-1,
			minio.PutObjectOptions{
				ContentType:  contentType,
				UserMetadata: map[string]string{"uploader": claims.Username},
			},
		)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s user=%s msg=putobject err=%v", rid, claims.Username, err)

			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeUploadError(w, http.StatusRequestEntityTooLarge, "File too large.")
				return
			}

			writeUploadError(w, http.StatusInternalServerError, "Failed to upload file.")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(uploadResponse{
			Message: "File uploaded successfully",
			FileURL: cfg.Storage.publicURL(objectKey),
		})
	}))
}
