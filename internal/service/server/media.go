package server

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"wa_outbound/internal/model"
	"wa_outbound/internal/utils/log"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var uploadTypes = map[string]bool{
	"image":    true,
	"video":    true,
	"audio":    true,
	"document": true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleUpload accepts an encrypted media body addressed by its hash.
func (s *HttpServer) HandleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		typ, hash := vars["type"], vars["hash"]

		if !uploadTypes[typ] {
			writeJSON(w, http.StatusNotFound, model.UploadResponse{Error: "unknown media type"})
			return
		}

		q := r.URL.Query()
		if q.Get("auth") != s.opts.MediaAuth {
			writeJSON(w, http.StatusUnauthorized, model.UploadResponse{Error: "bad auth"})
			return
		}
		if q.Get("token") != hash {
			writeJSON(w, http.StatusBadRequest, model.UploadResponse{Error: "token does not match path"})
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, model.UploadResponse{Error: err.Error()})
			return
		}

		sum := sha256.Sum256(body)
		if base64.RawURLEncoding.EncodeToString(sum[:]) != hash {
			writeJSON(w, http.StatusBadRequest, model.UploadResponse{Error: "hash mismatch"})
			return
		}

		if err := s.blobs.PutBlob(r.Context(), hash, body); err != nil {
			log.Error("store blob failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, model.UploadResponse{Error: "store failed"})
			return
		}

		log.Info("media uploaded", zap.String("type", typ), zap.String("hash", hash), zap.Int("size", len(body)))
		writeJSON(w, http.StatusOK, model.UploadResponse{URL: fmt.Sprintf("http://%s/media/%s", s.opts.MediaHost, hash)})
	}
}

func (s *HttpServer) HandleDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := mux.Vars(r)["hash"]

		body, err := s.blobs.GetBlob(r.Context(), hash)
		if err != nil {
			log.Error("load blob failed", zap.Error(err))
			http.Error(w, "load failed", http.StatusInternalServerError)
			return
		}
		if body == nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(body)
	}
}
