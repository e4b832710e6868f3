package media

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"botrelay/internal/dbmongo"
)

// FileSource is the read side of the blob store.
type FileSource interface {
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, *dbmongo.MediaFile, error)
}

type HTTPServer struct {
	storage FileSource
	log     zerolog.Logger
}

func NewHTTPServer(storage FileSource, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		storage: storage,
		log:     log.With().Str("component", "media").Logger(),
	}
}

// RegisterRoutes mounts GET /media/{fileID}. Attachment URLs handed to bots point here.
func (s *HTTPServer) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/media/{fileID}", s.serveFile).Methods(http.MethodGet, http.MethodHead)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileID"]

	fileReader, mediaFile, err := s.storage.DownloadFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, dbmongo.ErrFileNotFound) || isInvalidID(fileID) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Str("file_id", fileID).Msg("media download failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer fileReader.Close()

	w.Header().Set("Content-Type", contentTypeOf(mediaFile))
	w.Header().Set("Content-Length", strconv.FormatInt(mediaFile.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": mediaFile.Filename}))
	w.Header().Set("Cache-Control", "private, max-age=86400")

	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, fileReader); err != nil {
		s.log.Warn().Err(err).Str("file_id", fileID).Msg("error streaming file")
	}
}

func contentTypeOf(mf *dbmongo.MediaFile) string {
	if mf.ContentType != "" {
		return mf.ContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(mf.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isInvalidID(fileID string) bool {
	if len(fileID) != 24 {
		return true
	}
	for _, c := range fileID {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return true
		}
	}
	return false
}
