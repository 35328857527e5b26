package storage

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler serves GET /storage/{bucket}/{key...}. Public buckets are served
// inline; private buckets need a valid signature and are sent as attachments.
type Handler struct {
	buckets map[string]Bucket
	signer  *Signer
	log     zerolog.Logger
}

func NewHandler(signer *Signer, log zerolog.Logger, buckets ...Bucket) *Handler {
	m := make(map[string]Bucket, len(buckets))
	for _, b := range buckets {
		m[b.Name()] = b
	}
	return &Handler{buckets: m, signer: signer, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("bucket")
	key := r.PathValue("key")
	b, ok := h.buckets[name]
	if !ok || !ValidKey(key) {
		http.NotFound(w, r)
		return
	}
	if !b.Public() {
		if err := h.signer.Verify(name, key, r.URL.Query()); err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	rc, err := b.Open(r.Context(), key)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("bucket", name).Str("key", key).Msg("open object")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(path.Ext(key))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if b.Public() {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "private, no-store")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(key)}))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("write object")
	}
}

// downloadName drops the uuid prefix added by NewObjectKey.
func downloadName(key string) string {
	base := path.Base(key)
	if len(base) > 37 && base[36] == '-' {
		return base[37:]
	}
	return base
}

// ParseMaxBytes converts megabytes to bytes for upload limits.
func ParseMaxBytes(mb int64) int64 {
	if mb <= 0 {
		mb = 50
	}
	return mb << 20
}
