// Package upload accepts at most one file per request under a fixed
// multipart field and persists it before the handler runs.
package upload

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/filestore"
	"go-ems/internal/shared/response"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	FieldProfilePicture = "profilePicture"

	contextKey = "uploaded_file"

	// room for the text fields that travel with the file
	formOverhead = 1 << 20
	maxMemory    = 8 << 20
)

var uploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ems_upload_files_total",
		Help: "Uploaded files by outcome",
	},
	[]string{"result"},
)

type Store interface {
	Save(reader io.Reader, originalName string) (*filestore.SaveResult, error)
	Delete(name string) error
}

type Limits struct {
	MaxBytes int64
	// AllowedTypes are MIME prefixes, e.g. "image/".
	AllowedTypes []string
}

func ImageLimits(maxBytes int64) Limits {
	return Limits{MaxBytes: maxBytes, AllowedTypes: []string{"image/"}}
}

// StoredFile describes a file persisted for the current request.
type StoredFile struct {
	Name         string
	OriginalName string
	ContentType  string
	Size         int64
}

type uploaded struct {
	file      *StoredFile
	store     Store
	discarded bool
}

// SingleFile persists zero or one file sent under field. Non-multipart
// requests pass through untouched.
func SingleFile(store Store, field string, limits Limits, logger ...*zap.Logger) gin.HandlerFunc {
	l := zap.L().Named("upload")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("upload")
	}

	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			c.Next()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxBytes+formOverhead)
		if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reject(c, l, "File too large")
				return
			}
			l.Warn("multipart parse failed", zap.Error(err))
			reject(c, l, "Malformed multipart body")
			return
		}

		form := c.Request.MultipartForm
		for key, headers := range form.File {
			if key != field {
				reject(c, l, "Unexpected field: "+key)
				return
			}
			if len(headers) > 1 {
				reject(c, l, "Only one file is allowed")
				return
			}
		}

		headers := form.File[field]
		if len(headers) == 0 {
			c.Next()
			return
		}

		fh := headers[0]
		if fh.Size > limits.MaxBytes {
			reject(c, l, "File too large")
			return
		}

		f, err := fh.Open()
		if err != nil {
			l.Warn("open multipart file failed", zap.Error(err))
			reject(c, l, "Unreadable file")
			return
		}
		defer f.Close()

		mtype, err := mimetype.DetectReader(f)
		if err != nil {
			reject(c, l, "Unreadable file")
			return
		}
		if !limits.allows(mtype.String()) {
			reject(c, l, "Only image files are allowed")
			return
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			reject(c, l, "Unreadable file")
			return
		}

		res, err := store.Save(f, fh.Filename)
		if err != nil {
			uploadsTotal.WithLabelValues("error").Inc()
			l.Error("store uploaded file failed", zap.String("filename", fh.Filename), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, apperror.ErrInternal.Message, err.Error())
			c.Abort()
			return
		}

		file := &StoredFile{
			Name:         res.Name,
			OriginalName: fh.Filename,
			ContentType:  mtype.String(),
			Size:         res.Size,
		}
		uploadsTotal.WithLabelValues("stored").Inc()
		l.Debug("file stored",
			zap.String("name", file.Name),
			zap.String("content_type", file.ContentType),
			zap.Int64("size", file.Size),
		)

		c.Set(contextKey, &uploaded{file: file, store: store})
		c.Next()
	}
}

// FromContext returns the file stored for this request, or nil.
func FromContext(c *gin.Context) *StoredFile {
	u := fromContext(c)
	if u == nil || u.discarded {
		return nil
	}
	return u.file
}

// Discard deletes the file stored for this request. Safe to call when no
// file was uploaded.
func Discard(c *gin.Context) {
	u := fromContext(c)
	if u == nil || u.discarded {
		return
	}
	u.discarded = true
	if err := u.store.Delete(u.file.Name); err != nil {
		zap.L().Named("upload").Warn("discard uploaded file failed",
			zap.String("name", u.file.Name),
			zap.Error(err),
		)
	}
}

func fromContext(c *gin.Context) *uploaded {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*uploaded)
	return u
}

func (l Limits) allows(mimeType string) bool {
	if len(l.AllowedTypes) == 0 {
		return true
	}
	for _, prefix := range l.AllowedTypes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

func reject(c *gin.Context, l *zap.Logger, reason string) {
	uploadsTotal.WithLabelValues("rejected").Inc()
	l.Warn("upload rejected", zap.String("path", c.FullPath()), zap.String("reason", reason))
	httpErr := apperror.ToHTTP(apperror.UploadFailed(reason))
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
	c.Abort()
}
