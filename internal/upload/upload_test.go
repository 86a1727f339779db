package upload_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-ems/internal/shared/filestore"
	"go-ems/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type part struct {
	field    string
	filename string
	content  []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func setup(t *testing.T, maxBytes int64) (*gin.Engine, *filestore.FileStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	r := gin.New()
	r.POST("/employees",
		upload.SingleFile(store, upload.FieldProfilePicture, upload.ImageLimits(maxBytes)),
		func(c *gin.Context) {
			name := ""
			if f := upload.FromContext(c); f != nil {
				name = f.Name
			}
			if c.PostForm("fail") == "1" {
				upload.Discard(c)
			}
			c.JSON(http.StatusOK, gin.H{"name": name, "firstName": c.PostForm("firstName")})
		},
	)
	return r, store
}

func TestSingleFile(t *testing.T) {
	t.Run("stores image and keeps form fields", func(t *testing.T) {
		r, store := setup(t, 1024)
		body, ct := multipartBody(t, map[string]string{"firstName": "Ada"},
			part{field: upload.FieldProfilePicture, filename: "me.png", content: pngBytes})

		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Ada", got["firstName"])
		assert.True(t, strings.HasSuffix(got["name"], ".png"))
		assert.True(t, store.Exists(got["name"]))
	})

	t.Run("no file passes through", func(t *testing.T) {
		r, _ := setup(t, 1024)
		body, ct := multipartBody(t, map[string]string{"firstName": "Ada"})

		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"name":""`)
	})

	t.Run("json body passes through", func(t *testing.T) {
		r, _ := setup(t, 1024)

		req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader(`{"firstName":"Ada"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non image is rejected", func(t *testing.T) {
		r, _ := setup(t, 1024)
		body, ct := multipartBody(t, nil,
			part{field: upload.FieldProfilePicture, filename: "notes.png", content: []byte("just some text")})

		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UPLOAD_ERROR")
		assert.Contains(t, w.Body.String(), "Only image files are allowed")
	})

	t.Run("unexpected field is rejected", func(t *testing.T) {
		r, _ := setup(t, 1024)
		body, ct := multipartBody(t, nil, part{field: "avatar", filename: "me.png", content: pngBytes})

		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Unexpected field: avatar")
	})

	t.Run("second file is rejected", func(t *testing.T) {
		r, _ := setup(t, 1024)
		body, ct := multipartBody(t, nil,
			part{field: upload.FieldProfilePicture, filename: "a.png", content: pngBytes},
			part{field: upload.FieldProfilePicture, filename: "b.png", content: pngBytes})

		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversize file is rejected", func(t *testing.T) {
		r, _ := setup(t, 16)
		body, ct := multipartBody(t, nil, part{field: upload.FieldProfilePicture, filename: "a.png", content: pngBytes})

		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "File too large")
	})

	t.Run("corrupt multipart is rejected", func(t *testing.T) {
		r, _ := setup(t, 1024)

		req := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader("--nope\r\ngarbage"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "File upload error")
	})
}

func TestDiscard(t *testing.T) {
	r, store := setup(t, 1024)
	body, ct := multipartBody(t, map[string]string{"fail": "1"},
		part{field: upload.FieldProfilePicture, filename: "me.png", content: pngBytes})

	req := httptest.NewRequest(http.MethodPost, "/employees", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotEmpty(t, got["name"])
	assert.False(t, store.Exists(got["name"]))
}
