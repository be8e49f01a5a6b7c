package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"tribune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAttachmentHandler(t *testing.T) {
	s, db := newTestServer(t)
	user := seedUser(t, db, "gail", false)
	app := newTestApp(s, user.ID)

	t.Run("stores file and creates unassociated record", func(t *testing.T) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("attachment payload"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/attachments", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var created models.Attachment
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		assert.Equal(t, "notes.txt", created.OriginalName)
		assert.Nil(t, created.ArticleID)
		assert.True(t, s.fileStore.Exists(created.FileName))
	})

	t.Run("missing file is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/attachments", bytes.NewReader(nil))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
