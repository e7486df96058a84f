package wizard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/visa-portal/internal/client"
)

func TestClientSubmitter_MapsFieldsAndFiles(t *testing.T) {
	dir := t.TempDir()
	face := filepath.Join(dir, "face.png")
	require.NoError(t, os.WriteFile(face, []byte("img"), 0o600))

	var form map[string][]string
	var upload string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/admin/application", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = r.MultipartForm.Value
		f, _, err := r.FormFile("face_photo")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		f.Close()
		upload = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 1, "status": "SUCCESS", "data": map[string]any{"id": 7}})
	}))
	defer srv.Close()

	store := &client.MemoryTokenStore{}
	store.Save("tok", "")
	sub := ClientSubmitter{Client: client.New(srv.URL, client.WithTokenStore(store))}

	d := validSteps()
	d.Documents.FacePhoto.Path = face
	id, err := sub.Submit(context.Background(), d, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	assert.Equal(t, []string{"7"}, form["id"])
	assert.Equal(t, []string{"study"}, form["purpose"])
	assert.Equal(t, []string{"study_degree"}, form["specific_purpose"])
	assert.Equal(t, []string{"Tallinn"}, form["representation_office"])
	assert.Equal(t, []string{"2030-01-01"}, form["doc_valid_date"])
	assert.Equal(t, []string{"true"}, form["is_consent_provided"])
	assert.Equal(t, "img", upload)
}

func TestClientSubmitter_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":0,"status":"FAIL","message":"Authorization token is required"}`))
	}))
	defer srv.Close()

	_, err := ClientSubmitter{Client: client.New(srv.URL)}.Submit(context.Background(), validSteps(), 0)
	assert.ErrorContains(t, err, "Authorization token is required")
}

func TestApplicationFields_NoIDOnCreate(t *testing.T) {
	fields := ApplicationFields(validSteps())
	assert.NotContains(t, fields, "id")
	assert.Equal(t, "+441632960960", fields["telephone"])
	assert.Equal(t, "EE", fields["citizenship"])
}
