package processing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"modelhaus/api/internal/processing"
	"modelhaus/api/internal/staging"
)

func stagedJPEG(name string) staging.StagedFile {
	return staging.StagedFile{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        3,
		Data:        []byte{0xFF, 0xD8, 0xFF},
	}
}

func TestProcessModelReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(32<<20))
		require.Equal(t, "木椅", r.FormValue("productName"))
		require.Len(t, r.MultipartForm.File["productImages[]"], 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"processed_images": [
				{"type": "preview", "format": "png", "url": "/p.png"},
				{"type": "3d_model", "format": "glb", "url": "/x.glb", "product_id": "p-1", "product_folder": "木椅_product_p-1"},
				{"type": "3d_model", "format": "glb", "url": "/ignored.glb"}
			],
			"product_name": "木椅"
		}`))
	}))
	defer srv.Close()

	client := processing.NewClient(srv.URL, 0, zerolog.Nop())
	outcome, err := client.Process(context.Background(),
		[]staging.StagedFile{stagedJPEG("a.jpg"), stagedJPEG("b.jpg")}, "木椅", "")

	require.NoError(t, err)
	require.NotNil(t, outcome.Model)
	require.False(t, outcome.NoModel)
	require.Equal(t, srv.URL+"/x.glb", outcome.Model.ModelURL)
	require.Equal(t, "木椅", outcome.Model.Name)
	require.Equal(t, "p-1", outcome.Model.ProductID)
	require.Equal(t, "木椅_product_p-1", outcome.Model.ProductFolder)
}

func TestProcessNoUsableModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"processed_images": [{"type": "preview", "format": "png", "url": "/p.png"}], "product_name": "x"}`))
	}))
	defer srv.Close()

	client := processing.NewClient(srv.URL, 0, zerolog.Nop())
	outcome, err := client.Process(context.Background(), []staging.StagedFile{stagedJPEG("a.jpg")}, "", "")

	require.NoError(t, err)
	require.True(t, outcome.NoModel)
	require.Nil(t, outcome.Model)
}

func TestProcessEmptyArtifactList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"product_name": "x"}`))
	}))
	defer srv.Close()

	client := processing.NewClient(srv.URL, 0, zerolog.Nop())
	outcome, err := client.Process(context.Background(), []staging.StagedFile{stagedJPEG("a.jpg")}, "", "")

	require.NoError(t, err)
	require.True(t, outcome.NoModel)
}

func TestProcessServerErrorWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message": "GPU 資源不足"}`))
	}))
	defer srv.Close()

	client := processing.NewClient(srv.URL, 0, zerolog.Nop())
	_, err := client.Process(context.Background(), []staging.StagedFile{stagedJPEG("a.jpg")}, "", "")

	var failure *processing.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "GPU 資源不足", failure.Message)
}

func TestProcessServerErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := processing.NewClient(srv.URL, 0, zerolog.Nop())
	_, err := client.Process(context.Background(), []staging.StagedFile{stagedJPEG("a.jpg")}, "", "")

	var failure *processing.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "伺服器錯誤: 500", failure.Message)
}

func TestProcessUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := processing.NewClient(srv.URL, 0, zerolog.Nop())
	_, err := client.Process(context.Background(), []staging.StagedFile{stagedJPEG("a.jpg")}, "", "")

	var failure *processing.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, processing.GenericFailureMessage, failure.Message)
}

func TestProcessUnreachableService(t *testing.T) {
	client := processing.NewClient("http://127.0.0.1:1", 0, zerolog.Nop())
	_, err := client.Process(context.Background(), []staging.StagedFile{stagedJPEG("a.jpg")}, "", "")

	var failure *processing.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, processing.GenericFailureMessage, failure.Message)
}

func TestProcessRejectsEmptySet(t *testing.T) {
	client := processing.NewClient("http://example.invalid", 0, zerolog.Nop())
	_, err := client.Process(context.Background(), nil, "", "")
	require.ErrorIs(t, err, processing.ErrNoFiles)
}

func TestFirstUsableModel(t *testing.T) {
	t.Run("picks first match", func(t *testing.T) {
		artifacts := []processing.Artifact{
			{Type: "preview", Format: "png", URL: "/a.png"},
			{Type: "3d_model", Format: "obj", URL: "/a.obj"},
			{Type: "3d_model", Format: "glb", URL: "/first.glb"},
			{Type: "3d_model", Format: "glb", URL: "/second.glb"},
		}
		model, ok := processing.FirstUsableModel(artifacts)
		require.True(t, ok)
		require.Equal(t, "/first.glb", model.URL)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := processing.FirstUsableModel([]processing.Artifact{{Type: "preview", Format: "png"}})
		require.False(t, ok)
	})

	t.Run("empty list", func(t *testing.T) {
		_, ok := processing.FirstUsableModel(nil)
		require.False(t, ok)
	})
}
