package uploadflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"modelhaus/api/internal/dimensions"
	"modelhaus/api/internal/processing"
	"modelhaus/api/internal/staging"
	"modelhaus/api/internal/uploadflow"
)

var testCategories = []string{"chair", "sofa", "desk", "drawer"}

func testRegistry() *uploadflow.Registry {
	policy := staging.Policy{
		AllowedTypes: []string{"image/jpeg", "image/png"},
		MaxFileSize:  5 * 1024 * 1024,
		MaxFiles:     10,
	}
	return uploadflow.NewRegistry(policy, testCategories, zerolog.Nop())
}

func stagedFile(name string) staging.StagedFile {
	return staging.StagedFile{Name: name, ContentType: "image/jpeg", Size: 10, Data: []byte("0123456789")}
}

type stubProcessor struct {
	outcome processing.Outcome
	err     error
	release chan struct{}
	calls   int
}

func (p *stubProcessor) Process(ctx context.Context, files []staging.StagedFile, name, prompt string) (processing.Outcome, error) {
	p.calls++
	if p.release != nil {
		<-p.release
	}
	return p.outcome, p.err
}

type stubSaver struct {
	result  uploadflow.SaveResult
	err     error
	lastReq uploadflow.SaveRequest
}

func (s *stubSaver) SaveProduct(ctx context.Context, req uploadflow.SaveRequest) (uploadflow.SaveResult, error) {
	s.lastReq = req
	return s.result, s.err
}

func modelOutcome(info processing.CurrentModelInfo) processing.Outcome {
	return processing.Outcome{Model: &info}
}

func TestInitialState(t *testing.T) {
	flow := testRegistry().Create("amy")

	view := flow.View()
	require.Equal(t, uploadflow.StateEmpty, view.State)
	require.Equal(t, uploadflow.MsgNoResults, view.Message)
	require.True(t, view.ShowResultsPanel)
	require.False(t, view.ShowViewer)
	require.Nil(t, view.Model)
}

func TestProcessWithoutFiles(t *testing.T) {
	flow := testRegistry().Create("amy")

	_, err := flow.Process(context.Background(), &stubProcessor{}, "", "")
	require.ErrorIs(t, err, uploadflow.ErrNoFilesStaged)
	require.Equal(t, uploadflow.StateEmpty, flow.View().State)
}

func TestProcessModelReady(t *testing.T) {
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

	proc := &stubProcessor{outcome: modelOutcome(processing.CurrentModelInfo{
		Name: "木椅", ModelURL: "http://host:5008/x.glb",
	})}
	view, err := flow.Process(context.Background(), proc, "木椅", "")

	require.NoError(t, err)
	require.Equal(t, uploadflow.StateModelReady, view.State)
	require.False(t, view.ShowResultsPanel)
	require.True(t, view.ShowViewer)
	require.NotNil(t, view.Model)
	require.Equal(t, "http://host:5008/x.glb", view.Model.ModelURL)
	require.Equal(t, int64(500), view.ScrollDelayMs)
}

func TestProcessNoModel(t *testing.T) {
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

	view, err := flow.Process(context.Background(), &stubProcessor{outcome: processing.Outcome{NoModel: true}}, "", "")

	require.NoError(t, err)
	require.Equal(t, uploadflow.StateEmpty, view.State)
	require.Equal(t, uploadflow.MsgNoModel, view.Message)
	require.True(t, view.ShowResultsPanel)
	require.False(t, view.ShowViewer)
	require.Nil(t, flow.Model())
}

func TestProcessFailure(t *testing.T) {
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

	proc := &stubProcessor{err: &processing.Failure{Message: "GPU 資源不足"}}
	view, err := flow.Process(context.Background(), proc, "", "")

	require.NoError(t, err)
	require.Equal(t, uploadflow.StateError, view.State)
	require.Equal(t, "GPU 資源不足", view.Message)
	require.False(t, view.ShowViewer)
}

func TestProcessFailureGenericMessage(t *testing.T) {
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

	view, err := flow.Process(context.Background(), &stubProcessor{err: errors.New("dial tcp: refused")}, "", "")

	require.NoError(t, err)
	require.Equal(t, uploadflow.StateError, view.State)
	require.Equal(t, processing.GenericFailureMessage, view.Message)
}

func TestGateReopensAfterEveryOutcome(t *testing.T) {
	outcomes := map[string]*stubProcessor{
		"success": {outcome: modelOutcome(processing.CurrentModelInfo{ModelURL: "/x.glb"})},
		"empty":   {outcome: processing.Outcome{NoModel: true}},
		"error":   {err: &processing.Failure{Message: "boom"}},
	}

	for name, proc := range outcomes {
		t.Run(name, func(t *testing.T) {
			flow := testRegistry().Create("amy")
			flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

			_, err := flow.Process(context.Background(), proc, "", "")
			require.NoError(t, err)

			// Submitting again must be legal from any settled state.
			_, err = flow.Process(context.Background(), proc, "", "")
			require.NoError(t, err)
			require.Equal(t, 2, proc.calls)
		})
	}
}

func TestSingleInFlightRequest(t *testing.T) {
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

	proc := &stubProcessor{
		outcome: processing.Outcome{NoModel: true},
		release: make(chan struct{}),
	}

	done := make(chan struct{})
	go func() {
		_, _ = flow.Process(context.Background(), proc, "", "")
		close(done)
	}()

	require.Eventually(t, func() bool {
		return flow.View().State == uploadflow.StateLoading
	}, time.Second, 5*time.Millisecond)

	_, err := flow.Process(context.Background(), proc, "", "")
	require.ErrorIs(t, err, uploadflow.ErrBusy)

	close(proc.release)
	<-done
	require.Equal(t, 1, proc.calls)
}

func TestFreshRequestClearsModel(t *testing.T) {
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("a.jpg")})

	_, err := flow.Process(context.Background(),
		&stubProcessor{outcome: modelOutcome(processing.CurrentModelInfo{ModelURL: "/x.glb"})}, "", "")
	require.NoError(t, err)
	require.NotNil(t, flow.Model())

	_, err = flow.Process(context.Background(), &stubProcessor{outcome: processing.Outcome{NoModel: true}}, "", "")
	require.NoError(t, err)
	require.Nil(t, flow.Model())
}

func TestOpenDraftRequiresModel(t *testing.T) {
	flow := testRegistry().Create("amy")
	_, err := flow.OpenDraft()
	require.ErrorIs(t, err, uploadflow.ErrNoModel)
}

func TestOpenDraftDefaultsNameFromModel(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "/x.glb"})

	draft, err := flow.OpenDraft()
	require.NoError(t, err)
	require.Equal(t, "木椅", draft.Name)
}

func TestDiscardDraftDropsAllInput(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "/x.glb"})
	_, err := flow.OpenDraft()
	require.NoError(t, err)
	_, err = flow.UpdateDraft(uploadflow.DraftInput{Name: "典藏木椅", Price: 4200, Category: "chair"})
	require.NoError(t, err)

	flow.DiscardDraft()
	require.Nil(t, flow.Draft())

	// Reopening starts from the model defaults again.
	draft, err := flow.OpenDraft()
	require.NoError(t, err)
	require.Equal(t, "木椅", draft.Name)
	require.Zero(t, draft.Price)
}

func cm(v float64) *float64 { return &v }

func TestSaveOmitsAbsentIdentity(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "http://host/x.glb"})
	_, err := flow.OpenDraft()
	require.NoError(t, err)
	_, err = flow.UpdateDraft(uploadflow.DraftInput{
		Name:     "木椅",
		Price:    4200,
		Category: "chair",
		Size:     dimensions.Dimensions{WidthCm: cm(120)},
		Images:   []staging.StagedFile{stagedFile("img.jpg")},
	})
	require.NoError(t, err)

	saver := &stubSaver{result: uploadflow.SaveResult{ProductID: "fresh-1"}}
	_, err = flow.Save(context.Background(), saver)

	require.NoError(t, err)
	require.Empty(t, saver.lastReq.ProductID)
	require.Empty(t, saver.lastReq.ProductFolder)
	require.Equal(t, "amy", saver.lastReq.Username)
	require.Equal(t, "http://host/x.glb", saver.lastReq.ModelURL)
	require.Len(t, saver.lastReq.Images, 1)
	require.NotNil(t, saver.lastReq.Size.WidthCm)
	require.Nil(t, saver.lastReq.Size.HeightCm)
}

func TestSaveForwardsPreAssignedIdentity(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{
		Name:          "木椅",
		ModelURL:      "/uploads/products/木椅_product_p1/model/木椅_product_p1.glb",
		ProductID:     "p1",
		ProductFolder: "木椅_product_p1",
	})
	_, err := flow.OpenDraft()
	require.NoError(t, err)
	_, err = flow.UpdateDraft(uploadflow.DraftInput{Name: "木椅", Price: 4200, Category: "chair"})
	require.NoError(t, err)

	saver := &stubSaver{}
	_, err = flow.Save(context.Background(), saver)

	require.NoError(t, err)
	require.Equal(t, "p1", saver.lastReq.ProductID)
	require.Equal(t, "木椅_product_p1", saver.lastReq.ProductFolder)
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "/x.glb"})
	_, err := flow.OpenDraft()
	require.NoError(t, err)
	_, err = flow.UpdateDraft(uploadflow.DraftInput{
		Name: "典藏木椅", Price: 4200, Category: "chair", Description: "手工打磨",
	})
	require.NoError(t, err)

	saver := &stubSaver{err: errors.New("X")}
	_, err = flow.Save(context.Background(), saver)
	require.EqualError(t, err, "X")

	draft := flow.Draft()
	require.NotNil(t, draft)
	require.Equal(t, "典藏木椅", draft.Name)
	require.Equal(t, 4200.0, draft.Price)
	require.Equal(t, "chair", draft.Category)
	require.Equal(t, "手工打磨", draft.Description)
}

func TestSaveValidation(t *testing.T) {
	cases := []struct {
		name  string
		input uploadflow.DraftInput
	}{
		{"missing name happens only without model default", uploadflow.DraftInput{Price: 100, Category: "chair"}},
		{"zero price", uploadflow.DraftInput{Name: "x", Price: 0, Category: "chair"}},
		{"negative price", uploadflow.DraftInput{Name: "x", Price: -1, Category: "chair"}},
		{"missing category", uploadflow.DraftInput{Name: "x", Price: 100}},
		{"category outside closed set", uploadflow.DraftInput{Name: "x", Price: 100, Category: "lamp"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Model name intentionally blank so the name default stays empty.
			flow := readyFlow(t, processing.CurrentModelInfo{ModelURL: "/x.glb"})
			_, err := flow.OpenDraft()
			require.NoError(t, err)
			_, err = flow.UpdateDraft(tc.input)
			require.NoError(t, err)

			_, err = flow.Save(context.Background(), &stubSaver{})
			require.Error(t, err)
		})
	}
}

func TestSaveWithoutModel(t *testing.T) {
	flow := testRegistry().Create("amy")
	_, err := flow.Save(context.Background(), &stubSaver{})
	require.ErrorIs(t, err, uploadflow.ErrNoModel)
}

func TestResetClearsEverything(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "/x.glb"})
	_, err := flow.OpenDraft()
	require.NoError(t, err)

	flow.Reset()

	view := flow.View()
	require.Equal(t, uploadflow.StateEmpty, view.State)
	require.Equal(t, uploadflow.MsgNoResults, view.Message)
	require.Empty(t, view.StagedFiles)
	require.Nil(t, flow.Model())
	require.Nil(t, flow.Draft())
}

func TestRemoveDraftImage(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "/x.glb"})
	_, err := flow.OpenDraft()
	require.NoError(t, err)
	_, err = flow.UpdateDraft(uploadflow.DraftInput{
		Name: "木椅", Price: 1, Category: "chair",
		Images: []staging.StagedFile{stagedFile("a.jpg"), stagedFile("b.jpg")},
	})
	require.NoError(t, err)

	require.NoError(t, flow.RemoveDraftImage(0))

	draft := flow.Draft()
	images := draft.Images.Transferable()
	require.Len(t, images, 1)
	require.Equal(t, "b.jpg", images[0].Name)
}

func TestDraftViewListsModalImages(t *testing.T) {
	flow := readyFlow(t, processing.CurrentModelInfo{Name: "木椅", ModelURL: "/x.glb"})
	_, err := flow.OpenDraft()
	require.NoError(t, err)
	_, err = flow.UpdateDraft(uploadflow.DraftInput{
		Name: "木椅", Price: 1, Category: "chair",
		Images: []staging.StagedFile{stagedFile("a.jpg"), stagedFile("b.jpg")},
	})
	require.NoError(t, err)

	view := flow.DraftView()
	require.NotNil(t, view)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, view.Images)

	// The names must survive marshaling so the modal can render its
	// previews and address images by index.
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"images":["a.jpg","b.jpg"]`)
	require.Contains(t, string(raw), `"name":"木椅"`)

	require.NoError(t, flow.RemoveDraftImage(0))
	require.Equal(t, []string{"b.jpg"}, flow.DraftView().Images)
}

func TestDraftViewNilWithoutDraft(t *testing.T) {
	flow := testRegistry().Create("amy")
	require.Nil(t, flow.DraftView())
}

func TestRegistryPruneIdle(t *testing.T) {
	registry := testRegistry()
	flow := registry.Create("amy")
	require.Equal(t, 1, registry.Len())

	_, ok := registry.Get(flow.ID())
	require.True(t, ok)

	// Nothing younger than the TTL goes away.
	require.Zero(t, registry.PruneIdle(time.Hour))
	require.Equal(t, 1, registry.Len())

	// Everything is older than a zero TTL.
	time.Sleep(5 * time.Millisecond)
	require.Equal(t, 1, registry.PruneIdle(0))
	require.Zero(t, registry.Len())
}

func readyFlow(t *testing.T, info processing.CurrentModelInfo) *uploadflow.Flow {
	t.Helper()
	flow := testRegistry().Create("amy")
	flow.ReplaceFiles([]staging.StagedFile{stagedFile("source.jpg")})
	_, err := flow.Process(context.Background(), &stubProcessor{outcome: modelOutcome(info)}, "", "")
	require.NoError(t, err)
	return flow
}
