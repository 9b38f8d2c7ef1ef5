// Package uploadflow owns one upload page session: the staged candidate
// files, the processing result state machine, the model currently held,
// and the product draft collected before save.
package uploadflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelhaus/api/internal/processing"
	"modelhaus/api/internal/staging"
)

// State is the result presentation state. The four states are mutually
// exclusive; re-submitting is legal from any of them.
type State string

const (
	StateEmpty      State = "empty"
	StateLoading    State = "loading"
	StateModelReady State = "model_ready"
	StateError      State = "error"
)

const (
	// MsgNoResults is the initial placeholder message.
	MsgNoResults = "尚未處理任何圖片。"
	// MsgNoModel is shown when processing succeeded without producing a
	// usable model. Not an error.
	MsgNoModel = "處理完成，但未生成 3D 模型文件。"
	// MsgSelectFiles is the alert for submitting with nothing staged.
	MsgSelectFiles = "請至少選擇一張圖片！"
	// MsgNoModelYet is the alert for opening the product draft before a
	// model exists.
	MsgNoModelYet = "請先處理並生成3D模型！"
)

// ScrollDelay is the fixed pause before the viewer is scrolled into view
// on narrow screens, giving the model time to start loading.
const ScrollDelay = 500 * time.Millisecond

var (
	ErrBusy          = errors.New("uploadflow: processing request already in flight")
	ErrNoFilesStaged = errors.New("uploadflow: no files staged")
	ErrNoModel       = errors.New("uploadflow: no model generated yet")
	ErrNoDraft       = errors.New("uploadflow: no draft open")
)

// Processor is the external image-to-3D-model call the flow orchestrates.
type Processor interface {
	Process(ctx context.Context, files []staging.StagedFile, productName, textPrompt string) (processing.Outcome, error)
}

// Saver persists a finished product draft.
type Saver interface {
	SaveProduct(ctx context.Context, req SaveRequest) (SaveResult, error)
}

// Flow is one upload session. All mutation goes through its mutex; the
// in-flight gate guarantees a single unsettled processing request.
type Flow struct {
	mu sync.Mutex

	id         string
	owner      string
	policy     staging.Policy
	categories []string

	staged  *staging.Set
	state   State
	message string
	model   *processing.CurrentModelInfo
	draft   *Draft

	inFlight bool
	touched  time.Time

	log zerolog.Logger
}

func newFlow(id, owner string, policy staging.Policy, categories []string, log zerolog.Logger) *Flow {
	return &Flow{
		id:         id,
		owner:      owner,
		policy:     policy,
		categories: categories,
		staged:     staging.NewSet(policy),
		state:      StateEmpty,
		message:    MsgNoResults,
		touched:    time.Now(),
		log:        log.With().Str("flow_id", id).Str("owner", owner).Logger(),
	}
}

func (f *Flow) ID() string    { return f.id }
func (f *Flow) Owner() string { return f.owner }

// Touched returns the last time the flow saw any activity.
func (f *Flow) Touched() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// ReplaceFiles stages a fresh selection, discarding the previous one.
func (f *Flow) ReplaceFiles(files []staging.StagedFile) []staging.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = time.Now()
	return f.staged.Replace(files)
}

// RemoveFile drops one staged file by position.
func (f *Flow) RemoveFile(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = time.Now()
	return f.staged.RemoveAt(index)
}

// Policy returns the validation policy the flow stages under.
func (f *Flow) Policy() staging.Policy { return f.policy }

// Process sends the staged files to the processing service and drives the
// state machine through Loading into ModelReady, Empty or Error. The
// submit gate stays closed until the call settles, parse failures
// included.
func (f *Flow) Process(ctx context.Context, processor Processor, productName, textPrompt string) (View, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return View{}, ErrBusy
	}
	if f.staged.Empty() {
		f.mu.Unlock()
		return View{}, ErrNoFilesStaged
	}

	f.inFlight = true
	f.state = StateLoading
	f.message = ""
	f.model = nil
	f.touched = time.Now()
	files := f.staged.Transferable()
	f.mu.Unlock()

	outcome, err := processor.Process(ctx, files, productName, textPrompt)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	f.touched = time.Now()

	switch {
	case err != nil:
		f.state = StateError
		f.message = failureMessage(err)
		f.log.Warn().Err(err).Msg("processing failed")
	case outcome.Model != nil:
		f.state = StateModelReady
		f.message = ""
		f.model = outcome.Model
		f.log.Info().Str("model_url", outcome.Model.ModelURL).Msg("model ready")
	default:
		f.state = StateEmpty
		f.message = MsgNoModel
		f.log.Info().Msg("processing produced no usable model")
	}

	return f.viewLocked(), nil
}

func failureMessage(err error) string {
	var failure *processing.Failure
	if errors.As(err, &failure) && failure.Message != "" {
		return failure.Message
	}
	return processing.GenericFailureMessage
}

// Model returns the currently held model info, if any.
func (f *Flow) Model() *processing.CurrentModelInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model == nil {
		return nil
	}
	info := *f.model
	return &info
}

// Save submits the finished draft. The draft survives any failure so the
// user can retry without re-entering data.
func (f *Flow) Save(ctx context.Context, saver Saver) (SaveResult, error) {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return SaveResult{}, ErrBusy
	}
	if f.model == nil {
		f.mu.Unlock()
		return SaveResult{}, ErrNoModel
	}
	if f.draft == nil {
		f.mu.Unlock()
		return SaveResult{}, ErrNoDraft
	}
	if err := f.draft.Validate(f.categories); err != nil {
		f.mu.Unlock()
		return SaveResult{}, err
	}

	req := SaveRequest{
		Username:      f.owner,
		Name:          f.draft.Name,
		Price:         f.draft.Price,
		Category:      f.draft.Category,
		Description:   f.draft.Description,
		URL:           f.draft.URL,
		Size:          f.draft.Size,
		ModelURL:      f.model.ModelURL,
		ProductID:     f.model.ProductID,
		ProductFolder: f.model.ProductFolder,
		Images:        f.draft.Images.Transferable(),
	}
	f.touched = time.Now()
	f.mu.Unlock()

	result, err := saver.SaveProduct(ctx, req)
	if err != nil {
		f.log.Warn().Err(err).Msg("save failed, draft kept")
		return SaveResult{}, err
	}

	f.log.Info().Str("product_id", result.ProductID).Msg("product saved")
	return result, nil
}

// Reset clears staged files, draft, model and returns the state machine
// to its initial Empty state. Called when the user chooses to start over
// after a successful save.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged.Clear()
	f.draft = nil
	f.model = nil
	f.state = StateEmpty
	f.message = MsgNoResults
	f.touched = time.Now()
}

// View is the render payload for the upload page. ShowResultsPanel and
// ShowViewer are mutually exclusive so a visually empty panel never sits
// beside the viewer.
type View struct {
	State            State                        `json:"state"`
	Message          string                       `json:"message,omitempty"`
	Model            *processing.CurrentModelInfo `json:"model,omitempty"`
	StagedFiles      []string                     `json:"stagedFiles"`
	ShowResultsPanel bool                         `json:"showResultsPanel"`
	ShowViewer       bool                         `json:"showViewer"`
	ScrollDelayMs    int64                        `json:"scrollDelayMs,omitempty"`
	DraftOpen        bool                         `json:"draftOpen"`
}

// View snapshots the flow for rendering.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Flow) viewLocked() View {
	v := View{
		State:            f.state,
		Message:          f.message,
		ShowResultsPanel: f.state != StateModelReady,
		ShowViewer:       f.state == StateModelReady,
		DraftOpen:        f.draft != nil,
	}
	if f.state == StateModelReady {
		info := *f.model
		v.Model = &info
		v.ScrollDelayMs = ScrollDelay.Milliseconds()
	}
	files := f.staged.Transferable()
	v.StagedFiles = make([]string, len(files))
	for i, file := range files {
		v.StagedFiles[i] = file.Name
	}
	return v
}
