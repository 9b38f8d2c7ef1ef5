package uploadflow

import (
	"errors"
	"time"

	"modelhaus/api/internal/dimensions"
	"modelhaus/api/internal/staging"
)

// Draft carries the product attributes collected in the metadata modal.
// Its image set is modal-scoped, separate from the flow's staging set,
// with the same validation semantics.
type Draft struct {
	Name        string
	Price       float64
	Category    string
	Description string
	URL         string
	Size        dimensions.Dimensions
	Images      *staging.Set
}

var (
	errNameRequired     = errors.New("商品名稱為必填欄位")
	errCategoryRequired = errors.New("商品種類為必填欄位")
	errPriceNotPositive = errors.New("商品價格必須大於 0")
	errCategoryUnknown  = errors.New("商品種類不在允許的清單中")
)

// Validate enforces the required-field list: name, a category from the
// closed set, and a positive price.
func (d *Draft) Validate(categories []string) error {
	if d.Name == "" {
		return errNameRequired
	}
	if d.Category == "" {
		return errCategoryRequired
	}
	if !containsCategory(categories, d.Category) {
		return errCategoryUnknown
	}
	if d.Price <= 0 {
		return errPriceNotPositive
	}
	return nil
}

func containsCategory(categories []string, category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

// DraftInput is one full update of the modal's fields. The modal always
// submits its whole form; there is no partial patching.
type DraftInput struct {
	Name        string
	Price       float64
	Category    string
	Description string
	URL         string
	Size        dimensions.Dimensions
	Images      []staging.StagedFile
}

// OpenDraft creates the draft if none is open. Opening requires a
// generated model; the name defaults to the model's suggested name.
func (f *Flow) OpenDraft() (*Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model == nil {
		return nil, ErrNoModel
	}
	if f.draft == nil {
		f.draft = &Draft{
			Name:   f.model.Name,
			Images: staging.NewSet(f.policy),
		}
	}
	f.touched = time.Now()
	draft := *f.draft
	return &draft, nil
}

// UpdateDraft replaces the draft's fields and modal images wholesale.
func (f *Flow) UpdateDraft(input DraftInput) ([]staging.Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model == nil {
		return nil, ErrNoModel
	}
	if f.draft == nil {
		f.draft = &Draft{Images: staging.NewSet(f.policy)}
	}

	f.draft.Name = input.Name
	if f.draft.Name == "" {
		f.draft.Name = f.model.Name
	}
	f.draft.Price = input.Price
	f.draft.Category = input.Category
	f.draft.Description = input.Description
	f.draft.URL = input.URL
	f.draft.Size = input.Size

	var notices []staging.Notice
	if input.Images != nil {
		notices = f.draft.Images.Replace(input.Images)
	}
	f.touched = time.Now()
	return notices, nil
}

// RemoveDraftImage drops one modal image by position.
func (f *Flow) RemoveDraftImage(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return ErrNoDraft
	}
	f.touched = time.Now()
	return f.draft.Images.RemoveAt(index)
}

// DiscardDraft drops all modal input without side effects. Mirrors
// closing the modal by cancel, the close control, or a click outside.
func (f *Flow) DiscardDraft() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = nil
	f.touched = time.Now()
}

// Draft returns a copy of the open draft, or nil.
func (f *Flow) Draft() *Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return nil
	}
	draft := *f.draft
	return &draft
}

// DraftView is the modal's render payload. Images carries the staged
// names in submission order, so an entry's position is also its removal
// index.
type DraftView struct {
	Name        string                `json:"name"`
	Price       float64               `json:"price"`
	Category    string                `json:"category"`
	Description string                `json:"description"`
	URL         string                `json:"url"`
	Size        dimensions.Dimensions `json:"size"`
	Images      []string              `json:"images"`
}

// DraftView snapshots the open draft for rendering, or nil when no
// draft is open.
func (f *Flow) DraftView() *DraftView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft == nil {
		return nil
	}

	files := f.draft.Images.Transferable()
	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Name
	}

	return &DraftView{
		Name:        f.draft.Name,
		Price:       f.draft.Price,
		Category:    f.draft.Category,
		Description: f.draft.Description,
		URL:         f.draft.URL,
		Size:        f.draft.Size,
		Images:      names,
	}
}

// SaveRequest is the single full submission built from the draft and the
// current model. ProductID and ProductFolder are empty when the
// processing service assigned no identity; the store then mints a fresh
// one.
type SaveRequest struct {
	Username      string
	Name          string
	Price         float64
	Category      string
	Description   string
	URL           string
	Size          dimensions.Dimensions
	ModelURL      string
	ProductID     string
	ProductFolder string
	Images        []staging.StagedFile
}

// SaveResult reports a successful persistence call.
type SaveResult struct {
	Message     string `json:"message"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"name"`
	Collection  string `json:"collection"`
	FolderPath  string `json:"folder_path"`
	ModelPath   string `json:"model_url"`
	ImageCount  int    `json:"images_count"`
}
