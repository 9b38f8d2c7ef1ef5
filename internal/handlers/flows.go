package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"modelhaus/api/internal/dimensions"
	"modelhaus/api/internal/middleware"
	"modelhaus/api/internal/staging"
	"modelhaus/api/internal/uploadflow"
)

// Form field names match the upload page's form controls.
const (
	fieldProductImages = "productImages"
	fieldModalImages   = "images"
)

func (h HandlerSet) CreateFlow(c *gin.Context) {
	username, _ := middleware.SessionUsername(c)
	flow := h.flows.Create(username)

	c.JSON(http.StatusCreated, gin.H{
		"flow_id": flow.ID(),
		"view":    flow.View(),
	})
}

func (h HandlerSet) FlowView(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flow_id": flow.ID(),
		"view":    flow.View(),
	})
}

// ReplaceFlowFiles swaps the staged set for the submitted files, the way
// a file input replaces its selection. Files the policy rejects are
// dropped and reported, never failed.
func (h HandlerSet) ReplaceFlowFiles(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}

	files, err := readStagedFiles(form, fieldProductImages)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notices := flow.ReplaceFiles(files)
	c.JSON(http.StatusOK, gin.H{
		"view":    flow.View(),
		"notices": noticeMessages(notices, flow.Policy()),
	})
}

func (h HandlerSet) RemoveFlowFile(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file index"})
		return
	}
	if err := flow.RemoveFile(index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"view": flow.View()})
}

func (h HandlerSet) ProcessFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	productName := c.PostForm("productName")
	textPrompt := c.PostForm("textPrompt")

	view, err := flow.Process(c.Request.Context(), h.processor, productName, textPrompt)
	if err != nil {
		switch {
		case errors.Is(err, uploadflow.ErrNoFilesStaged):
			c.JSON(http.StatusBadRequest, gin.H{"alert": uploadflow.MsgSelectFiles})
		case errors.Is(err, uploadflow.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "processing already in flight"})
		default:
			h.log.Error().Err(err).Str("flow_id", flow.ID()).Msg("process failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"view": view})
}

type draftForm struct {
	Name        string  `form:"name"`
	Price       float64 `form:"price"`
	Category    string  `form:"category"`
	Description string  `form:"description"`
	URL         string  `form:"url"`
	WidthCm     string  `form:"widthCm"`
	HeightCm    string  `form:"heightCm"`
	DepthCm     string  `form:"depthCm"`
}

// parseOptionalCm converts an optional form field to a per-axis size;
// an empty or unparseable value means the axis was not supplied.
func parseOptionalCm(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// UpsertDraft opens the draft when it is not open yet and applies the
// submitted fields. The modal submits its whole form each time, so the
// draft fields and modal images are replaced wholesale.
func (h HandlerSet) UpsertDraft(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	if _, err := flow.OpenDraft(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"alert": uploadflow.MsgNoModelYet})
		return
	}

	var notices []staging.Notice
	if form, err := c.MultipartForm(); err == nil && hasDraftFields(form) {
		var fields draftForm
		if err := c.ShouldBind(&fields); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		images, err := readStagedFiles(form, fieldModalImages)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		notices, err = flow.UpdateDraft(uploadflow.DraftInput{
			Name:        fields.Name,
			Price:       fields.Price,
			Category:    fields.Category,
			Description: fields.Description,
			URL:         fields.URL,
			Size: dimensions.Dimensions{
				WidthCm:  parseOptionalCm(fields.WidthCm),
				HeightCm: parseOptionalCm(fields.HeightCm),
				DepthCm:  parseOptionalCm(fields.DepthCm),
			},
			Images: images,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"alert": uploadflow.MsgNoModelYet})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"view":    flow.View(),
		"draft":   flow.DraftView(),
		"notices": noticeMessages(notices, flow.Policy()),
	})
}

func (h HandlerSet) DiscardDraft(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	flow.DiscardDraft()
	c.JSON(http.StatusOK, gin.H{"view": flow.View()})
}

func (h HandlerSet) RemoveDraftImage(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image index"})
		return
	}
	if err := flow.RemoveDraftImage(index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": flow.DraftView()})
}

func (h HandlerSet) SaveFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	result, err := flow.Save(c.Request.Context(), h.productService)
	if err != nil {
		switch {
		case errors.Is(err, uploadflow.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "processing already in flight"})
		case errors.Is(err, uploadflow.ErrNoModel):
			c.JSON(http.StatusBadRequest, gin.H{"alert": uploadflow.MsgNoModelYet})
		case errors.Is(err, uploadflow.ErrNoDraft):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "尚未填寫商品資料"})
		default:
			// Validation and persistence messages go to the user as-is.
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"product": result,
	})
}

type resetRequest struct {
	Choice string `json:"choice" binding:"required,oneof=reset keep"`
}

// ResetFlow applies the user's post-save choice: "reset" clears the flow
// for the next product, "keep" leaves everything in place.
func (h HandlerSet) ResetFlow(c *gin.Context) {
	flow, ok := h.lookupFlow(c)
	if !ok {
		return
	}

	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choice must be reset or keep"})
		return
	}

	if req.Choice == "reset" {
		flow.Reset()
	}
	c.JSON(http.StatusOK, gin.H{"view": flow.View()})
}

// lookupFlow resolves the :id parameter to a flow owned by the caller.
// Foreign flows are indistinguishable from missing ones.
func (h HandlerSet) lookupFlow(c *gin.Context) (*uploadflow.Flow, bool) {
	username, _ := middleware.SessionUsername(c)

	flow, ok := h.flows.Get(c.Param("id"))
	if !ok || flow.Owner() != username {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow not found"})
		c.Abort()
		return nil, false
	}
	return flow, true
}

func readStagedFiles(form *multipart.Form, field string) ([]staging.StagedFile, error) {
	headers := form.File[field]
	files := make([]staging.StagedFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readFileHeader(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, staging.StagedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        data,
		})
	}
	return files, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func noticeMessages(notices []staging.Notice, policy staging.Policy) []string {
	messages := make([]string, len(notices))
	for i, n := range notices {
		messages[i] = n.Message(policy)
	}
	return messages
}

func hasDraftFields(form *multipart.Form) bool {
	return len(form.Value) > 0 || len(form.File[fieldModalImages]) > 0
}
