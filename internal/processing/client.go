// Package processing talks to the external image-to-3D-model service and
// interprets its heterogeneous response shape.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelhaus/api/internal/staging"
)

// GenericFailureMessage is shown when the service supplies no message of
// its own.
const GenericFailureMessage = "請檢查網路連線或稍後再試。"

// ErrNoFiles is returned before any network call when the staging set is
// empty.
var ErrNoFiles = errors.New("processing: no files staged")

// Response is the raw service payload.
type Response struct {
	ProcessedImages []Artifact `json:"processed_images"`
	ProductName     string     `json:"product_name"`
}

// Outcome is the orchestrator's interpretation of one processing call.
// Exactly one of Model/NoModel holds: a usable model was found, or the
// call succeeded without producing one.
type Outcome struct {
	Model   *CurrentModelInfo
	NoModel bool
}

// Failure carries the most specific human-readable message available for
// a failed processing call.
type Failure struct {
	Message string
	cause   error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.cause }

// Client issues processing requests against a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for the configured endpoint. A zero timeout
// leaves the transport's own limits in charge.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "processing").Logger(),
	}
}

// Process sends the staged files plus optional name/prompt in a single
// multipart request and maps the response onto an Outcome. A non-2xx
// status or an unparsable 2xx body comes back as *Failure.
func (c *Client) Process(ctx context.Context, files []staging.StagedFile, productName, textPrompt string) (Outcome, error) {
	if len(files) == 0 {
		return Outcome{}, ErrNoFiles
	}

	body, contentType, err := buildMultipart(files, productName, textPrompt)
	if err != nil {
		return Outcome{}, fmt.Errorf("build request body: %w", err)
	}

	endpoint := c.baseURL + "/api/upload-and-process-images"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Outcome{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("processing request failed")
		return Outcome{}, &Failure{Message: GenericFailureMessage, cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, &Failure{Message: GenericFailureMessage, cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{}, &Failure{Message: serverMessage(raw, resp.StatusCode)}
	}

	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.log.Error().Err(err).Msg("unparsable processing response")
		return Outcome{}, &Failure{Message: GenericFailureMessage, cause: err}
	}

	model, ok := FirstUsableModel(parsed.ProcessedImages)
	if !ok {
		return Outcome{NoModel: true}, nil
	}

	name := parsed.ProductName
	if name == "" {
		name = productName
	}
	return Outcome{Model: &CurrentModelInfo{
		Name:          name,
		ModelURL:      c.resolveURL(model.URL),
		ProductID:     model.ProductID,
		ProductFolder: model.ProductFolder,
	}}, nil
}

func (c *Client) resolveURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return c.baseURL + u
}

// serverMessage prefers the message the service supplied over a generic
// status line.
func serverMessage(raw []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("伺服器錯誤: %d", status)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func buildMultipart(files []staging.StagedFile, productName, textPrompt string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	if productName != "" {
		if err := writer.WriteField("productName", productName); err != nil {
			return nil, "", err
		}
	}
	if textPrompt != "" {
		if err := writer.WriteField("textPrompt", textPrompt); err != nil {
			return nil, "", err
		}
	}

	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="productImages[]"; filename="%s"`,
			quoteEscaper.Replace(f.Name)))
		header.Set("Content-Type", f.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}
