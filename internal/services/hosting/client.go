package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"go.uber.org/zap"
)

// UploadMetadata describes one upload besides the artifact bytes.
type UploadMetadata struct {
	Type        string
	FileName    string
	ContentType string
	Draw        *models.DrawInstruction
	Variants    []string
}

// RejectedError carries the hosting service's own error messages.
type RejectedError struct {
	Status   int
	Messages []string
}

func (e *RejectedError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("image hosting responded without success (status %d)", e.Status)
	}
	return strings.Join(e.Messages, "; ")
}

// Client uploads artifacts to Cloudflare Images. It performs exactly one
// attempt per call: a repeated POST would create a second hosted image.
type Client struct {
	httpClient        *http.Client
	apiBase           string
	accountID         string
	apiToken          string
	requireSignedURLs bool
	timeout           time.Duration
	logger            *zap.Logger
}

func NewClient(cfg config.CloudflareConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient:        httpClient,
		apiBase:           strings.TrimRight(cfg.APIBase, "/"),
		accountID:         cfg.AccountID,
		apiToken:          cfg.APIToken,
		requireSignedURLs: cfg.RequireSignedURLs,
		timeout:           cfg.UploadTimeout,
		logger:            logger,
	}
}

type uploadEnvelope struct {
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
	Result  struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants"`
	} `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type uploadMetadataJSON struct {
	Type string                   `json:"type"`
	Draw []models.DrawInstruction `json:"draw,omitempty"`
}

// Upload posts data and returns the remote image id.
func (c *Client) Upload(ctx context.Context, data []byte, meta UploadMetadata) (string, error) {
	body, contentType, err := c.buildForm(data, meta)
	if err != nil {
		return "", models.NewError(models.KindTransport, "failed to build upload request", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/images/v1", c.apiBase, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", models.NewError(models.KindTransport, "failed to build upload request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewError(models.KindTransport,
			fmt.Sprintf("failed to reach image hosting service: %v", err), err)
	}
	defer resp.Body.Close()

	var envelope uploadEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", models.NewError(models.KindTransport,
			fmt.Sprintf("invalid response from image hosting service (status %d)", resp.StatusCode), err)
	}

	if !envelope.Success || resp.StatusCode >= http.StatusBadRequest {
		rejected := &RejectedError{Status: resp.StatusCode, Messages: messagesOf(envelope.Errors)}
		return "", models.NewError(models.KindUploadRejected, "upload failed: "+rejected.Error(), rejected)
	}
	if envelope.Result.ID == "" {
		rejected := &RejectedError{Status: resp.StatusCode, Messages: []string{"hosting service returned no image id"}}
		return "", models.NewError(models.KindUploadRejected, "upload failed: "+rejected.Error(), rejected)
	}

	c.logger.Info("Image uploaded to hosting service",
		zap.String("image_id", envelope.Result.ID),
		zap.String("type", meta.Type),
		zap.Int("bytes", len(data)))

	return envelope.Result.ID, nil
}

func (c *Client) buildForm(data []byte, meta UploadMetadata) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fileName := meta.FileName
	if fileName == "" {
		fileName = "image"
	}
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}

	metadata, err := MetadataJSON(meta)
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("metadata", string(metadata)); err != nil {
		return nil, "", fmt.Errorf("failed to write metadata: %w", err)
	}
	if len(meta.Variants) > 0 {
		if err := writer.WriteField("variants", strings.Join(meta.Variants, ",")); err != nil {
			return nil, "", fmt.Errorf("failed to write variants: %w", err)
		}
	}
	if err := writer.WriteField("requireSignedURLs", strconv.FormatBool(c.requireSignedURLs)); err != nil {
		return nil, "", fmt.Errorf("failed to write requireSignedURLs: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// MetadataJSON renders the metadata object: {type, draw:[...]} when a remote
// directive is attached, {type} otherwise.
func MetadataJSON(meta UploadMetadata) ([]byte, error) {
	payload := uploadMetadataJSON{Type: meta.Type}
	if meta.Draw != nil {
		payload.Draw = []models.DrawInstruction{*meta.Draw}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

func messagesOf(errs []apiError) []string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
