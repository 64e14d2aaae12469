package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/logging"
	"github.com/example/snapcheck/internal/photo"
)

// Wire format of the analysis endpoint. The field and file names are part
// of the service contract.
const (
	formFieldName  = "photo"
	uploadFileName = "photo.jpg"
)

type response struct {
	Success        bool   `json:"success"`
	ImageURL       string `json:"imageUrl"`
	FrameStyle     string `json:"frameStyle"`
	AnalysisResult string `json:"analysisResult"`
	Error          string `json:"error"`
	Message        string `json:"message"`
}

// Client posts encoded stills to the analysis endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient builds an upload client. A nil httpClient selects a client
// without a request timeout; in-flight uploads are never cancelled except
// through the caller's context.
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint: endpoint,
		http:     httpClient,
		logger:   logger.Named("upload"),
	}
}

// Send uploads one photo and decodes the analysis response. The request is
// issued exactly once; there is no retry.
func (c *Client) Send(ctx context.Context, p *photo.EncodedPhoto) (*Result, error) {
	body, contentType, err := buildMultipartBody(p)
	if err != nil {
		return nil, logging.NewOperationError("upload.build_body", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, logging.NewOperationError("upload.build_request", "", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := logging.NewOperationError("upload.send", "", err)
		c.logger.Error("upload request failed", zap.Error(wrapped))
		return nil, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		c.logger.Warn("analysis service rejected upload", zap.Int("status", resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("analysis response is not valid JSON", zap.Error(err))
		return nil, &ParseError{Err: err}
	}

	if !payload.Success {
		message := payload.Error
		if message == "" {
			message = GenericServiceMessage
		}
		c.logger.Warn("analysis service reported failure", zap.String("message", message))
		return nil, &ServiceError{Message: message}
	}

	result := &Result{
		Verdict:    VerdictFromAnswer(payload.AnalysisResult),
		Answer:     payload.AnalysisResult,
		ImageURL:   payload.ImageURL,
		FrameStyle: payload.FrameStyle,
		Message:    payload.Message,
	}
	c.logger.Info("analysis complete",
		zap.String("verdict", result.Verdict.String()),
		zap.String("frame_style", result.FrameStyle))
	return result, nil
}

func buildMultipartBody(p *photo.EncodedPhoto) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, formFieldName, uploadFileName))
	header.Set("Content-Type", p.MIME)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(p.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
