package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
)

const (
	// UploadField is the multipart field the server reads the video from.
	UploadField = "video"

	maxErrorBody = 64 * 1024
)

// HTTPClient is the real backend client. It carries a cookie jar shared
// with the identity gate, so the fingerprint cookie travels with every
// request.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient builds a client for baseURL. The underlying http.Client has
// no timeout; callers cancel through ctx.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
		logger:     logging.WithComponent(logger, "backend"),
	}, nil
}

// Jar returns the cookie jar used for every request.
func (c *HTTPClient) Jar() http.CookieJar {
	return c.httpClient.Jar
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// List fetches the full roster from GET /all.
func (c *HTTPClient) List(ctx context.Context) ([]media.VideoRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/all", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var videos []media.VideoRecord
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if videos == nil {
		videos = []media.VideoRecord{}
	}
	return videos, nil
}

// Upload streams body as a multipart form to POST /upload and returns the
// server's message.
func (c *HTTPClient) Upload(ctx context.Context, filename, mediaType string, body io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, filename))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		h.Set("Content-Type", mediaType)

		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, body)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	// Unblock the writer goroutine if the transport gave up early.
	pr.CloseWithError(errors.New("upload request finished"))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeMessage(resp.Body)
}

// Edit sends an edit request to PATCH /edit.
func (c *HTTPClient) Edit(ctx context.Context, editReq EditRequest) (string, error) {
	body, err := json.Marshal(editReq)
	if err != nil {
		return "", fmt.Errorf("marshal edit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/edit", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeMessage(resp.Body)
}

func (c *HTTPClient) Delete(ctx context.Context, id int64) (string, error) {
	u := c.baseURL + "/delete/" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return decodeMessage(resp.Body)
}

// Download fetches a rendition of filename in format. The caller closes the
// returned body.
func (c *HTTPClient) Download(ctx context.Context, format, filename string) (io.ReadCloser, error) {
	return c.fetch(ctx, "/download/"+url.PathEscape(format)+"/"+url.PathEscape(filename))
}

func (c *HTTPClient) DownloadGIF(ctx context.Context, filename string) (io.ReadCloser, error) {
	return c.fetch(ctx, "/download/gif/"+url.PathEscape(filename))
}

// FileURL is the shareable playback URL for filename.
func (c *HTTPClient) FileURL(filename string) string {
	return c.baseURL + "/file/single/" + url.PathEscape(filename)
}

func (c *HTTPClient) fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// do sends req and converts any non-2xx response into an *APIError. On
// success the caller owns resp.Body.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	logger := logging.WithRequestID(c.logger, requestID)

	logger.Debug("backend request", "method", req.Method, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("backend request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	var msg messageResponse
	if err := json.Unmarshal(raw, &msg); err == nil {
		apiErr.Message = msg.Message
	}

	logger.Warn("backend returned error",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"retryable", apiErr.IsRetryable(),
	)
	return nil, apiErr
}

func decodeMessage(r io.Reader) (string, error) {
	var msg messageResponse
	if err := json.NewDecoder(r).Decode(&msg); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return msg.Message, nil
}
