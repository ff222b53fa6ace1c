// Package backend talks to the ephemvid server. It covers listing, upload,
// edit, delete and rendition downloads. Requests are never retried.
package backend

import (
	"context"
	"io"

	"github.com/ephemvid/ephemvid-client/internal/media"
)

// Client is the backend surface the rest of the client depends on.
type Client interface {
	List(ctx context.Context) ([]media.VideoRecord, error)
	Upload(ctx context.Context, filename, mediaType string, body io.Reader) (string, error)
	Edit(ctx context.Context, req EditRequest) (string, error)
	Delete(ctx context.Context, id int64) (string, error)
	Download(ctx context.Context, format, filename string) (io.ReadCloser, error)
	DownloadGIF(ctx context.Context, filename string) (io.ReadCloser, error)
	FileURL(filename string) string
}

// EditRequest is the body of PATCH /edit. A facet's fields are present only
// when that facet is enabled.
type EditRequest struct {
	ID         int64    `json:"id"`
	StartTime  *float64 `json:"startTime,omitempty"`
	EndTime    *float64 `json:"endTime,omitempty"`
	CompressTo *int     `json:"compressTo,omitempty"`
	CropX      *int     `json:"cropX,omitempty"`
	CropY      *int     `json:"cropY,omitempty"`
	CropWidth  *int     `json:"cropWidth,omitempty"`
	CropHeight *int     `json:"cropHeight,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}
