package api

import (
	"time"

	"github.com/ephemvid/ephemvid-client/internal/ingest"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Videos  int    `json:"videos"`
}

type VideoResponse struct {
	ID          int64   `json:"id"`
	Filename    string  `json:"filename"`
	DisplayName string  `json:"display_name"`
	CreatedAt   string  `json:"created_at"`
	Duration    float64 `json:"duration"`
	Length      string  `json:"length"`
	Size        int64   `json:"size"`
	SizeMB      float64 `json:"size_mb"`
	URL         string  `json:"url,omitempty"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type RefreshResponse struct {
	Count int `json:"count"`
}

type UploadRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,required"`
}

type RejectionResponse struct {
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type UploadResponse struct {
	Accepted []string            `json:"accepted"`
	Rejected []RejectionResponse `json:"rejected"`
}

type TrimRequest struct {
	Start float64 `json:"start" validate:"gte=0"`
	End   float64 `json:"end" validate:"gtefield=Start"`
}

type CropRequest struct {
	X      int `json:"x" validate:"gte=0"`
	Y      int `json:"y" validate:"gte=0"`
	Width  int `json:"width" validate:"gte=1"`
	Height int `json:"height" validate:"gte=1"`
}

// EditRequest enables a facet by including it.
type EditRequest struct {
	Trim       *TrimRequest `json:"trim,omitempty"`
	Crop       *CropRequest `json:"crop,omitempty"`
	CompressMB *float64     `json:"compress_mb,omitempty" validate:"omitempty,gte=0"`
}

type NotificationsResponse struct {
	Notifications []notify.Entry `json:"notifications"`
}

func VideoToResponse(v media.VideoRecord, fileURL func(string) string) VideoResponse {
	resp := VideoResponse{
		ID:          v.ID,
		Filename:    v.Filename,
		DisplayName: v.DisplayName(),
		CreatedAt:   v.Created().UTC().Format(time.RFC3339),
		Duration:    v.Duration,
		Length:      media.FormatTimestamp(v.Duration),
		Size:        v.Size,
		SizeMB:      v.SizeMB(),
	}
	if fileURL != nil {
		resp.URL = fileURL(v.Filename)
	}
	return resp
}

func SubmissionToResponse(sub *ingest.Submission) UploadResponse {
	resp := UploadResponse{Accepted: []string{}, Rejected: []RejectionResponse{}}
	for _, c := range sub.Accepted() {
		resp.Accepted = append(resp.Accepted, c.Name)
	}
	for _, d := range sub.Decisions() {
		if d.Accepted {
			continue
		}
		resp.Rejected = append(resp.Rejected, RejectionResponse{
			Name:    d.Name,
			Reason:  string(d.Reason),
			Message: d.Message(),
		})
	}
	return resp
}
