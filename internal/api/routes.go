package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/ephemvid/ephemvid-client/internal/composer"
	"github.com/ephemvid/ephemvid-client/internal/notify"
	"github.com/ephemvid/ephemvid-client/internal/roster"
)

var validate = validator.New()

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(LoopbackGuard())
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Token, cfg.Logger))

		r.Get("/videos", listVideosHandler(cfg))
		r.Post("/refresh", refreshHandler(cfg))
		r.Post("/uploads", uploadHandler(cfg))
		r.Post("/videos/{id}/edit", editHandler(cfg))
		r.Delete("/videos/{id}", deleteHandler(cfg))
		r.Get("/notifications", notificationsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			Videos:  len(cfg.Roster.Snapshot()),
		})
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos := cfg.Roster.Snapshot()
		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v, cfg.FileURL)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func refreshHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Roster.Refresh(r.Context()); err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, RefreshResponse{Count: len(cfg.Roster.Snapshot())})
	}
}

func uploadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UploadRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		// Transfers outlive the request.
		sub := cfg.Uploads.Pick(context.WithoutCancel(r.Context()), req.Paths)
		WriteJSON(w, http.StatusAccepted, SubmissionToResponse(sub))
	}
}

func editHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(w, r)
		if !ok {
			return
		}

		var req EditRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		video, found := cfg.Roster.Find(id)
		if !found {
			WriteError(w, http.StatusNotFound, "video not found", "NOT_FOUND")
			return
		}

		c := cfg.Compose(video)
		if req.Trim != nil {
			c.SetTrimEnabled(true)
			if err := c.SetRange(req.Trim.Start, req.Trim.End); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
		}
		if req.Crop != nil {
			c.SetCropEnabled(true)
			if _, err := c.SetCrop(composer.Rect{X: req.Crop.X, Y: req.Crop.Y, Width: req.Crop.Width, Height: req.Crop.Height}); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
		}
		if req.CompressMB != nil {
			c.SetCompressEnabled(true)
			c.SetCompressMB(*req.CompressMB)
		}

		if err := c.Submit(r.Context()); err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: composer.SuccessMessage})
	}
}

func deleteHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := videoID(w, r)
		if !ok {
			return
		}
		if err := cfg.Remover.Remove(r.Context(), id); err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: roster.DeletedMessage})
	}
}

func notificationsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := NotificationsResponse{}
		if cfg.Notifications != nil {
			resp.Notifications = cfg.Notifications.Entries()
		}
		if resp.Notifications == nil {
			resp.Notifications = []notify.Entry{}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func videoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		WriteError(w, http.StatusBadRequest, "invalid video id", "BAD_REQUEST")
		return 0, false
	}
	return id, true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			WriteError(w, http.StatusBadRequest, "invalid field "+verrs[0].Namespace(), "BAD_REQUEST")
			return false
		}
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return false
	}
	return true
}
