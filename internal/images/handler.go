package images

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	apperrors "carbroker/pkg/errors"
	httputil "carbroker/pkg/http"
	"carbroker/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const imageMaxAge = "public, max-age=31536000, immutable"

type Handler struct {
	proxy *Proxy
	log   *logger.Logger
}

func NewHandler(proxy *Proxy, log *logger.Logger) *Handler {
	return &Handler{
		proxy: proxy,
		log:   log,
	}
}

func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw := httputil.QueryString(r, "url")
	if raw == "" {
		httputil.WriteError(w, apperrors.InvalidInput("url parameter is required"))
		return
	}

	target, err := h.proxy.Target(raw)
	if err != nil {
		h.log.Warn("Image proxy refused source", "url", raw, "error", err)
		httputil.WriteError(w, apperrors.Forbidden("invalid image source"))
		return
	}

	img, err := h.proxy.Fetch(r.Context(), target)
	if err != nil {
		h.log.Warn("Image proxy fetch failed", "url", target.String(), "error", err)
		httputil.WriteError(w, fetchError(err))
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Body)))
	w.Header().Set("Cache-Control", imageMaxAge)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Body)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/images/proxy", h.Proxy)
}

func fetchError(err error) error {
	var urlErr *url.Error
	switch {
	case errors.Is(err, ErrHostNotAllowed):
		return apperrors.Forbidden("invalid image source")
	case errors.Is(err, ErrNotFound):
		return apperrors.NotFound("Image")
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &urlErr) && urlErr.Timeout():
		return apperrors.Timeout("image server unreachable")
	default:
		return apperrors.Wrap(err, apperrors.CodeVendorError, "failed to fetch image", http.StatusBadGateway)
	}
}
