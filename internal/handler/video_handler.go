package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/vidshare/config"
	apperrors "github.com/weiwangfds/vidshare/internal/errors"
	"github.com/weiwangfds/vidshare/internal/logger"
	"github.com/weiwangfds/vidshare/internal/metrics"
	"github.com/weiwangfds/vidshare/internal/render"
	videoservice "github.com/weiwangfds/vidshare/internal/service/video"
	"github.com/weiwangfds/vidshare/internal/service/visitor"
)

// VideoHandler serves the public pages.
type VideoHandler struct {
	videos       videoservice.Service
	classifier   *visitor.Classifier
	relatedCount int
}

// NewVideoHandler creates a VideoHandler.
func NewVideoHandler(videos videoservice.Service, classifier *visitor.Classifier, cfg config.ViewerConfig) *VideoHandler {
	return &VideoHandler{
		videos:       videos,
		classifier:   classifier,
		relatedCount: cfg.RelatedCount,
	}
}

// Viewer serves one video to a visitor.
// @Summary Video page
// @Description Applies the cloaking policy: 403 for bots on antibot videos, 302 for
// @Description redirect targets, otherwise the HTML player page
// @Produce html
// @Param id path string true "video id"
// @Success 200 {string} string "viewer page"
// @Success 302 {string} string "redirect"
// @Failure 403 {string} string "bot denied"
// @Failure 404 {string} string "unknown id"
// @Router /video/{id} [get]
func (h *VideoHandler) Viewer(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	video, err := h.videos.Get(ctx, id)
	if err != nil {
		pageError(c, err)
		return
	}

	decision := h.classifier.Decide(video, c.Request.UserAgent())
	metrics.RecordViewerDecision(decision.Action.String())

	switch decision.Action {
	case visitor.Deny:
		pageError(c, apperrors.New(apperrors.ErrForbidden))
	case visitor.FacebookRedirect:
		redirect(c, decision.Target)
	case visitor.ClickRedirect:
		if err := h.videos.RecordClick(ctx, id); err != nil {
			pageError(c, err)
			return
		}
		redirect(c, decision.Target)
	default:
		related, err := h.videos.SampleRelated(ctx, id, h.relatedCount)
		if err != nil {
			pageError(c, err)
			return
		}
		render.Viewer(c, video, h.videos.PublicURL(video.Filename), related)
	}
}

// redirect answers 302 with target as given. http.Redirect would resolve a
// scheme-less target like "www.example.com/x" against /video/:id.
func redirect(c *gin.Context, target string) {
	c.Header("Location", target)
	c.Status(http.StatusFound)
	c.Abort()
}

// List renders the gallery of every video.
// @Summary Video gallery
// @Produce html
// @Success 200 {string} string "gallery page"
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	videos, err := h.videos.ListPublic(c.Request.Context())
	if err != nil {
		pageError(c, err)
		return
	}
	render.Gallery(c, videos)
}

// pageError renders the HTML error page for err. Server errors get the
// generic message; the cause is logged.
func pageError(c *gin.Context, err error) {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.WithField("path", c.Request.URL.Path).WithError(err).Error("page request failed")
		_ = c.Error(err)
	}
	render.Error(c, status, appErr.Message)
}
