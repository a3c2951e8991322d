package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/vidshare/internal/logger"
	"github.com/weiwangfds/vidshare/internal/middleware"
	"github.com/weiwangfds/vidshare/internal/render"
	videoservice "github.com/weiwangfds/vidshare/internal/service/video"
)

// storageLogLimit is how many entries the storage log page shows.
const storageLogLimit = 100

const adminVideosPath = "/admin/videos"

// AdminHandler serves the management pages. Routes are expected to sit
// behind middleware.AdminAuth.
type AdminHandler struct {
	videos videoservice.Service
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(videos videoservice.Service) *AdminHandler {
	return &AdminHandler{videos: videos}
}

// Index renders the landing page.
// @Summary Admin landing page
// @Tags Admin
// @Produce html
// @Security BasicAuth
// @Router /admin [get]
func (h *AdminHandler) Index(c *gin.Context) {
	render.AdminIndex(c)
}

// Videos lists every video with edit and delete links.
// @Summary Admin video list
// @Tags Admin
// @Produce html
// @Security BasicAuth
// @Router /admin/videos [get]
func (h *AdminHandler) Videos(c *gin.Context) {
	videos, err := h.videos.ListAdmin(c.Request.Context())
	if err != nil {
		pageError(c, err)
		return
	}
	render.AdminVideos(c, videos)
}

// EditForm renders the description form.
// @Summary Edit form
// @Tags Admin
// @Produce html
// @Param id path string true "video id"
// @Failure 404 {string} string "unknown id"
// @Security BasicAuth
// @Router /admin/videos/{id}/edit [get]
func (h *AdminHandler) EditForm(c *gin.Context) {
	video, err := h.videos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pageError(c, err)
		return
	}
	render.AdminEdit(c, video)
}

// Edit replaces the description and goes back to the list.
// @Summary Update description
// @Tags Admin
// @Accept x-www-form-urlencoded
// @Param id path string true "video id"
// @Param description formData string false "new description"
// @Success 302 {string} string "back to /admin/videos"
// @Failure 404 {string} string "unknown id"
// @Security BasicAuth
// @Router /admin/videos/{id}/edit [post]
func (h *AdminHandler) Edit(c *gin.Context) {
	id := c.Param("id")
	if err := h.videos.UpdateDescription(c.Request.Context(), id, c.PostForm("description")); err != nil {
		pageError(c, err)
		return
	}
	logger.WithField("video_id", id).WithField("admin", c.GetString(middleware.AdminUserKey)).Info("video description updated")
	c.Redirect(http.StatusFound, adminVideosPath)
}

// Delete removes the row and then its object.
// @Summary Delete video
// @Tags Admin
// @Param id path string true "video id"
// @Success 302 {string} string "back to /admin/videos"
// @Failure 404 {string} string "unknown id"
// @Failure 500 {string} string "row removed but object delete failed"
// @Security BasicAuth
// @Router /admin/videos/{id}/delete [get]
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	filename, err := h.videos.Delete(c.Request.Context(), id)
	if err != nil {
		pageError(c, err)
		return
	}
	logger.WithField("video_id", id).
		WithField("object_key", filename).
		WithField("admin", c.GetString(middleware.AdminUserKey)).
		Info("video deleted")
	c.Redirect(http.StatusFound, adminVideosPath)
}

// StorageLogs shows the most recent object-store operations.
// @Summary Storage log
// @Tags Admin
// @Produce html
// @Security BasicAuth
// @Router /admin/storage-logs [get]
func (h *AdminHandler) StorageLogs(c *gin.Context) {
	logs, err := h.videos.RecentStorageLogs(c.Request.Context(), storageLogLimit)
	if err != nil {
		pageError(c, err)
		return
	}
	render.StorageLogs(c, logs)
}
