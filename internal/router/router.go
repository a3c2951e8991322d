package router

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/handler"
	"github.com/weiwangfds/vidshare/internal/logger"
	"github.com/weiwangfds/vidshare/internal/metrics"
	"github.com/weiwangfds/vidshare/internal/middleware"
	"github.com/weiwangfds/vidshare/internal/render"
	oss "github.com/weiwangfds/vidshare/internal/service/oss"
	videoservice "github.com/weiwangfds/vidshare/internal/service/video"
	"github.com/weiwangfds/vidshare/internal/service/visitor"
)

// AdminRealm is the Basic auth realm of the /admin group.
const AdminRealm = "Admin Area"

// Dependencies are the handles the router wires into handlers. They are
// built once in main.
type Dependencies struct {
	Config        *config.Config
	Videos        videoservice.Service
	Storage       oss.Provider
	DB            handler.Pinger
	Authenticator middleware.Authenticator
}

// Router holds the configured gin engine.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the engine with every route of the service.
func NewRouter(deps Dependencies) *Router {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.SetHTMLTemplate(render.Templates())

	uploadHandler := handler.NewUploadHandler(deps.Videos, cfg.Upload)
	videoHandler := handler.NewVideoHandler(deps.Videos, visitor.NewClassifier(cfg.Viewer), cfg.Viewer)
	adminHandler := handler.NewAdminHandler(deps.Videos)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Storage.Name())

	loggerMiddleware := middleware.NewLoggerMiddleware("/health", "/metrics")

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(loggerMiddleware.RequestLogger())
	engine.Use(metrics.GinMiddleware())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        86400,
	}))

	engine.GET("/health", healthHandler.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	engine.POST("/upload", uploadHandler.Upload)
	engine.GET("/video/:id", videoHandler.Viewer)
	engine.GET("/videos", videoHandler.List)

	admin := engine.Group("/admin", middleware.AdminAuth(deps.Authenticator, AdminRealm))
	{
		admin.GET("", adminHandler.Index)
		admin.GET("/videos", adminHandler.Videos)
		admin.GET("/videos/:id/edit", adminHandler.EditForm)
		admin.POST("/videos/:id/edit", adminHandler.Edit)
		admin.GET("/videos/:id/delete", adminHandler.Delete)
		admin.GET("/storage-logs", adminHandler.StorageLogs)
	}

	if local, ok := deps.Storage.(*oss.LocalProvider); ok {
		engine.Static(oss.LocalMediaRoute, local.Root())
		logger.Infof("serving local media from %s under %s", local.Root(), oss.LocalMediaRoute)
	}

	// static assets share the root with the routes above, so only unmatched
	// paths fall through to the directory
	if dir := cfg.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fileServer := gin.Dir(dir, false)
			engine.NoRoute(func(c *gin.Context) {
				if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
					c.Status(http.StatusNotFound)
					return
				}
				c.FileFromFS(c.Request.URL.Path, fileServer)
			})
			logger.Infof("serving static files from %s", dir)
		}
	}

	return &Router{engine: engine}
}

// GetEngine returns the gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
