// Package render builds the HTML pages. Every page has one function here.
//
// Banner scripts and the visit-counter script are trusted HTML supplied by
// whoever uploads a video and are written unescaped; those are the only
// template.HTML conversions in the service. All other values go through
// html/template escaping.
package render

import (
	"embed"
	"html/template"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weiwangfds/vidshare/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

// Fallbacks used by the gallery.
const (
	PlaceholderImage = "https://placehold.co/300x200"
	DefaultCaption   = "Video"
	GalleryTitle     = "SexXHub Videos"
)

// GalleryBackgrounds are the animated backgrounds the gallery picks from on
// each request.
var GalleryBackgrounds = []string{
	"https://blogger.googleusercontent.com/img/b/R29vZ2xl/AVvXsEhrdklFCim48unSIlZnvzx0b38P_JvazkOMNwLb0p-5j_7lKgLvRu86OTpOQAVUAqcaEDXo_0gMKHX3VH0brYhF74lsOT1HzgM9va7Hvq8l-kMdxxYK7X7Y7BEJ4uDcUm5uBswHWLzyihvqcNDWP2fBQt6f-HRg1mf_fId9djj4ssBzgyzQKktit9esvcA/s320/git%20portada%20%C2%B418.gif",
	"https://blogger.googleusercontent.com/img/b/R29vZ2xl/AVvXsEjR6iKXHsulBjHPwGFSvBUUBbhkTn147WKhb8ORhrDu3z0y3exUvgpWsP9C5kocrbtTqukBEL5zt8jpHlvTw98mkuIG0L90bONvHw08R5DId0Q3MN6bhxaCPjCBhM54P7ZgaWr447JKDzozQ5546WrblNIW_sAT4I5pMCs58TsF3R5_-TneDKVMr2sMirg/s320/git%20portada%20+18%202.gif",
	"https://blogger.googleusercontent.com/img/b/R29vZ2xl/AVvXsEg-jbFXvGf6J-S6dwfLfq5E72ilmUgTjJJAhPIMRvtZH_S746Jwn5WsVTXvsVYdd7Fr-m8beWCm86x9igM6iXpt-rbtqfkXQ29jjjuvDai2BLoQ_skSWYeH5C0O4MZJEqoXohVG7CndeXK0UWdJQCVDZsjPgIsxS662LiWvewg3x3GkkmemOnR-1dksplI/s320/git%20portada%20+18%203.gif",
	"https://blogger.googleusercontent.com/img/b/R29vZ2xl/AVvXsEjnmPcunv_nba1D8_vUQjkx2sc11zswcmUZPRiUH4FAkjTT3TEqAV5T6Rid7WgjWZe2gZTSFL-_MLoegYm9dTt_ZvnmmOzLQr76o_l3ggN17fVu0D1Y-9Ox41WFvJI1-QIGrrXwIVHWs3ai9Y54C7TPLU1U32Gl14S1JEHRroQ9z7ZH2QEXpx1uSWB0YlQ/s320/git%20portada%20+18%204.gif",
}

// Templates parses the embedded pages. The router installs the result with
// engine.SetHTMLTemplate.
func Templates() *template.Template {
	return template.Must(template.New("pages").ParseFS(templateFS, "templates/*.html"))
}

type relatedItem struct {
	ID           string
	Description  string
	PreviewImage string
}

type viewerPage struct {
	VisitCounterScript template.HTML
	PreviewTitle       string
	PreviewImage       string
	Description        string
	VideoURL           string
	ContentType        string
	TopBanners         []template.HTML
	BottomBanners      []template.HTML
	RelatedRows        [][]relatedItem
}

// Viewer renders the public page of v. Banners 1-3 sit above the player and
// 4-5 below it; related videos are laid out two per row.
func Viewer(c *gin.Context, v *database.Video, videoURL string, related []database.Video) {
	title := v.PreviewTitle
	if title == "" {
		title = DefaultCaption
	}
	banners := v.Banners()

	page := viewerPage{
		VisitCounterScript: template.HTML(v.VisitCounterScript),
		PreviewTitle:       title,
		PreviewImage:       v.PreviewImage,
		Description:        v.Description,
		VideoURL:           videoURL,
		ContentType:        "video/mp4",
		TopBanners:         trusted(banners[:3]),
		BottomBanners:      trusted(banners[3:]),
	}

	var row []relatedItem
	for _, r := range related {
		row = append(row, relatedItem{ID: r.ID, Description: r.Description, PreviewImage: r.PreviewImage})
		if len(row) == 2 {
			page.RelatedRows = append(page.RelatedRows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		page.RelatedRows = append(page.RelatedRows, row)
	}

	c.HTML(http.StatusOK, "viewer.html", page)
}

// trusted marks non-empty fragments as safe HTML.
func trusted(fragments []string) []template.HTML {
	out := make([]template.HTML, 0, len(fragments))
	for _, f := range fragments {
		if f != "" {
			out = append(out, template.HTML(f))
		}
	}
	return out
}

type galleryItem struct {
	ID      string
	Image   string
	Caption string
}

// Gallery renders the public listing.
func Gallery(c *gin.Context, videos []database.Video) {
	items := make([]galleryItem, 0, len(videos))
	for _, v := range videos {
		item := galleryItem{ID: v.ID, Image: v.PreviewImage, Caption: v.Description}
		if item.Image == "" {
			item.Image = PlaceholderImage
		}
		if item.Caption == "" {
			item.Caption = DefaultCaption
		}
		items = append(items, item)
	}
	c.HTML(http.StatusOK, "gallery.html", gin.H{
		"Title":      GalleryTitle,
		"Background": GalleryBackgrounds[rand.Intn(len(GalleryBackgrounds))],
		"Items":      items,
	})
}

// AdminIndex renders the admin landing page.
func AdminIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_index.html", nil)
}

// AdminVideos renders the management list.
func AdminVideos(c *gin.Context, videos []database.Video) {
	c.HTML(http.StatusOK, "admin_videos.html", gin.H{"Videos": videos})
}

// AdminEdit renders the description form for v.
func AdminEdit(c *gin.Context, v *database.Video) {
	c.HTML(http.StatusOK, "admin_edit.html", gin.H{"ID": v.ID, "Description": v.Description})
}

// StorageLogs renders recent object-store operations.
func StorageLogs(c *gin.Context, logs []database.StorageLog) {
	c.HTML(http.StatusOK, "admin_storage_logs.html", gin.H{"Logs": logs})
}

// Error renders a minimal page with message and aborts the chain.
func Error(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{"Status": status, "Message": message})
	c.Abort()
}
