package handler

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/weiwangfds/vidshare/config"
	apperrors "github.com/weiwangfds/vidshare/internal/errors"
	"github.com/weiwangfds/vidshare/internal/logger"
	"github.com/weiwangfds/vidshare/internal/metrics"
	"github.com/weiwangfds/vidshare/internal/response"
	videoservice "github.com/weiwangfds/vidshare/internal/service/video"
)

const (
	// maxFieldSize bounds a single text field (banner scripts included).
	maxFieldSize = 256 * 1024
	// formOverhead is what the non-file parts may add on top of the file.
	formOverhead = 2 * 1024 * 1024
)

var errFileTooLarge = stderrors.New("file exceeds upload limit")

// uploadForm is the metadata part of POST /upload. Values are stored as
// submitted: redirect targets may be relative and preview images may be
// data URIs. The bounds only repeat what readField already enforces.
type uploadForm struct {
	RedirectURL         string `form:"redirectUrl" validate:"max=262144"`
	Description         string `form:"description" validate:"max=262144"`
	BannerScript1       string `form:"bannerScript1" validate:"max=262144"`
	BannerScript2       string `form:"bannerScript2" validate:"max=262144"`
	BannerScript3       string `form:"bannerScript3" validate:"max=262144"`
	BannerScript4       string `form:"bannerScript4" validate:"max=262144"`
	BannerScript5       string `form:"bannerScript5" validate:"max=262144"`
	FacebookRedirectURL string `form:"facebookRedirectUrl" validate:"max=262144"`
	UseCloaking         string `form:"useCloaking"`
	UseAntibot          string `form:"useAntibot"`
	UsePreview          string `form:"usePreview"`
	UseVisitCounter     string `form:"useVisitCounter"`
	PreviewTitle        string `form:"previewTitle" validate:"max=262144"`
	PreviewImage        string `form:"previewImage" validate:"max=262144"`
	VisitCounterScript  string `form:"visitCounterScript" validate:"max=262144"`
	ObjectKey           string `validate:"required"`
}

func newUploadForm(fields map[string]string) *uploadForm {
	return &uploadForm{
		RedirectURL:         strings.TrimSpace(fields["redirectUrl"]),
		Description:         fields["description"],
		BannerScript1:       fields["bannerScript1"],
		BannerScript2:       fields["bannerScript2"],
		BannerScript3:       fields["bannerScript3"],
		BannerScript4:       fields["bannerScript4"],
		BannerScript5:       fields["bannerScript5"],
		FacebookRedirectURL: strings.TrimSpace(fields["facebookRedirectUrl"]),
		UseCloaking:         fields["useCloaking"],
		UseAntibot:          fields["useAntibot"],
		UsePreview:          fields["usePreview"],
		UseVisitCounter:     fields["useVisitCounter"],
		PreviewTitle:        fields["previewTitle"],
		PreviewImage:        strings.TrimSpace(fields["previewImage"]),
		VisitCounterScript:  fields["visitCounterScript"],
	}
}

// checkbox follows the HTML form convention: only "on" is true.
func checkbox(v string) bool {
	return v == "on"
}

func (f *uploadForm) input() *videoservice.Input {
	return &videoservice.Input{
		RedirectURL:         f.RedirectURL,
		Description:         f.Description,
		BannerScripts:       [5]string{f.BannerScript1, f.BannerScript2, f.BannerScript3, f.BannerScript4, f.BannerScript5},
		FacebookRedirectURL: f.FacebookRedirectURL,
		UseCloaking:         checkbox(f.UseCloaking),
		UseAntibot:          checkbox(f.UseAntibot),
		UsePreview:          checkbox(f.UsePreview),
		UseVisitCounter:     checkbox(f.UseVisitCounter),
		PreviewTitle:        f.PreviewTitle,
		PreviewImage:        f.PreviewImage,
		VisitCounterScript:  f.VisitCounterScript,
	}
}

// UploadHandler accepts new videos.
type UploadHandler struct {
	videos   videoservice.Service
	cfg      config.UploadConfig
	validate *validator.Validate
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(videos videoservice.Service, cfg config.UploadConfig) *UploadHandler {
	return &UploadHandler{
		videos:   videos,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// limitedReader fails with errFileTooLarge once more than its budget is read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			l.exceeded = true
			return 0, errFileTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

// bodyTracker remembers whether http.MaxBytesReader cut the body off.
type bodyTracker struct {
	io.ReadCloser
	exceeded bool
}

func (b *bodyTracker) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		b.exceeded = true
	}
	return n, err
}

// Upload stores a video and its metadata.
// @Summary Upload a video
// @Description Streams the file part to object storage and inserts the video row
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "video file"
// @Success 200 {object} response.Result "{success: true, url: /video/<id>}"
// @Failure 400 {object} response.Result "no file or invalid fields"
// @Failure 413 {object} response.Result "file too large"
// @Failure 500 {object} response.Result "storage or database failure"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.cfg.MaxFileSize+formOverhead {
		metrics.RecordUpload("too_large", 0)
		response.ErrorCode(c, apperrors.ErrPayloadTooLarge)
		return
	}

	body := &bodyTracker{ReadCloser: http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxFileSize+formOverhead)}
	c.Request.Body = body

	reader, err := c.Request.MultipartReader()
	if err != nil {
		metrics.RecordUpload("missing_file", 0)
		response.ErrorCode(c, apperrors.ErrVideoFileMissing)
		return
	}

	ctx := c.Request.Context()
	fields := make(map[string]string)
	var stored *videoservice.StoredFile

	// discard removes an already stored object before a client error answer
	discard := func() {
		if stored == nil {
			return
		}
		if err := h.videos.DiscardFile(ctx, stored); err != nil {
			logger.WithField("object_key", stored.ObjectKey).WithError(err).Warn("failed to discard rejected upload")
		}
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			discard()
			h.fail(c, body.exceeded, apperrors.Wrap(apperrors.ErrInvalidParams, err))
			return
		}

		if part.FileName() != "" || part.FormName() == h.cfg.FieldName {
			if part.FormName() != h.cfg.FieldName || part.FileName() == "" || stored != nil {
				// other files, an empty file input, or a second video
				_, _ = io.Copy(io.Discard, part)
				part.Close()
				continue
			}

			file := &limitedReader{r: part, remaining: h.cfg.MaxFileSize}
			stored, err = h.videos.StoreFile(ctx, part.FileName(), part.Header.Get("Content-Type"), file)
			part.Close()
			if err != nil {
				h.fail(c, file.exceeded || body.exceeded, err)
				return
			}
			continue
		}

		value, err := readField(part)
		part.Close()
		if err != nil {
			discard()
			h.fail(c, body.exceeded, err)
			return
		}
		fields[part.FormName()] = value
	}

	if stored == nil {
		metrics.RecordUpload("missing_file", 0)
		response.ErrorCode(c, apperrors.ErrVideoFileMissing)
		return
	}

	form := newUploadForm(fields)
	form.ObjectKey = stored.ObjectKey
	if err := h.validate.Struct(form); err != nil {
		discard()
		metrics.RecordUpload("invalid", 0)
		response.Error(c, apperrors.Wrap(apperrors.ErrInvalidParams, err).WithDetails(describeValidation(err)))
		return
	}

	video, err := h.videos.Create(ctx, stored, form.input())
	if err != nil {
		metrics.RecordUpload("failed", stored.Size)
		response.Error(c, err)
		return
	}

	metrics.RecordUpload("success", stored.Size)
	logger.WithField("video_id", video.ID).WithField("size", stored.Size).Info("video uploaded")
	response.Success(c, "/video/"+video.ID)
}

// fail answers 413 when a size limit was hit and err otherwise.
func (h *UploadHandler) fail(c *gin.Context, tooLarge bool, err error) {
	if tooLarge {
		metrics.RecordUpload("too_large", 0)
		response.Error(c, apperrors.Wrap(apperrors.ErrPayloadTooLarge, err))
		return
	}
	metrics.RecordUpload("failed", 0)
	response.Error(c, err)
}

func readField(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidParams, err)
	}
	if len(data) > maxFieldSize {
		return "", apperrors.New(apperrors.ErrInvalidParams).
			WithDetails(fmt.Sprintf("field %s is larger than %d bytes", part.FormName(), maxFieldSize))
	}
	return string(data), nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
