// Package video manages video records and the objects they point at.
package video

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/vidshare/internal/database"
	apperrors "github.com/weiwangfds/vidshare/internal/errors"
	"github.com/weiwangfds/vidshare/internal/logger"
	"github.com/weiwangfds/vidshare/internal/metrics"
	oss "github.com/weiwangfds/vidshare/internal/service/oss"
	"gorm.io/gorm"
)

// DefaultContentType is used when an upload part carries no Content-Type.
const DefaultContentType = "video/mp4"

// Input carries the editable metadata submitted with an upload.
type Input struct {
	RedirectURL         string
	Description         string
	BannerScripts       [5]string
	FacebookRedirectURL string
	UseCloaking         bool
	UseAntibot          bool
	UsePreview          bool
	UseVisitCounter     bool
	PreviewTitle        string
	PreviewImage        string
	VisitCounterScript  string
}

// StoredFile is an object written by StoreFile and not yet bound to a row.
type StoredFile struct {
	VideoID     string
	ObjectKey   string
	ContentType string
	Size        int64
}

// Service is the video store used by the HTTP handlers.
type Service interface {
	// StoreFile streams r to the object store under a fresh key and reserves
	// the id the row will get.
	StoreFile(ctx context.Context, filename, contentType string, r io.Reader) (*StoredFile, error)

	// DiscardFile removes an object stored by StoreFile whose row will never
	// be created.
	DiscardFile(ctx context.Context, file *StoredFile) error

	// Create inserts the row for file. ClickCount starts at 0.
	Create(ctx context.Context, file *StoredFile, input *Input) (*database.Video, error)

	// Get loads one video.
	Get(ctx context.Context, id string) (*database.Video, error)

	// ListPublic returns id, filename, description and preview image of
	// every video, newest first.
	ListPublic(ctx context.Context) ([]database.Video, error)

	// ListAdmin returns id, filename and description of every video, newest first.
	ListAdmin(ctx context.Context) ([]database.Video, error)

	// UpdateDescription changes the description and nothing else.
	UpdateDescription(ctx context.Context, id, description string) error

	// Delete removes the row, then its object. It returns the object key.
	Delete(ctx context.Context, id string) (string, error)

	// RecordClick adds one to click_count in a single statement.
	RecordClick(ctx context.Context, id string) error

	// SampleRelated returns up to k distinct videos other than excludeID, in
	// random order.
	SampleRelated(ctx context.Context, excludeID string, k int) ([]database.Video, error)

	// RecentStorageLogs returns the newest storage log entries.
	RecentStorageLogs(ctx context.Context, limit int) ([]database.StorageLog, error)

	// PublicURL is the browser address of an object key.
	PublicURL(objectKey string) string
}

type videoService struct {
	db        *gorm.DB
	storage   oss.Provider
	keyPrefix string
}

// NewService builds a Service over db and storage. Objects are written
// under keyPrefix.
func NewService(db *gorm.DB, storage oss.Provider, keyPrefix string) Service {
	logger.Infof("initializing video service, provider=%s prefix=%s", storage.Name(), keyPrefix)
	return &videoService{
		db:        db,
		storage:   storage,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

// NewID returns a 22 character URL-safe id.
func NewID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// newToken returns the random part of an object key.
func newToken() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// ObjectKey builds "<prefix>/<token><ext>", keeping the original extension
// only when it is short and alphanumeric.
func ObjectKey(prefix, token, filename string) string {
	ext := path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	if prefix == "" {
		return token + ext
	}
	return prefix + "/" + token + ext
}

// countingReader tracks how many bytes passed through.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *videoService) StoreFile(ctx context.Context, filename, contentType string, r io.Reader) (*StoredFile, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}
	file := &StoredFile{
		VideoID:     NewID(),
		ObjectKey:   ObjectKey(s.keyPrefix, newToken(), filename),
		ContentType: contentType,
	}
	log := logger.WithFields(logrus.Fields{
		"video_id":   file.VideoID,
		"object_key": file.ObjectKey,
		"provider":   s.storage.Name(),
	})

	body := &countingReader{r: r}
	start := time.Now()
	err := s.storage.UploadFile(ctx, file.ObjectKey, body, contentType)
	elapsed := time.Since(start)
	file.Size = body.n

	metrics.RecordStorageOperation(s.storage.Name(), database.StorageOpUpload, err == nil, elapsed)
	s.writeStorageLog(ctx, database.StorageOpUpload, file.VideoID, file.ObjectKey, file.Size, elapsed, err)

	if err != nil {
		log.WithError(err).Error("failed to store video file")
		return nil, apperrors.Wrap(apperrors.ErrVideoUploadFailed, err)
	}

	log.WithFields(logrus.Fields{"size": file.Size, "duration_ms": elapsed.Milliseconds()}).Info("video file stored")
	return file, nil
}

func (s *videoService) DiscardFile(ctx context.Context, file *StoredFile) error {
	if file == nil {
		return nil
	}
	return s.deleteObject(ctx, file.VideoID, file.ObjectKey)
}

func (s *videoService) Create(ctx context.Context, file *StoredFile, input *Input) (*database.Video, error) {
	if input == nil {
		input = &Input{}
	}
	video := &database.Video{
		ID:                  file.VideoID,
		Filename:            file.ObjectKey,
		RedirectURL:         input.RedirectURL,
		Description:         input.Description,
		BannerScript1:       input.BannerScripts[0],
		BannerScript2:       input.BannerScripts[1],
		BannerScript3:       input.BannerScripts[2],
		BannerScript4:       input.BannerScripts[3],
		BannerScript5:       input.BannerScripts[4],
		FacebookRedirectURL: input.FacebookRedirectURL,
		UseCloaking:         input.UseCloaking,
		UseAntibot:          input.UseAntibot,
		UsePreview:          input.UsePreview,
		UseVisitCounter:     input.UseVisitCounter,
		PreviewTitle:        input.PreviewTitle,
		PreviewImage:        input.PreviewImage,
		VisitCounterScript:  input.VisitCounterScript,
		ClickCount:          0,
	}

	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		// the object stays behind; its upload entry in storage_logs has no matching row
		logger.WithFields(logrus.Fields{
			"video_id":   file.VideoID,
			"object_key": file.ObjectKey,
		}).WithError(err).Error("failed to insert video, object is orphaned")
		return nil, apperrors.Wrap(apperrors.ErrVideoSaveFailed, err)
	}
	return video, nil
}

func (s *videoService) Get(ctx context.Context, id string) (*database.Video, error) {
	var video database.Video
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&video).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrVideoNotFound)
		}
		logger.WithField("video_id", id).WithError(err).Error("failed to load video")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &video, nil
}

func (s *videoService) ListPublic(ctx context.Context) ([]database.Video, error) {
	return s.list(ctx, "id", "filename", "description", "preview_image", "created_at")
}

func (s *videoService) ListAdmin(ctx context.Context) ([]database.Video, error) {
	return s.list(ctx, "id", "filename", "description", "created_at")
}

func (s *videoService) list(ctx context.Context, columns ...string) ([]database.Video, error) {
	var videos []database.Video
	err := s.db.WithContext(ctx).
		Select(columns).
		Order("created_at DESC").
		Order("id").
		Find(&videos).Error
	if err != nil {
		logger.WithError(err).Error("failed to list videos")
		return nil, apperrors.Wrap(apperrors.ErrVideoListFailed, err)
	}
	return videos, nil
}

func (s *videoService) UpdateDescription(ctx context.Context, id, description string) error {
	result := s.db.WithContext(ctx).
		Model(&database.Video{}).
		Where("id = ?", id).
		UpdateColumn("description", description)
	if result.Error != nil {
		logger.WithField("video_id", id).WithError(result.Error).Error("failed to update description")
		return apperrors.Wrap(apperrors.ErrVideoUpdateFailed, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// some drivers report 0 for an unchanged row
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Video{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrVideoUpdateFailed, err)
	}
	if count == 0 {
		return apperrors.New(apperrors.ErrVideoNotFound)
	}
	return nil
}

func (s *videoService) Delete(ctx context.Context, id string) (string, error) {
	var filename string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var video database.Video
		if err := tx.Select("id", "filename").Where("id = ?", id).First(&video).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&database.Video{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		filename = video.Filename
		return nil
	})
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.New(apperrors.ErrVideoNotFound)
		}
		logger.WithField("video_id", id).WithError(err).Error("failed to delete video")
		return "", apperrors.Wrap(apperrors.ErrVideoDeleteFailed, err)
	}

	// no compensation: a failure here leaves the object behind
	if err := s.deleteObject(ctx, id, filename); err != nil {
		return filename, err
	}
	return filename, nil
}

func (s *videoService) deleteObject(ctx context.Context, videoID, objectKey string) error {
	start := time.Now()
	err := s.storage.DeleteFile(ctx, objectKey)
	elapsed := time.Since(start)

	metrics.RecordStorageOperation(s.storage.Name(), database.StorageOpDelete, err == nil, elapsed)
	s.writeStorageLog(ctx, database.StorageOpDelete, videoID, objectKey, 0, elapsed, err)

	if err != nil {
		logger.WithFields(logrus.Fields{
			"video_id":   videoID,
			"object_key": objectKey,
		}).WithError(err).Error("failed to delete object, it is now dangling")
		return apperrors.Wrap(apperrors.ErrStorageDeleteFailed, err)
	}
	return nil
}

func (s *videoService) RecordClick(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).
		Model(&database.Video{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1)).Error
	if err != nil {
		logger.WithField("video_id", id).WithError(err).Error("failed to record click")
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.RecordClick()
	return nil
}

func (s *videoService) SampleRelated(ctx context.Context, excludeID string, k int) ([]database.Video, error) {
	if k <= 0 {
		return nil, nil
	}
	var videos []database.Video
	err := s.db.WithContext(ctx).
		Select("id", "filename", "description", "preview_image").
		Where("id <> ?", excludeID).
		Order(randomOrder(s.db)).
		Limit(k).
		Find(&videos).Error
	if err != nil {
		logger.WithField("video_id", excludeID).WithError(err).Error("failed to sample related videos")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return videos, nil
}

// randomOrder returns the dialect's random ordering function.
func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}

func (s *videoService) RecentStorageLogs(ctx context.Context, limit int) ([]database.StorageLog, error) {
	var logs []database.StorageLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return logs, nil
}

func (s *videoService) PublicURL(objectKey string) string {
	return s.storage.PublicURL(objectKey)
}

// writeStorageLog records a storage call. Failing to write the entry is
// logged and otherwise ignored.
func (s *videoService) writeStorageLog(ctx context.Context, op, videoID, objectKey string, size int64, elapsed time.Duration, opErr error) {
	entry := &database.StorageLog{
		VideoID:    videoID,
		Operation:  op,
		Status:     database.StorageStatusSuccess,
		ObjectKey:  objectKey,
		Provider:   s.storage.Name(),
		Size:       size,
		DurationMs: elapsed.Milliseconds(),
	}
	if opErr != nil {
		entry.Status = database.StorageStatusFailed
		entry.ErrorMsg = opErr.Error()
	}
	// the request context may already be cancelled after a failed upload
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.WithFields(logrus.Fields{
			"operation":  op,
			"object_key": objectKey,
		}).WithError(err).Warn("failed to write storage log")
	}
}
