// Package database defines the persisted models and opens the relational store.
package database

import (
	"time"
)

// Video is one uploaded asset and its page configuration.
// ID is generated server-side and never changes; ClickCount only grows.
type Video struct {
	ID                  string    `gorm:"column:id;primaryKey;size:32" json:"id"`
	Filename            string    `gorm:"column:filename;size:500;not null" json:"filename"`
	RedirectURL         string    `gorm:"column:redirect_url;type:text" json:"redirect_url"`
	Description         string    `gorm:"column:description;type:text" json:"description"`
	BannerScript1       string    `gorm:"column:banner_script1;type:text" json:"banner_script1"`
	BannerScript2       string    `gorm:"column:banner_script2;type:text" json:"banner_script2"`
	BannerScript3       string    `gorm:"column:banner_script3;type:text" json:"banner_script3"`
	BannerScript4       string    `gorm:"column:banner_script4;type:text" json:"banner_script4"`
	BannerScript5       string    `gorm:"column:banner_script5;type:text" json:"banner_script5"`
	FacebookRedirectURL string    `gorm:"column:facebook_redirect_url;type:text" json:"facebook_redirect_url"`
	UseCloaking         bool      `gorm:"column:use_cloaking;default:false" json:"use_cloaking"`
	UseAntibot          bool      `gorm:"column:use_antibot;default:false" json:"use_antibot"`
	UsePreview          bool      `gorm:"column:use_preview;default:false" json:"use_preview"`
	UseVisitCounter     bool      `gorm:"column:use_visit_counter;default:false" json:"use_visit_counter"`
	PreviewTitle        string    `gorm:"column:preview_title;type:text" json:"preview_title"`
	PreviewImage        string    `gorm:"column:preview_image;type:text" json:"preview_image"`
	VisitCounterScript  string    `gorm:"column:visit_counter_script;type:text" json:"visit_counter_script"`
	ClickCount          int64     `gorm:"column:click_count;not null;default:0" json:"click_count"`
	CreatedAt           time.Time `gorm:"index:idx_videos_created_at" json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName returns "videos".
func (Video) TableName() string {
	return "videos"
}

// Banners returns the five banner fragments in slot order.
func (v *Video) Banners() [5]string {
	return [5]string{v.BannerScript1, v.BannerScript2, v.BannerScript3, v.BannerScript4, v.BannerScript5}
}

// Storage operation types and outcomes recorded in StorageLog.
const (
	StorageOpUpload = "upload"
	StorageOpDelete = "delete"

	StorageStatusSuccess = "success"
	StorageStatusFailed  = "failed"
)

// StorageLog records one object-store write or delete. Failed deletes and
// uploads whose row was never inserted are how orphaned objects are found.
type StorageLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	VideoID    string    `gorm:"size:32;index" json:"video_id"`
	Operation  string    `gorm:"not null;size:20" json:"operation"`
	Status     string    `gorm:"not null;size:20;index:idx_storage_logs_status_created,priority:1" json:"status"`
	ObjectKey  string    `gorm:"size:500" json:"object_key"`
	Provider   string    `gorm:"size:20" json:"provider"`
	Size       int64     `json:"size"`
	DurationMs int64     `json:"duration_ms"`
	ErrorMsg   string    `gorm:"type:text" json:"error_msg"`
	CreatedAt  time.Time `gorm:"index:idx_storage_logs_status_created,priority:2" json:"created_at"`
}

// TableName returns "storage_logs".
func (StorageLog) TableName() string {
	return "storage_logs"
}
