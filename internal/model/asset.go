package model

import "time"

type AssetType string

const (
	AssetIcon  AssetType = "icon"
	AssetImage AssetType = "image"
	AssetLogo  AssetType = "logo"
)

func (t AssetType) Valid() bool {
	return t == AssetIcon || t == AssetImage || t == AssetLogo
}

type TaggingStatus string

const (
	TaggingPending TaggingStatus = "pending"
	TaggingDone    TaggingStatus = "tagged"
	TaggingFailed  TaggingStatus = "failed"
)

// Asset is brand reference material. Type, tags and summary are written once
// by the tagging worker.
type Asset struct {
	ID            string        `db:"id" json:"id"`
	ProjectID     string        `db:"project_id" json:"project_id"`
	Name          string        `db:"name" json:"name"`
	StorageKey    string        `db:"storage_key" json:"-"`
	Type          AssetType     `db:"type" json:"type,omitempty"`
	Tags          []string      `db:"tags" json:"tags"`
	AISummary     string        `db:"ai_summary" json:"ai_summary"`
	TaggingStatus TaggingStatus `db:"tagging_status" json:"tagging_status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
