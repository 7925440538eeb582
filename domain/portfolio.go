package domain

import (
	"errors"
	"time"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrStackNotFound   = errors.New("stack not found")
)

// Project is a single portfolio entry.
type Project struct {
	ID               int64      `db:"id"                 json:"id"`
	CreatedAt        time.Time  `db:"created_at"         json:"created_at"`
	Title            string     `db:"title"              json:"title"`
	Description      string     `db:"description"        json:"description"`
	ProjectStartDate *time.Time `db:"project_start_date" json:"project_start_date"`
	ProjectEndDate   *time.Time `db:"project_end_date"   json:"project_end_date"`
	ThumbnailURL     *string    `db:"thumbnail_url"      json:"thumbnail_url"`
	IsVisible        bool       `db:"is_visible"         json:"is_visible"`
}

// ProjectUpdate is a partial update; nil fields are left untouched.
type ProjectUpdate struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	ProjectStartDate *time.Time `json:"project_start_date"`
	ProjectEndDate   *time.Time `json:"project_end_date"`
	ThumbnailURL     *string    `json:"thumbnail_url"`
	IsVisible        *bool      `json:"is_visible"`
}

// StackType classifies a tech-stack tag.
type StackType string

const (
	StackTypeLibrary   StackType = "library"
	StackTypeFramework StackType = "framework"
	StackTypeRuntime   StackType = "runtime"
	StackTypeLanguage  StackType = "language"
	StackTypeTool      StackType = "tool"
	StackTypeOther     StackType = "other"
)

// Stack is a tech-stack tag that projects reference.
type Stack struct {
	ID          int64      `db:"id"          json:"id"`
	Key         string     `db:"key"         json:"key"`
	Description *string    `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at"  json:"created_at"`
	URL         *string    `db:"url"         json:"url"`
	Type        *StackType `db:"type"        json:"type"`
	ImageURL    *string    `db:"image_url"   json:"image_url"`
}

// StackUpdate is a partial update for a single stack row.
type StackUpdate struct {
	ID          int64      `json:"id"`
	Key         *string    `json:"key"`
	Description *string    `json:"description"`
	URL         *string    `json:"url"`
	Type        *StackType `json:"type"`
	ImageURL    *string    `json:"image_url"`
}

// ProjectStack links a project to a stack tag.
type ProjectStack struct {
	ProjectID int64 `db:"project_id" json:"project_id"`
	StackID   int64 `db:"stack_id"   json:"stack_id"`
}

// Activity is a mirrored social post shown on the public site.
type Activity struct {
	ID         int64     `db:"id"          json:"id"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	Source     string    `db:"source"      json:"source"`
	ExternalID *string   `db:"external_id" json:"external_id"`
	Text       *string   `db:"text"        json:"text"`
	URL        *string   `db:"url"         json:"url"`
}

// ActivityMedia is an image or video attached to an activity.
type ActivityMedia struct {
	ID         int64     `db:"id"          json:"id"`
	ActivityID int64     `db:"activity_id" json:"activity_id"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	URL        string    `db:"url"         json:"url"`
	Type       *string   `db:"type"        json:"type"`
}
