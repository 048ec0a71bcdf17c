package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post is a location-tagged entry owned by a single user.
type Post struct {
	ID         string         `db:"id" json:"_id"`
	OwnerID    string         `db:"user_id" json:"userId"`
	Latitude   float64        `db:"latitude" json:"latitude"`
	Longitude  float64        `db:"longitude" json:"longitude"`
	Images     pq.StringArray `db:"images" json:"images"`
	CapturedAt time.Time      `db:"captured_at" json:"date"`
	Note       string         `db:"note" json:"note"`
	IsPrivate  bool           `db:"is_private" json:"isPrivate"`
	Seq        int64          `db:"seq" json:"-"` // creation order
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// CreatePostRequest is the request body for creating a post.
// Any owner sent by the client is ignored; the owner comes from the session token.
type CreatePostRequest struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Images     []string   `json:"images"`
	CapturedAt *time.Time `json:"date"`
	Note       string     `json:"note"`
	IsPrivate  bool       `json:"isPrivate"`
}

// UpdatePostRequest is a partial patch; nil fields are left unchanged.
type UpdatePostRequest struct {
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	Images     *[]string  `json:"images"`
	CapturedAt *time.Time `json:"date"`
	Note       *string    `json:"note"`
	IsPrivate  *bool      `json:"isPrivate"`
}

// Empty reports whether the patch changes nothing.
func (p UpdatePostRequest) Empty() bool {
	return p.Latitude == nil && p.Longitude == nil && p.Images == nil &&
		p.CapturedAt == nil && p.Note == nil && p.IsPrivate == nil
}

// BoundingBox is a closed latitude/longitude rectangle.
type BoundingBox struct {
	StartLat  float64
	EndLat    float64
	StartLong float64
	EndLong   float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, long float64) bool {
	return lat >= b.StartLat && lat <= b.EndLat &&
		long >= b.StartLong && long <= b.EndLong
}

// Location is an exact coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Visibility selects which posts a query may see.
type Visibility int

const (
	// VisibilityPublic matches only posts with is_private = false.
	VisibilityPublic Visibility = iota
	// VisibilityOwner matches every post of OwnerID, private or not.
	VisibilityOwner
	// VisibilityPublicOrOwner matches public posts plus OwnerID's private ones.
	VisibilityPublicOrOwner
)

// PostFilter combines the privacy, ownership and geographic filters of a query.
type PostFilter struct {
	Visibility Visibility
	OwnerID    string
	BBox       *BoundingBox
	At         *Location
}

// Matches reports whether p satisfies the filter.
func (f PostFilter) Matches(p *Post) bool {
	switch f.Visibility {
	case VisibilityPublic:
		if p.IsPrivate {
			return false
		}
	case VisibilityOwner:
		if p.OwnerID != f.OwnerID {
			return false
		}
	case VisibilityPublicOrOwner:
		if p.IsPrivate && p.OwnerID != f.OwnerID {
			return false
		}
	}
	if f.BBox != nil && !f.BBox.Contains(p.Latitude, p.Longitude) {
		return false
	}
	if f.At != nil && (p.Latitude != f.At.Latitude || p.Longitude != f.At.Longitude) {
		return false
	}
	return true
}

// ValidCoordinates reports whether lat/long are on the globe.
func ValidCoordinates(lat, long float64) bool {
	return lat >= -90 && lat <= 90 && long >= -180 && long <= 180
}

// Post errors
var (
	ErrPostNotFound       = errors.New("post not found")
	ErrForbidden          = errors.New("not the owner of this post")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrTooManyImages      = errors.New("too many images")
	ErrNoteTooLong        = errors.New("note too long")
)

// Post constants
const (
	MaxPostImages     = 10
	MaxPostNoteLength = 2200
)
