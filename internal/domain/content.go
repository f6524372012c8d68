package domain

import "time"

// ContentKind discriminates the record types that can appear in search results.
type ContentKind string

// Content kinds
const (
	KindIssue     ContentKind = "issue"
	KindCommunity ContentKind = "community"
	KindProfile   ContentKind = "profile"
)

// ParseContentKind converts a raw string into a ContentKind.
func ParseContentKind(s string) (ContentKind, bool) {
	switch ContentKind(s) {
	case KindIssue, KindCommunity, KindProfile:
		return ContentKind(s), true
	default:
		return "", false
	}
}

// Issue is a problem reported by a community member.
type Issue struct {
	ID          string `json:"id" toml:"id"`
	Title       string `json:"title" toml:"title"`
	Description string `json:"description" toml:"description"`
	Category    string `json:"category,omitempty" toml:"category"`
	Location    string `json:"location,omitempty" toml:"location"`
	Upvotes     int    `json:"upvotes" toml:"upvotes"`

	// CreatorID references the Profile that opened the issue.
	CreatorID string `json:"creator_id,omitempty" toml:"creator"`

	// CreatorReputation is a snapshot of the creator's reputation on a 0-100
	// scale. Nil when the creator is unknown.
	CreatorReputation *float64 `json:"creator_reputation,omitempty" toml:"-"`

	CreatedAt time.Time `json:"created_at" toml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" toml:"updated_at"`
}

// Community is a group of members organised around a place or topic.
type Community struct {
	ID          string    `json:"id" toml:"id"`
	Name        string    `json:"name" toml:"name"`
	Description string    `json:"description" toml:"description"`
	Category    string    `json:"category,omitempty" toml:"category"`
	Location    string    `json:"location,omitempty" toml:"location"`
	MemberCount int       `json:"member_count" toml:"member_count"`
	CreatedAt   time.Time `json:"created_at" toml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" toml:"updated_at"`
}

// Profile is a user profile. Profiles only take part in quick search.
type Profile struct {
	ID          string    `json:"id" toml:"id"`
	DisplayName string    `json:"display_name" toml:"display_name"`
	Bio         string    `json:"bio,omitempty" toml:"bio"`
	Location    string    `json:"location,omitempty" toml:"location"`
	Reputation  *float64  `json:"reputation,omitempty" toml:"reputation"`
	Followers   int       `json:"followers" toml:"followers"`
	CreatedAt   time.Time `json:"created_at" toml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" toml:"updated_at"`
}

// Item is an immutable snapshot of any searchable record. Stores project
// issues, communities and profiles into this shape so that ranking code does
// not care where a record came from.
type Item struct {
	Kind        ContentKind
	ID          string
	Title       string
	Description string
	Category    string
	Location    string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Popularity is the upvote count for issues, the member count for
	// communities and the follower count for profiles.
	Popularity int

	// CreatorID is the profile that reported an issue.
	CreatorID string

	// CreatorReputation is on a 0-100 scale; nil means unknown.
	CreatorReputation *float64
}

// Item projects the issue into a searchable item.
func (i Issue) Item() Item {
	return Item{
		Kind:              KindIssue,
		ID:                i.ID,
		Title:             i.Title,
		Description:       i.Description,
		Category:          i.Category,
		Location:          i.Location,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		Popularity:        i.Upvotes,
		CreatorID:         i.CreatorID,
		CreatorReputation: i.CreatorReputation,
	}
}

// Item projects the community into a searchable item.
func (c Community) Item() Item {
	return Item{
		Kind:        KindCommunity,
		ID:          c.ID,
		Title:       c.Name,
		Description: c.Description,
		Category:    c.Category,
		Location:    c.Location,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Popularity:  c.MemberCount,
	}
}

// Item projects the profile into a searchable item.
func (p Profile) Item() Item {
	return Item{
		Kind:              KindProfile,
		ID:                p.ID,
		Title:             p.DisplayName,
		Description:       p.Bio,
		Location:          p.Location,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Popularity:        p.Followers,
		CreatorReputation: p.Reputation,
	}
}

// LastUpdated returns the most recent known timestamp of the item. Missing
// timestamps fall back to CreatedAt and then to now.
func (it Item) LastUpdated(now time.Time) time.Time {
	if !it.UpdatedAt.IsZero() {
		return it.UpdatedAt
	}
	if !it.CreatedAt.IsZero() {
		return it.CreatedAt
	}
	return now
}

// Searchable field names shared by the bleve catalog mapping and quick search
// field selection.
const (
	FieldKind        = "kind"
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldLocation    = "location"
	FieldPopularity  = "popularity"
	FieldReputation  = "reputation"
	FieldCreator     = "creator_id"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// FieldValue returns the textual value of a named field, or "" when the field
// has no textual representation.
func (it Item) FieldValue(name string) string {
	switch name {
	case FieldKind:
		return string(it.Kind)
	case FieldID:
		return it.ID
	case FieldTitle:
		return it.Title
	case FieldDescription:
		return it.Description
	case FieldCategory:
		return it.Category
	case FieldLocation:
		return it.Location
	default:
		return ""
	}
}
