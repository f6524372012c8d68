package domain

import (
	"testing"
	"time"
)

func TestParseContentKind(t *testing.T) {
	tests := []struct {
		in     string
		want   ContentKind
		wantOK bool
	}{
		{"issue", KindIssue, true},
		{"community", KindCommunity, true},
		{"profile", KindProfile, true},
		{"Issue", "", false},
		{"event", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseContentKind(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseContentKind(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestItemProjections(t *testing.T) {
	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	rep := 82.0

	issue := Issue{ID: "i1", Title: "Pothole", Category: "roads", Upvotes: 7, CreatorID: "u1", CreatorReputation: &rep, CreatedAt: created}.Item()
	if issue.Kind != KindIssue || issue.Popularity != 7 || issue.CreatorReputation != &rep || issue.Category != "roads" || issue.CreatorID != "u1" {
		t.Errorf("Unexpected issue item: %+v", issue)
	}

	community := Community{ID: "c1", Name: "Park Friends", MemberCount: 310}.Item()
	if community.Kind != KindCommunity || community.Title != "Park Friends" || community.Popularity != 310 {
		t.Errorf("Unexpected community item: %+v", community)
	}
	if community.CreatorReputation != nil {
		t.Error("Communities carry no reputation")
	}

	profile := Profile{ID: "u1", DisplayName: "Amina", Bio: "Organiser", Followers: 140, Reputation: &rep}.Item()
	if profile.Kind != KindProfile || profile.Title != "Amina" || profile.Description != "Organiser" || profile.Popularity != 140 {
		t.Errorf("Unexpected profile item: %+v", profile)
	}
}

func TestItem_LastUpdated(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	created := now.Add(-48 * time.Hour)
	updated := now.Add(-time.Hour)

	tests := []struct {
		name string
		item Item
		want time.Time
	}{
		{"updated wins", Item{CreatedAt: created, UpdatedAt: updated}, updated},
		{"falls back to created", Item{CreatedAt: created}, created},
		{"falls back to now", Item{}, now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.LastUpdated(now); !got.Equal(tt.want) {
				t.Errorf("LastUpdated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItem_FieldValue(t *testing.T) {
	item := Item{
		Kind:        KindIssue,
		ID:          "i1",
		Title:       "Broken swing",
		Description: "In the park",
		Category:    "parks",
		Location:    "Nairobi",
		Popularity:  3,
	}

	tests := map[string]string{
		FieldKind:        "issue",
		FieldID:          "i1",
		FieldTitle:       "Broken swing",
		FieldDescription: "In the park",
		FieldCategory:    "parks",
		FieldLocation:    "Nairobi",
		FieldPopularity:  "",
		"unknown":        "",
	}
	for field, want := range tests {
		if got := item.FieldValue(field); got != want {
			t.Errorf("FieldValue(%q) = %q, want %q", field, got, want)
		}
	}
}
