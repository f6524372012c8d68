package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/domain"
)

type recordingWriter struct {
	profiles    []domain.Profile
	issues      []domain.Issue
	communities []domain.Community
	failOn      string
}

var errWrite = errors.New("write failed")

func (w *recordingWriter) SaveProfile(_ context.Context, p *domain.Profile) error {
	if w.failOn == "profile" {
		return errWrite
	}
	w.profiles = append(w.profiles, *p)
	return nil
}

func (w *recordingWriter) SaveIssue(_ context.Context, i *domain.Issue) error {
	if w.failOn == "issue" {
		return errWrite
	}
	w.issues = append(w.issues, *i)
	return nil
}

func (w *recordingWriter) SaveCommunity(_ context.Context, c *domain.Community) error {
	if w.failOn == "community" {
		return errWrite
	}
	w.communities = append(w.communities, *c)
	return nil
}

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "fixture.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if len(f.Profiles) != 2 || len(f.Issues) != 2 || len(f.Communities) != 1 {
		t.Fatalf("Unexpected record counts: %d profiles, %d issues, %d communities",
			len(f.Profiles), len(f.Issues), len(f.Communities))
	}

	park := f.Issues[0]
	if park.ID != "i-park" || park.CreatorID != "u-amina" || park.Upvotes != 25 {
		t.Errorf("Unexpected issue: %+v", park)
	}
	want := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if !park.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", park.CreatedAt, want)
	}
	if f.Profiles[1].Reputation != nil {
		t.Errorf("Expected nil reputation when omitted, got %v", *f.Profiles[1].Reputation)
	}
	if f.Communities[0].MemberCount != 310 {
		t.Errorf("MemberCount = %d, want 310", f.Communities[0].MemberCount)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{
			name:    "unknown key",
			input:   "[[issues]]\nid = \"i1\"\ntitel = \"typo\"\n",
			wantMsg: "unknown seed keys",
		},
		{
			name:    "syntax error",
			input:   "[[issues]\nid = \"i1\"\n",
			wantMsg: "line 1",
		},
		{
			name:    "wrong type",
			input:   "[[issues]]\nupvotes = \"many\"\n",
			wantMsg: "invalid seed file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected %q in error, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestApply_ResolvesCreatorReputation(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "fixture.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	w := &recordingWriter{}
	counts, err := f.Apply(context.Background(), w)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if counts.Total() != 5 || counts.Profiles != 2 || counts.Issues != 2 || counts.Communities != 1 {
		t.Errorf("Unexpected counts: %+v", counts)
	}

	park := w.issues[0]
	if park.CreatorReputation == nil || *park.CreatorReputation != 82 {
		t.Errorf("Expected park issue to inherit reputation 82, got %v", park.CreatorReputation)
	}
	bus := w.issues[1]
	if bus.CreatorReputation != nil {
		t.Errorf("Expected nil reputation for creator without one, got %v", *bus.CreatorReputation)
	}
}

func TestApply_UnknownCreator(t *testing.T) {
	f := &Fixture{Issues: []domain.Issue{{ID: "i1", Title: "Pothole", CreatorID: "ghost"}}}

	w := &recordingWriter{}
	if _, err := f.Apply(context.Background(), w); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if w.issues[0].CreatorReputation != nil {
		t.Error("Expected nil reputation for unknown creator")
	}
}

func TestApply_WriteFailure(t *testing.T) {
	f := &Fixture{
		Profiles: []domain.Profile{{ID: "u1"}},
		Issues:   []domain.Issue{{ID: "i1"}},
	}

	w := &recordingWriter{failOn: "issue"}
	counts, err := f.Apply(context.Background(), w)
	if !errors.Is(err, errWrite) {
		t.Fatalf("Expected wrapped write error, got %v", err)
	}
	if !strings.Contains(err.Error(), `issue "i1"`) {
		t.Errorf("Expected record ID in error, got %v", err)
	}
	if counts.Profiles != 1 || counts.Issues != 0 {
		t.Errorf("Expected partial counts, got %+v", counts)
	}
}

func TestLoadInto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	content := "[[communities]]\nid = \"c1\"\nname = \"Garden Club\"\nmember_count = 12\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &recordingWriter{}
	counts, err := LoadInto(context.Background(), path, w)
	if err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}
	if counts.Communities != 1 || w.communities[0].Name != "Garden Club" {
		t.Errorf("Unexpected result: %+v, %+v", counts, w.communities)
	}
}
