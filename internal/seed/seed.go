// Package seed loads TOML fixture files into a record store.
//
// A fixture lists profiles, issues and communities as arrays of tables:
//
//	[[profiles]]
//	id = "u1"
//	display_name = "Amina"
//	reputation = 80.0
//
//	[[issues]]
//	id = "i1"
//	title = "Park cleanup"
//	creator = "u1"
//	created_at = 2024-06-01T09:00:00Z
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/store"
)

// Fixture is the decoded content of a seed file.
type Fixture struct {
	Profiles    []domain.Profile   `toml:"profiles"`
	Issues      []domain.Issue     `toml:"issues"`
	Communities []domain.Community `toml:"communities"`
}

// Counts reports how many records of each kind were written.
type Counts struct {
	Profiles    int
	Issues      int
	Communities int
}

// Total returns the number of records written.
func (c Counts) Total() int {
	return c.Profiles + c.Issues + c.Communities
}

// LogValue implements slog.LogValuer.
func (c Counts) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("profiles", c.Profiles),
		slog.Int("issues", c.Issues),
		slog.Int("communities", c.Communities),
	)
}

// LoadFile reads and decodes the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses a fixture. Unknown keys are rejected so that typos in a seed
// file do not silently drop data.
func Decode(r io.Reader) (*Fixture, error) {
	var f Fixture
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown seed keys:\n%s", strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("invalid seed file at line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &f, nil
}

// Apply writes the fixture to w. Profiles are written first and every issue
// whose creator matches a profile receives that profile's reputation.
func (f *Fixture) Apply(ctx context.Context, w store.Writer) (Counts, error) {
	var counts Counts

	reputations := make(map[string]*float64, len(f.Profiles))
	for i := range f.Profiles {
		p := &f.Profiles[i]
		if err := w.SaveProfile(ctx, p); err != nil {
			return counts, fmt.Errorf("profile %q: %w", p.ID, err)
		}
		reputations[p.ID] = p.Reputation
		counts.Profiles++
	}

	for i := range f.Issues {
		issue := &f.Issues[i]
		if issue.CreatorReputation == nil && issue.CreatorID != "" {
			issue.CreatorReputation = reputations[issue.CreatorID]
		}
		if err := w.SaveIssue(ctx, issue); err != nil {
			return counts, fmt.Errorf("issue %q: %w", issue.ID, err)
		}
		counts.Issues++
	}

	for i := range f.Communities {
		c := &f.Communities[i]
		if err := w.SaveCommunity(ctx, c); err != nil {
			return counts, fmt.Errorf("community %q: %w", c.ID, err)
		}
		counts.Communities++
	}

	return counts, nil
}

// LoadInto reads the fixture at path and writes it to w.
func LoadInto(ctx context.Context, path string, w store.Writer) (Counts, error) {
	f, err := LoadFile(path)
	if err != nil {
		return Counts{}, err
	}
	return f.Apply(ctx, w)
}
