// Package snapshot persists the operator's raw inputs between sessions and
// turns them into engine inputs.
//
// A snapshot is a flat key/value map whose keys carry a crop prefix
// ("soja_", "milho_"). Dates are stored as YYYY-MM-DD strings and come back
// as time.Time. Persistence is best effort: unreadable content loads as an
// empty snapshot and failed writes are logged, never returned to callers of
// the engine.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DateLayout is the on-disk date format.
const DateLayout = "2006-01-02"

// ErrSnapshotNotFound is returned by a Store that has never been written.
var ErrSnapshotNotFound = errors.New("snapshot not found")

var dateLike = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Snapshot is the persisted input state.
type Snapshot map[string]any

// Store loads and saves a whole snapshot.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// Clone returns a shallow copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// WithPrefixes returns the entries whose key starts with any of the prefixes.
func (s Snapshot) WithPrefixes(prefixes ...string) Snapshot {
	out := make(Snapshot)
	for k, v := range s {
		if hasAnyPrefix(k, prefixes) {
			out[k] = v
		}
	}
	return out
}

// Encode serializes a snapshot as indented JSON with dates as YYYY-MM-DD.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s.plain(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// MarshalJSON writes dates as YYYY-MM-DD so they read back as dates.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.plain())
}

func (s Snapshot) plain() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		switch t := v.(type) {
		case time.Time:
			out[k] = t.Format(DateLayout)
		case *time.Time:
			if t != nil {
				out[k] = t.Format(DateLayout)
			}
		default:
			out[k] = v
		}
	}
	return out
}

// Decode parses a JSON object into a snapshot, turning date-like strings
// back into dates.
func Decode(data []byte) (Snapshot, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to decode snapshot: not an object")
	}
	s := make(Snapshot, len(raw))
	for k, v := range raw {
		s[k] = parseDateLike(v)
	}
	return s, nil
}

func parseDateLike(v any) any {
	str, ok := v.(string)
	if !ok || !dateLike.MatchString(str) {
		return v
	}
	d, err := time.Parse(DateLayout, str)
	if err != nil {
		return v
	}
	return d
}

// LoadOrEmpty loads the snapshot, falling back to an empty one when nothing
// was saved yet or the content is unreadable.
func LoadOrEmpty(ctx context.Context, store Store, logger *zap.Logger) Snapshot {
	s, err := store.Load(ctx)
	switch {
	case err == nil:
		return s
	case errors.Is(err, ErrSnapshotNotFound):
		return Snapshot{}
	default:
		logger.Warn("Ignoring unreadable snapshot", zap.Error(err))
		return Snapshot{}
	}
}

// SaveBestEffort writes the snapshot and reports whether it succeeded.
func SaveBestEffort(ctx context.Context, store Store, s Snapshot, logger *zap.Logger) bool {
	if err := store.Save(ctx, s); err != nil {
		logger.Warn("Failed to save snapshot", zap.Int("keys", len(s)), zap.Error(err))
		return false
	}
	return true
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
