package goalstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"goalietron/lib/chrono"
	"goalietron/lib/telemetry"

	"github.com/titanous/json5"
)

const (
	report_load_drop_entry = "load.drop-entry"
)

// LoadResult describes how many entries of a goals file were kept.
type LoadResult struct {
	Accepted int
	Dropped  int
}

// Store owns the goal collection, keyed by goal id.
type Store struct {
	goals map[string]Goal
	clock chrono.API
	tel   telemetry.API
	mu    sync.RWMutex
}

func NewStore(clock chrono.API, tel telemetry.API) *Store {
	return &Store{
		goals: map[string]Goal{},
		clock: clock,
		tel:   telemetry.NewScopedAPI("goalstore", tel),
	}
}

// Create inserts or overwrites the goal `id`, nothing is stored if the id,
// type, target or title is invalid. The stored goal is sanitized the same way
// LoadFromFile sanitizes entries so it survives a save and load unchanged.
func (s *Store) Create(id string, goalType GoalType, target float64, title string) error {
	if !validId.MatchString(id) {
		return ErrInvalidId
	}
	_, err := ParseGoalType(string(goalType))
	if err != nil {
		return err
	}
	if !validTarget(target) {
		return ErrInvalidTarget
	}
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrInvalidTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[id] = Goal{
		Id:        id,
		Type:      goalType,
		Target:    sanitizeTarget(target),
		Title:     title,
		CreatedAt: s.clock.Now(),
	}
	return nil
}

func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.goals[id]
	if ok {
		delete(s.goals, id)
	}
	return ok
}

func (s *Store) Get(id string) (Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	goal, ok := s.goals[id]
	return goal, ok
}

// List returns a copy of the collection.
func (s *Store) List() map[string]Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Goal, len(s.goals))
	for id, goal := range s.goals {
		out[id] = goal
	}
	return out
}

// LoadFromFile replaces the collection with the valid entries of the goals
// file at `path`. Invalid entries are dropped one by one, the file as a whole
// only fails if it cannot be read or is not a json object or array.
func (s *Store) LoadFromFile(path string) (LoadResult, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return LoadResult{}, fmt.Errorf("%w: %s", ErrGoalsFileNotFound, path)
	}
	if err != nil {
		return LoadResult{}, err
	}

	var decoded any
	err = json5.Unmarshal(content, &decoded)
	if err != nil {
		return LoadResult{}, fmt.Errorf("%w: %w", ErrInvalidGoalsFile, err)
	}

	var entries []rawEntry
	switch top := decoded.(type) {
	case map[string]any:
		for key, value := range top {
			entries = append(entries, rawEntry{id: key, hasId: true, value: value})
		}
	case []any:
		for _, value := range top {
			entry := rawEntry{value: value}
			if fields, ok := value.(map[string]any); ok {
				entry.id, entry.hasId = fields["id"].(string)
			}
			entries = append(entries, entry)
		}
	default:
		return LoadResult{}, ErrInvalidGoalsFile
	}

	result := LoadResult{}
	goals := map[string]Goal{}
	for _, entry := range entries {
		goal, err := entry.validate()
		if err != nil {
			result.Dropped++
			s.tel.ReportWarning(report_load_drop_entry, "id", entry.id, "err", err)
			continue
		}
		if _, exists := goals[goal.Id]; !exists {
			result.Accepted++
		}
		goals[goal.Id] = goal
	}

	s.mu.Lock()
	s.goals = goals
	s.mu.Unlock()

	return result, nil
}

type rawEntry struct {
	id    string
	hasId bool
	value any
}

func (e rawEntry) validate() (Goal, error) {
	if !e.hasId || !validId.MatchString(e.id) {
		return Goal{}, ErrInvalidId
	}
	fields, ok := e.value.(map[string]any)
	if !ok {
		return Goal{}, fmt.Errorf("goalstore: entry '%s' is not an object", e.id)
	}

	typeName, _ := fields["type"].(string)
	goalType, err := ParseGoalType(typeName)
	if err != nil {
		return Goal{}, err
	}

	target, ok := numeric(fields["target"])
	if !ok || !validTarget(target) {
		return Goal{}, ErrInvalidTarget
	}

	title, ok := fields["title"].(string)
	if !ok {
		return Goal{}, ErrInvalidTitle
	}
	if len([]rune(title)) > MaxTitleLength {
		return Goal{}, ErrInvalidTitle
	}

	goal := Goal{
		Id:        e.id,
		Type:      goalType,
		Target:    sanitizeTarget(target),
		Title:     sanitizeTitle(title),
		CreatedAt: parseCreatedAt(fields["created_at"]),
	}
	return goal, nil
}

// parseCreatedAt accepts RFC3339 strings and unix seconds.
func parseCreatedAt(value any) time.Time {
	switch v := value.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err == nil {
			return parsed
		}
		seconds, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil && seconds > 0 {
			return time.Unix(seconds, 0).UTC()
		}
	case float64:
		if v > 0 && !math.IsInf(v, 0) {
			return time.Unix(int64(v), 0).UTC()
		}
	}
	return time.Time{}
}

// numeric accepts json numbers and strings holding a number.
func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// SaveToFile writes the collection as a pretty printed json object keyed by
// goal id.
func (s *Store) SaveToFile(path string) error {
	goals := s.List()
	serialized, err := json.MarshalIndent(goals, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(serialized, '\n'), 0644)
}
