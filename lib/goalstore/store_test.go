package goalstore

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"goalietron/lib/chrono"
	"goalietron/lib/telemetry"

	"github.com/bxcodec/faker/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *telemetry.RecordingAPI) {
	tel := telemetry.NewRecordingAPI()
	clock := chrono.NewFixedImpl(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewStore(clock, tel), tel
}

func writeGoalsFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "patreon-goals.json")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestCreate(t *testing.T) {
	store, _ := newTestStore()

	require.NoError(t, store.Create("patrons-100", TypePatrons, 100, "100 patrons"))
	require.ErrorIs(t, store.Create("bad-type", GoalType("followers"), 100, "x"), ErrInvalidType)
	require.ErrorIs(t, store.Create("zero", TypePosts, 0, "x"), ErrInvalidTarget)
	require.ErrorIs(t, store.Create("negative", TypeIncome, -5, "x"), ErrInvalidTarget)

	goals := store.List()
	require.Len(t, goals, 1)
	goal, ok := store.Get("patrons-100")
	require.True(t, ok)
	require.Equal(t, Goal{
		Id:        "patrons-100",
		Type:      TypePatrons,
		Target:    100,
		Title:     "100 patrons",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, goal)

	require.NoError(t, store.Create("patrons-100", TypeMembers, 20, "overwritten"))
	goal, _ = store.Get("patrons-100")
	require.Equal(t, TypeMembers, goal.Type)
	require.Equal(t, "overwritten", goal.Title)
	require.Len(t, store.List(), 1)
}

func TestCreateRejects(t *testing.T) {
	testCases := []struct {
		name     string
		id       string
		goalType GoalType
		target   float64
		title    string
		err      error
	}{
		{name: "space in id", id: "bad id!", goalType: TypePatrons, target: 10, title: "x", err: ErrInvalidId},
		{name: "empty id", id: "", goalType: TypePatrons, target: 10, title: "x", err: ErrInvalidId},
		{name: "markup in id", id: "goal-<script>", goalType: TypePatrons, target: 10, title: "x", err: ErrInvalidId},
		{name: "nan target", id: "nan", goalType: TypePatrons, target: math.NaN(), title: "x", err: ErrInvalidTarget},
		{name: "infinite target", id: "inf", goalType: TypeIncome, target: math.Inf(1), title: "x", err: ErrInvalidTarget},
		{name: "title too long", id: "long", goalType: TypePosts, target: 10, title: strings.Repeat("A", 300), err: ErrInvalidTitle},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			store, _ := newTestStore()
			err := store.Create(test.id, test.goalType, test.target, test.title)
			require.ErrorIs(t, err, test.err)
			require.Empty(t, store.List())
		})
	}
}

func TestCreateSanitizes(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Create("pad", TypeIncome, 250.75, "  padded  "))
	require.NoError(t, store.Create("tiny", TypePosts, 0.5, strings.Repeat("B", 255)+"   "))

	goal, _ := store.Get("pad")
	require.Equal(t, "padded", goal.Title)
	require.Equal(t, float64(250), goal.Target)

	goal, _ = store.Get("tiny")
	require.Equal(t, float64(1), goal.Target)
	require.Len(t, goal.Title, 255)

	path := filepath.Join(t.TempDir(), "patreon-goals.json")
	require.NoError(t, store.SaveToFile(path))

	loaded, _ := newTestStore()
	result, err := loaded.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, LoadResult{Accepted: 2}, result)
	require.Empty(t, cmp.Diff(store.List(), loaded.List()))
}

func TestRemove(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Create("a", TypePosts, 10, "a"))

	require.True(t, store.Remove("a"))
	require.False(t, store.Remove("a"))
	require.False(t, store.Remove("never-existed"))
	require.Empty(t, store.List())
}

func TestListIsACopy(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Create("a", TypePosts, 10, "a"))

	goals := store.List()
	delete(goals, "a")
	goals["b"] = Goal{Id: "b"}

	_, ok := store.Get("a")
	require.True(t, ok)
	_, ok = store.Get("b")
	require.False(t, ok)
}

func TestLoadValidation(t *testing.T) {
	valid := `"valid-goal": {"type": "patrons", "target": 100, "title": "Valid"}`

	testCases := []struct {
		name    string
		invalid string
		id      string
	}{
		{
			name:    "missing fields",
			id:      "bad-goal",
			invalid: `"bad-goal": {"type": "patrons"}`,
		},
		{
			name:    "unknown type",
			id:      "xss-goal",
			invalid: `"xss-goal": {"type": "<script>alert(1)</script>", "target": 100, "title": "t"}`,
		},
		{
			name:    "negative target",
			id:      "negative-goal",
			invalid: `"negative-goal": {"type": "patrons", "target": -100, "title": "t"}`,
		},
		{
			name:    "zero target",
			id:      "zero-goal",
			invalid: `"zero-goal": {"type": "posts", "target": 0, "title": "t"}`,
		},
		{
			name:    "non numeric target",
			id:      "word-goal",
			invalid: `"word-goal": {"type": "posts", "target": "lots", "title": "t"}`,
		},
		{
			name:    "infinite target",
			id:      "inf-goal",
			invalid: `"inf-goal": {"type": "patrons", "target": Infinity, "title": "t"}`,
		},
		{
			name:    "nan target",
			id:      "nan-goal",
			invalid: `"nan-goal": {"type": "patrons", "target": NaN, "title": "t"}`,
		},
		{
			name:    "special characters in id",
			id:      "goal-<script>",
			invalid: `"goal-<script>": {"type": "patrons", "target": 100, "title": "t"}`,
		},
		{
			name:    "title too long",
			id:      "long-goal",
			invalid: `"long-goal": {"type": "patrons", "target": 100, "title": "` + strings.Repeat("A", 256) + `"}`,
		},
		{
			name:    "title not a string",
			id:      "number-title",
			invalid: `"number-title": {"type": "patrons", "target": 100, "title": 5}`,
		},
		{
			name:    "entry not an object",
			id:      "scalar",
			invalid: `"scalar": 42`,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			store, tel := newTestStore()
			path := writeGoalsFile(t, "{"+valid+", "+test.invalid+"}")

			result, err := store.LoadFromFile(path)
			require.NoError(t, err)
			require.Equal(t, LoadResult{Accepted: 1, Dropped: 1}, result)

			goals := store.List()
			require.Contains(t, goals, "valid-goal")
			require.NotContains(t, goals, test.id)
			require.Equal(t, 1, tel.Count("warning", "goalstore: load.drop-entry"))
		})
	}
}

func TestLoadSanitizes(t *testing.T) {
	store, _ := newTestStore()
	title := strings.Repeat("A", 200)
	path := writeGoalsFile(t, `{
		"valid-goal": {"type": "patrons", "target": 100.5, "title": "`+title+`"},
		"tiny-goal": {"type": "income", "target": 0.25, "title": "  padded  "},
		"string-target": {"type": "members", "target": "40", "title": "members"},
	}`)

	result, err := store.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, result.Accepted)

	goal, ok := store.Get("valid-goal")
	require.True(t, ok)
	require.Equal(t, float64(100), goal.Target)
	require.Len(t, goal.Title, 200)

	goal, _ = store.Get("tiny-goal")
	require.Equal(t, float64(1), goal.Target)
	require.Equal(t, "padded", goal.Title)

	goal, _ = store.Get("string-target")
	require.Equal(t, float64(40), goal.Target)
}

func TestLoadCreatedAt(t *testing.T) {
	store, _ := newTestStore()
	path := writeGoalsFile(t, `{
		"rfc3339": {"type": "posts", "target": 5, "title": "t", "created_at": "2024-02-01T10:00:00Z"},
		"unix": {"type": "posts", "target": 5, "title": "t", "created_at": 1706781600},
		"unix-string": {"type": "posts", "target": 5, "title": "t", "created_at": "1706781600"},
		"garbage": {"type": "posts", "target": 5, "title": "t", "created_at": "yesterday"},
	}`)

	result, err := store.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 4, result.Accepted)

	expected := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"rfc3339", "unix", "unix-string"} {
		goal, _ := store.Get(id)
		require.True(t, expected.Equal(goal.CreatedAt), id)
	}
	goal, _ := store.Get("garbage")
	require.True(t, goal.CreatedAt.IsZero())
}

func TestLoadArrayForm(t *testing.T) {
	store, _ := newTestStore()
	path := writeGoalsFile(t, `[
		// hand edited
		{"id": "posts-50", "type": "posts", "target": 50, "title": "Fifty posts"},
		{"type": "posts", "target": 50, "title": "no id"},
		{"id": "bad id", "type": "posts", "target": 50, "title": "spaces"},
	]`)

	result, err := store.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, LoadResult{Accepted: 1, Dropped: 2}, result)

	goal, ok := store.Get("posts-50")
	require.True(t, ok)
	require.Equal(t, "Fifty posts", goal.Title)
}

func TestLoadFailures(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Create("kept", TypePosts, 10, "kept"))

	_, err := store.LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrGoalsFileNotFound)

	testCases := []string{
		`{"patrons-10": {"type": "patrons", "target": 100, "title": "Test Goal"`,
		`"just a string"`,
		`42`,
		`null`,
	}
	for _, content := range testCases {
		_, err := store.LoadFromFile(writeGoalsFile(t, content))
		require.ErrorIs(t, err, ErrInvalidGoalsFile, content)
	}

	// failed loads leave the collection untouched
	_, ok := store.Get("kept")
	require.True(t, ok)
}

func TestLoadReplacesCollection(t *testing.T) {
	store, _ := newTestStore()
	require.NoError(t, store.Create("old", TypePosts, 10, "old"))

	_, err := store.LoadFromFile(writeGoalsFile(t, `{"new": {"type": "posts", "target": 5, "title": "new"}}`))
	require.NoError(t, err)

	goals := store.List()
	require.Len(t, goals, 1)
	require.Contains(t, goals, "new")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore()
	types := []GoalType{TypePatrons, TypeMembers, TypePosts, TypeIncome}
	for i, goalType := range types {
		id := string(goalType) + "-goal"
		require.NoError(t, store.Create(id, goalType, float64((i+1)*25), faker.Sentence()))
	}

	path := filepath.Join(t.TempDir(), "patreon-goals.json")
	require.NoError(t, store.SaveToFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "\n  \"income-goal\": {")

	loaded, _ := newTestStore()
	result, err := loaded.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, LoadResult{Accepted: 4}, result)

	diff := cmp.Diff(store.List(), loaded.List())
	require.Empty(t, diff)
}
