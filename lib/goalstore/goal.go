package goalstore

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

type GoalType string

const (
	TypePatrons GoalType = "patrons"
	TypeMembers GoalType = "members"
	TypePosts   GoalType = "posts"
	TypeIncome  GoalType = "income"
)

const MaxTitleLength = 255

var (
	ErrInvalidType       = errors.New("goalstore: invalid goal type")
	ErrInvalidTarget     = errors.New("goalstore: goal target must be greater than 0")
	ErrInvalidId         = errors.New("goalstore: goal id may only contain letters, digits, '_' and '-'")
	ErrInvalidTitle      = errors.New("goalstore: goal title must be a string of at most 255 characters")
	ErrGoalsFileNotFound = errors.New("goalstore: goals file not found")
	ErrInvalidGoalsFile  = errors.New("goalstore: goals file is not a json object or array")
)

var validId = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func ParseGoalType(value string) (GoalType, error) {
	switch t := GoalType(value); t {
	case TypePatrons, TypeMembers, TypePosts, TypeIncome:
		return t, nil
	}
	return "", ErrInvalidType
}

type Goal struct {
	Id        string    `json:"id"`
	Type      GoalType  `json:"type"`
	Target    float64   `json:"target"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func sanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	return string([]rune(title)[:MaxTitleLength])
}

func validTarget(target float64) bool {
	return target > 0 && !math.IsInf(target, 0)
}

// sanitizeTarget truncates the target to a whole number no smaller than 1.
// Callers reject non-finite targets first.
func sanitizeTarget(target float64) float64 {
	if math.IsNaN(target) {
		return 1
	}
	whole := math.Trunc(target)
	if whole < 1 {
		return 1
	}
	return whole
}
