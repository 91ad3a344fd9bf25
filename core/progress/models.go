package progress

import (
	"time"

	"github.com/pkg/errors"
)

// ActivityType discriminates the two completable activity variants.
// A media item and a quiz may share an id string without colliding:
// activity identity is the (type, id) pair.
type ActivityType string

const (
	ActivityMedia ActivityType = "media"
	ActivityQuiz  ActivityType = "quiz"
)

var ErrInvalidActivityType = errors.New("invalid activity type")

func (t ActivityType) Validate() error {
	switch t {
	case ActivityMedia, ActivityQuiz:
		return nil
	}
	return ErrInvalidActivityType
}

// ActivityKey returns the completion-map key for an activity: "<type>:<id>".
func ActivityKey(typ ActivityType, activityID string) string {
	return string(typ) + ":" + activityID
}

// CompletionMap is the sparse set of activities known to be complete for a
// (user, course). It only ever contains `true` entries; absence means
// "not complete".
type CompletionMap map[string]bool

func (m CompletionMap) Complete(typ ActivityType, activityID string) bool {
	return m[ActivityKey(typ, activityID)]
}

// Completion records completion of a single activity by a user.
// At most one record exists per (user, course, activity id, activity type);
// re-marking only refreshes CompletedAt.
type Completion struct {
	UserID       string       `json:"user_id"`
	CourseID     string       `json:"course_id"`
	ActivityID   string       `json:"activity_id"`
	ActivityType ActivityType `json:"activity_type"`
	CompletedAt  time.Time    `json:"completed_at"` // UTC
}

// CourseCompletion records whole-course completion; at most one record per
// (user, course), never revoked once set.
type CourseCompletion struct {
	UserID      string    `json:"user_id"`
	CourseID    string    `json:"course_id"`
	CompletedAt time.Time `json:"completed_at"` // UTC
}

// Attempt is one scored quiz submission; attempts are append-only.
type Attempt struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	CourseID string    `json:"course_id"`
	QuizID   string    `json:"quiz_id"`
	Score    int       `json:"score"`
	Total    int       `json:"total"`
	TakenAt  time.Time `json:"taken_at"` // UTC
}
