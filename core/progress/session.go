package progress

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
)

// NoSelection marks an unanswered question.
const NoSelection = -1

// SaveState tracks attempt persistence for one submission event: an attempt
// is saved at most once, a retry is only legal after a failed save, and a
// retake resets the guard.
type SaveState int

const (
	SaveNone SaveState = iota
	SavePending
	SaveDone
	SaveFailed
)

var saveStateNames = map[SaveState]string{
	SaveNone:    "none",
	SavePending: "pending",
	SaveDone:    "done",
	SaveFailed:  "failed",
}

func (s SaveState) String() string { return saveStateNames[s] }

var (
	// errors
	ErrEmptyQuiz       = errors.New("quiz has no questions")
	ErrNotSubmitted    = errors.New("quiz not submitted")
	ErrQuestionIndex   = errors.New("question index out of range")
	ErrOptionIndex     = errors.New("option index out of range")
	ErrNothingToRetry  = errors.New("no failed save to retry")
	ErrSessionNotFound = errors.New("quiz session not found")
)

// Score counts the positions where the selection matches the question's
// answer index. An unanswered question never counts as correct.
func Score(questions course.Questions, selections []int) int {
	var score int
	for i, q := range questions {
		if i < len(selections) && selections[i] == q.Correct {
			score++
		}
	}
	return score
}

// Session is one user's in-progress run of a quiz.
//
// Unsubmitted: selections are mutable, one per question, re-selecting
// overwrites. Submitted: selections are frozen, per-question feedback and the
// total score are available; selecting is a no-op. Retake returns to
// Unsubmitted with everything cleared, permitting a new attempt to be saved.
//
// A session is served to concurrent requests; its methods serialize on an
// internal mutex so racing submits still transition once and store one attempt.
type Session struct {
	ID       string
	Quiz     course.Quiz
	CourseID string // empty outside a course context
	UserID   string // empty for anonymous runs

	mu         sync.Mutex
	selections []int
	submitted  bool
	score      int
	saveState  SaveState
}

func NewSession(id string, quiz course.Quiz, courseID, userID string) *Session {
	s := &Session{
		ID:       id,
		Quiz:     quiz,
		CourseID: courseID,
		UserID:   userID,
	}
	s.resetSelections()
	return s
}

func (s *Session) resetSelections() {
	s.selections = make([]int, len(s.Quiz.Questions))
	for i := range s.selections {
		s.selections[i] = NoSelection
	}
}

// Select records the user's choice for a question. No-op once submitted.
func (s *Session) Select(question, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return nil
	}
	if question < 0 || question >= len(s.Quiz.Questions) {
		return ErrQuestionIndex
	}
	if option < 0 || option >= len(s.Quiz.Questions[question].Options) {
		return ErrOptionIndex
	}
	s.selections[question] = option
	return nil
}

// Selections returns a copy of the current selections.
func (s *Session) Selections() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, len(s.selections))
	copy(out, s.selections)
	return out
}

func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Session) SaveState() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveState
}

// Score returns the (score, total) computed at submission time.
func (s *Session) Score() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, len(s.Quiz.Questions)
}

// Feedback returns per-question correctness; only valid once submitted.
func (s *Session) Feedback() ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.submitted {
		return nil, ErrNotSubmitted
	}
	fb := make([]bool, len(s.Quiz.Questions))
	for i, q := range s.Quiz.Questions {
		fb[i] = s.selections[i] == q.Correct
	}
	return fb, nil
}

// AttemptSaver persists a scored attempt.
type AttemptSaver interface {
	SaveAttempt(ctx context.Context, a Attempt) (Attempt, error)
}

// Submit freezes the selections and computes the score. When the session has
// an owning course and an authenticated user, and no attempt has been saved
// for this session yet, exactly one attempt is persisted. The Submitted state
// and score never depend on persistence success: a failed save leaves the
// session Submitted with SaveFailed so RetrySave can try again without double
// counting. Submitting an already-submitted session is a no-op.
func (s *Session) Submit(ctx context.Context, saver AttemptSaver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return nil
	}
	if len(s.Quiz.Questions) == 0 {
		// 0/0 is never presented as completable nor persisted
		return ErrEmptyQuiz
	}

	s.submitted = true
	s.score = Score(s.Quiz.Questions, s.selections)

	if s.UserID == "" || s.CourseID == "" || s.saveState != SaveNone {
		return nil
	}
	return s.save(ctx, saver)
}

// RetrySave re-attempts persistence after a transient failure.
func (s *Session) RetrySave(ctx context.Context, saver AttemptSaver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.submitted {
		return ErrNotSubmitted
	}
	if s.saveState != SaveFailed {
		return ErrNothingToRetry
	}
	return s.save(ctx, saver)
}

// save persists the attempt; callers must hold s.mu.
func (s *Session) save(ctx context.Context, saver AttemptSaver) error {
	s.saveState = SavePending
	_, err := saver.SaveAttempt(ctx, Attempt{
		UserID:   s.UserID,
		CourseID: s.CourseID,
		QuizID:   s.Quiz.ID,
		Score:    s.score,
		Total:    len(s.Quiz.Questions),
	})
	if err != nil {
		s.saveState = SaveFailed
		return errors.Wrap(err, "saving quiz attempt")
	}
	s.saveState = SaveDone
	return nil
}

// Retake clears all selections, the submitted flag and the save guard,
// so the next submission computes a fresh score and stores a new attempt.
func (s *Session) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetSelections()
	s.submitted = false
	s.score = 0
	s.saveState = SaveNone
}
