package progress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
)

type stubSaver struct {
	fail  bool
	saved []progress.Attempt
}

func (s *stubSaver) SaveAttempt(_ context.Context, a progress.Attempt) (progress.Attempt, error) {
	if s.fail {
		return progress.Attempt{}, errors.New("store down")
	}
	s.saved = append(s.saved, a)
	return a, nil
}

func twoQuestionQuiz() course.Quiz {
	return course.Quiz{
		ID:         "q1",
		Title:      "AI in Marketing",
		Categories: []string{"digital-marketing"},
		Questions: course.Questions{
			{Prompt: "Pick D", Options: []string{"A", "B", "C", "D"}, Correct: 3},
			{Prompt: "Pick A", Options: []string{"A", "B"}, Correct: 0},
		},
	}
}

func TestScore(t *testing.T) {
	questions := twoQuestionQuiz().Questions

	tests := []struct {
		name       string
		selections []int
		want       int
	}{
		{"all correct", []int{3, 0}, 2},
		{"one correct", []int{3, 1}, 1},
		{"none correct", []int{0, 1}, 0},
		{"all unanswered", []int{progress.NoSelection, progress.NoSelection}, 0},
		{"partially unanswered", []int{progress.NoSelection, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progress.Score(questions, tt.selections))
		})
	}
}

func TestSession_Select(t *testing.T) {
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "u1")

	require.NoError(t, sess.Select(0, 3))
	require.NoError(t, sess.Select(1, 1))
	assert.Equal(t, []int{3, 1}, sess.Selections())

	// re-selecting overwrites
	require.NoError(t, sess.Select(1, 0))
	assert.Equal(t, []int{3, 0}, sess.Selections())

	// out of range
	assert.Equal(t, progress.ErrQuestionIndex, sess.Select(5, 0))
	assert.Equal(t, progress.ErrOptionIndex, sess.Select(0, 9))
}

func TestSession_Submit(t *testing.T) {
	saver := &stubSaver{}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "u1")

	require.NoError(t, sess.Select(0, 3))
	require.NoError(t, sess.Submit(context.Background(), saver))

	assert.True(t, sess.Submitted())
	score, total := sess.Score()
	assert.Equal(t, 1, score)
	assert.Equal(t, 2, total)
	assert.Equal(t, progress.SaveDone, sess.SaveState())
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "u1", saver.saved[0].UserID)
	assert.Equal(t, "q1", saver.saved[0].QuizID)
	assert.Equal(t, 1, saver.saved[0].Score)
	assert.Equal(t, 2, saver.saved[0].Total)

	// selections frozen once submitted
	require.NoError(t, sess.Select(1, 0))
	assert.Equal(t, []int{3, progress.NoSelection}, sess.Selections())

	// re-submitting is a no-op and saves nothing new
	require.NoError(t, sess.Submit(context.Background(), saver))
	assert.Len(t, saver.saved, 1)

	fb, err := sess.Feedback()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, fb)
}

func TestSession_Submit_concurrent(t *testing.T) {
	saver := &stubSaver{}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "u1")
	require.NoError(t, sess.Select(0, 3))

	// racing submits and selections on the same session: the submission
	// transitions once and exactly one attempt row lands
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sess.Submit(context.Background(), saver))
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sess.Select(1, 0))
		}()
	}
	wg.Wait()

	assert.True(t, sess.Submitted())
	assert.Equal(t, progress.SaveDone, sess.SaveState())
	assert.Len(t, saver.saved, 1)
}

func TestSession_Submit_allUnanswered(t *testing.T) {
	saver := &stubSaver{}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "u1")

	require.NoError(t, sess.Submit(context.Background(), saver))
	score, total := sess.Score()
	assert.Equal(t, 0, score)
	assert.Equal(t, 2, total)
}

func TestSession_Submit_emptyQuiz(t *testing.T) {
	saver := &stubSaver{}
	quiz := course.Quiz{ID: "empty"}
	sess := progress.NewSession("s1", quiz, "digital-marketing", "u1")

	err := sess.Submit(context.Background(), saver)
	assert.Equal(t, progress.ErrEmptyQuiz, err)
	assert.False(t, sess.Submitted()) // no state transition
	assert.Empty(t, saver.saved)      // 0/0 never persisted
}

func TestSession_Submit_anonymousNeverSaves(t *testing.T) {
	saver := &stubSaver{}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "")

	require.NoError(t, sess.Submit(context.Background(), saver))
	assert.True(t, sess.Submitted())
	assert.Equal(t, progress.SaveNone, sess.SaveState())
	assert.Empty(t, saver.saved)
}

func TestSession_Submit_noCourseContextNeverSaves(t *testing.T) {
	saver := &stubSaver{}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "", "u1")

	require.NoError(t, sess.Submit(context.Background(), saver))
	assert.Equal(t, progress.SaveNone, sess.SaveState())
	assert.Empty(t, saver.saved)
}

func TestSession_RetrySave(t *testing.T) {
	saver := &stubSaver{fail: true}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "u1")
	require.NoError(t, sess.Select(0, 3))

	// submit transitions even when the save fails
	err := sess.Submit(context.Background(), saver)
	require.Error(t, err)
	assert.True(t, sess.Submitted())
	score, _ := sess.Score()
	assert.Equal(t, 1, score)
	assert.Equal(t, progress.SaveFailed, sess.SaveState())

	// retry succeeds once the store recovers; exactly one row lands
	saver.fail = false
	require.NoError(t, sess.RetrySave(context.Background(), saver))
	assert.Equal(t, progress.SaveDone, sess.SaveState())
	require.Len(t, saver.saved, 1)

	// nothing left to retry
	assert.Equal(t, progress.ErrNothingToRetry, sess.RetrySave(context.Background(), saver))
	assert.Len(t, saver.saved, 1)
}

func TestSession_Retake(t *testing.T) {
	saver := &stubSaver{}
	sess := progress.NewSession("s1", twoQuestionQuiz(), "digital-marketing", "u1")

	require.NoError(t, sess.Select(0, 3))
	require.NoError(t, sess.Select(1, 0))
	require.NoError(t, sess.Submit(context.Background(), saver))
	score, _ := sess.Score()
	assert.Equal(t, 2, score)

	sess.Retake()
	assert.False(t, sess.Submitted())
	assert.Equal(t, progress.SaveNone, sess.SaveState())
	assert.Equal(t, []int{progress.NoSelection, progress.NoSelection}, sess.Selections())

	// second run scores independently of the first attempt's selections
	require.NoError(t, sess.Select(0, 1))
	require.NoError(t, sess.Submit(context.Background(), saver))
	score, total := sess.Score()
	assert.Equal(t, 0, score)
	assert.Equal(t, 2, total)

	// retake cleared the save guard: a second attempt row is stored
	assert.Len(t, saver.saved, 2)
}

func TestSessionStore(t *testing.T) {
	store := progress.NewSessionStore()
	sess := store.Start(twoQuestionQuiz(), "digital-marketing", "u1")
	require.NotEmpty(t, sess.ID)

	got, err := store.Get(sess.ID, "u1")
	require.NoError(t, err)
	assert.Same(t, sess, got)

	// sessions are not shared between users
	_, err = store.Get(sess.ID, "u2")
	assert.Equal(t, progress.ErrSessionNotFound, err)

	store.Delete(sess.ID)
	_, err = store.Get(sess.ID, "u1")
	assert.Equal(t, progress.ErrSessionNotFound, err)
}

func TestSessionStore_expiry(t *testing.T) {
	store := progress.NewSessionStore(30 * time.Millisecond)
	sess := store.Start(twoQuestionQuiz(), "digital-marketing", "u1")

	// a hit within the TTL slides it forward
	time.Sleep(20 * time.Millisecond)
	_, err := store.Get(sess.ID, "u1")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = store.Get(sess.ID, "u1")
	require.NoError(t, err)

	// idle past the TTL, the session is gone
	time.Sleep(40 * time.Millisecond)
	_, err = store.Get(sess.ID, "u1")
	assert.Equal(t, progress.ErrSessionNotFound, err)

	// starting a session sweeps expired entries so the store stays bounded
	store.Start(twoQuestionQuiz(), "digital-marketing", "u1")
	time.Sleep(40 * time.Millisecond)
	store.Start(twoQuestionQuiz(), "digital-marketing", "u2")
	assert.Equal(t, 1, store.Len())
}
