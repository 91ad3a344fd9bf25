package progress_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

type mailRecorder struct {
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type testEnv struct {
	svc       *progress.Service
	repo      *dummydb.ProgressRepository
	courseSvc *course.Service
	mail      *mailRecorder
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	repo := dummydb.NewProgressRepository(db)
	courseSvc := course.NewService(dummydb.NewMediaRepository(db), dummydb.NewQuizRepository(db))
	mailRec := &mailRecorder{}
	return testEnv{
		svc:       progress.NewService(repo, courseSvc, mailRec),
		repo:      repo,
		courseSvc: courseSvc,
		mail:      mailRec,
	}
}

func createMedia(t *testing.T, svc *course.Service, courseID, title string) course.Media {
	t.Helper()
	m, err := svc.CreateMedia(context.Background(), course.NewMedia{
		CourseID: courseID,
		Kind:     course.MediaVideo,
		Title:    title,
		URL:      "https://youtu.be/" + title,
	})
	require.NoError(t, err)
	return m
}

func createQuiz(t *testing.T, svc *course.Service, title string, categories ...string) course.Quiz {
	t.Helper()
	correct := 3
	q, err := svc.CreateQuiz(context.Background(), course.NewQuiz{
		Title:      title,
		Categories: categories,
		Questions: []course.NewQuestion{
			{Prompt: "Pick D", Options: []string{"A", "B", "C", "D"}, Correct: &correct},
		},
	})
	require.NoError(t, err)
	return q
}

func TestService_CompletionMap_empty(t *testing.T) {
	env := setup(t)

	cmap, err := env.svc.CompletionMap(context.Background(), "u1", "digital-marketing")
	require.NoError(t, err)
	assert.Empty(t, cmap)
}

func TestService_MarkComplete_idempotent(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	cmap, err := env.svc.MarkComplete(ctx, "u1", "digital-marketing", "m1", progress.ActivityMedia)
	require.NoError(t, err)
	assert.True(t, cmap.Complete(progress.ActivityMedia, "m1"))
	assert.Equal(t, 1, env.repo.ActivityCompletionCount())

	first, err := env.repo.QueryActivityCompletions(ctx, "u1", "digital-marketing")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// re-marking refreshes the timestamp, never duplicates
	cmap, err = env.svc.MarkComplete(ctx, "u1", "digital-marketing", "m1", progress.ActivityMedia)
	require.NoError(t, err)
	assert.True(t, cmap.Complete(progress.ActivityMedia, "m1"))
	assert.Equal(t, 1, env.repo.ActivityCompletionCount())

	second, err := env.repo.QueryActivityCompletions(ctx, "u1", "digital-marketing")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.False(t, second[0].CompletedAt.Before(first[0].CompletedAt))
}

func TestService_MarkComplete_invalidType(t *testing.T) {
	env := setup(t)

	_, err := env.svc.MarkComplete(context.Background(), "u1", "digital-marketing", "m1", "bogus")
	assert.Equal(t, progress.ErrInvalidActivityType, err)
}

func TestService_MarkComplete_typeNamespaces(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	// a media item and a quiz sharing an id string do not collide
	_, err := env.svc.MarkComplete(ctx, "u1", "digital-marketing", "x1", progress.ActivityMedia)
	require.NoError(t, err)
	cmap, err := env.svc.MarkComplete(ctx, "u1", "digital-marketing", "x1", progress.ActivityQuiz)
	require.NoError(t, err)

	assert.Equal(t, 2, env.repo.ActivityCompletionCount())
	assert.True(t, cmap.Complete(progress.ActivityMedia, "x1"))
	assert.True(t, cmap.Complete(progress.ActivityQuiz, "x1"))
}

func TestIsCourseComplete(t *testing.T) {
	tests := []struct {
		name     string
		mediaIDs []string
		quizIDs  []string
		cmap     progress.CompletionMap
		want     bool
	}{
		{"zero activities never complete", nil, nil, progress.CompletionMap{"media:A": true}, false},
		{"partial", []string{"A"}, []string{"Q"}, progress.CompletionMap{"media:A": true}, false},
		{"all complete", []string{"A"}, []string{"Q"}, progress.CompletionMap{"media:A": true, "quiz:Q": true}, true},
		{"empty map", []string{"A"}, nil, progress.CompletionMap{}, false},
		{"wrong namespace", []string{"A"}, nil, progress.CompletionMap{"quiz:A": true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progress.IsCourseComplete(tt.mediaIDs, tt.quizIDs, tt.cmap))
		})
	}
}

func TestService_SyncCourseCompletion(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := user.User{ID: "u1", Username: "jdoe", Email: "jdoe@test.com"}
	courseID := "digital-marketing"

	m1 := createMedia(t, env.courseSvc, courseID, "intro")
	m2 := createMedia(t, env.courseSvc, courseID, "deep-dive")
	quiz := createQuiz(t, env.courseSvc, "Final Quiz", courseID)

	// N-1 of N activities complete: no course completion
	_, err := env.svc.MarkComplete(ctx, usr.ID, courseID, m1.ID, progress.ActivityMedia)
	require.NoError(t, err)
	_, err = env.svc.MarkComplete(ctx, usr.ID, courseID, quiz.ID, progress.ActivityQuiz)
	require.NoError(t, err)

	completed, err := env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 0, env.repo.CourseCompletionCount())
	assert.Empty(t, env.mail.sent)

	// the Nth activity triggers exactly one upsert
	_, err = env.svc.MarkComplete(ctx, usr.ID, courseID, m2.ID, progress.ActivityMedia)
	require.NoError(t, err)

	completed, err = env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 1, env.repo.CourseCompletionCount())
	require.Len(t, env.mail.sent, 1)
	assert.Equal(t, "course_completed", env.mail.sent[0].TemplateName)

	// re-triggering collapses to the same row, no second email
	completed, err = env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 1, env.repo.CourseCompletionCount())
	assert.Len(t, env.mail.sent, 1)
}

func TestService_SyncCourseCompletion_zeroActivities(t *testing.T) {
	env := setup(t)
	usr := user.User{ID: "u1"}

	completed, err := env.svc.SyncCourseCompletion(context.Background(), usr, "copywriting")
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 0, env.repo.CourseCompletionCount())
}

func TestService_SyncCourseCompletion_monotonic(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := user.User{ID: "u1"}
	courseID := "brand-strategy"

	m := createMedia(t, env.courseSvc, courseID, "only-one")
	_, err := env.svc.MarkComplete(ctx, usr.ID, courseID, m.ID, progress.ActivityMedia)
	require.NoError(t, err)

	completed, err := env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	require.True(t, completed)

	// adding a new activity later never revokes completion
	createMedia(t, env.courseSvc, courseID, "added-later")
	completed, err = env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestService_SyncCourseCompletion_upsertFailureRetries(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := user.User{ID: "u1", Email: "jdoe@test.com"}
	courseID := "social-media"

	m := createMedia(t, env.courseSvc, courseID, "clip")
	_, err := env.svc.MarkComplete(ctx, usr.ID, courseID, m.ID, progress.ActivityMedia)
	require.NoError(t, err)

	// transient store failure: not marked, no email
	env.repo.WriteErr = errors.New("store down")
	_, err = env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.Error(t, err)
	assert.Equal(t, 0, env.repo.CourseCompletionCount())
	assert.Empty(t, env.mail.sent)

	// the next qualifying call retries and succeeds
	env.repo.WriteErr = nil
	completed, err := env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 1, env.repo.CourseCompletionCount())
	assert.Len(t, env.mail.sent, 1)
}

func TestService_SaveAttempt(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	_, err := env.svc.SaveAttempt(ctx, progress.Attempt{UserID: "u1", QuizID: "q1", Score: 0, Total: 0})
	assert.Equal(t, progress.ErrEmptyAttempt, err)

	_, err = env.svc.SaveAttempt(ctx, progress.Attempt{UserID: "u1", QuizID: "q1", Score: 3, Total: 2})
	assert.Equal(t, progress.ErrInvalidScore, err)

	// attempts are append-only: a retake stores a second row
	a1, err := env.svc.SaveAttempt(ctx, progress.Attempt{UserID: "u1", CourseID: "digital-marketing", QuizID: "q1", Score: 1, Total: 2})
	require.NoError(t, err)
	a2, err := env.svc.SaveAttempt(ctx, progress.Attempt{UserID: "u1", CourseID: "digital-marketing", QuizID: "q1", Score: 2, Total: 2})
	require.NoError(t, err)
	assert.NotEqual(t, a1.ID, a2.ID)

	attempts, err := env.svc.Attempts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
}

// Full scenario: 1 media item + 1 quiz with 2 questions (answers [3,0]);
// submitting [3,1] scores 1/2 and saves one attempt; marking the media item
// then completes the course with exactly one completion row.
func TestCourseWorkflow(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := user.User{ID: "u1", Username: "jdoe", Email: "jdoe@test.com"}
	courseID := "digital-marketing"

	m := createMedia(t, env.courseSvc, courseID, "intro")
	ansD, ansA := 3, 0
	quiz, err := env.courseSvc.CreateQuiz(ctx, course.NewQuiz{
		Title:      "Checkpoint",
		Categories: []string{courseID},
		Questions: []course.NewQuestion{
			{Prompt: "Pick D", Options: []string{"A", "B", "C", "D"}, Correct: &ansD},
			{Prompt: "Pick A", Options: []string{"A", "B"}, Correct: &ansA},
		},
	})
	require.NoError(t, err)

	sess := progress.NewSession("s1", quiz, courseID, usr.ID)
	require.NoError(t, sess.Select(0, 3))
	require.NoError(t, sess.Select(1, 1))
	require.NoError(t, sess.Submit(ctx, env.svc))

	score, total := sess.Score()
	assert.Equal(t, 1, score)
	assert.Equal(t, 2, total)
	attempts, err := env.svc.Attempts(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	// submitting within a course context marks the quiz activity complete
	_, err = env.svc.MarkComplete(ctx, usr.ID, courseID, quiz.ID, progress.ActivityQuiz)
	require.NoError(t, err)
	completed, err := env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.False(t, completed)

	cmap, err := env.svc.MarkComplete(ctx, usr.ID, courseID, m.ID, progress.ActivityMedia)
	require.NoError(t, err)
	assert.True(t, cmap.Complete(progress.ActivityMedia, m.ID))
	assert.True(t, cmap.Complete(progress.ActivityQuiz, quiz.ID))

	completed, err = env.svc.SyncCourseCompletion(ctx, usr, courseID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 1, env.repo.CourseCompletionCount())
}
