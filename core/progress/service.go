package progress

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrCompletionNotFound = errors.New("course completion not found")
	ErrEmptyAttempt       = errors.New("an attempt needs at least one question")
	ErrInvalidScore       = errors.New("score out of range")
)

type (
	Repository interface {
		// UpsertActivityCompletion inserts or refreshes the record keyed by
		// (user_id, course_id, activity_id, activity_type).
		UpsertActivityCompletion(ctx context.Context, c Completion) error
		QueryActivityCompletions(ctx context.Context, userID, courseID string) ([]Completion, error)

		// GetCourseCompletion returns ErrCompletionNotFound when the course
		// has not been completed by the user.
		GetCourseCompletion(ctx context.Context, userID, courseID string) (CourseCompletion, error)
		// UpsertCourseCompletion inserts or refreshes the record keyed by
		// (user_id, course_id); repeated triggers collapse to the same row.
		UpsertCourseCompletion(ctx context.Context, cc CourseCompletion) error

		CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
		// QueryAttemptsByUser returns attempts newest first.
		QueryAttemptsByUser(ctx context.Context, userID string) ([]Attempt, error)
	}

	// Catalog supplies the full activity set of a course.
	Catalog interface {
		CourseActivities(ctx context.Context, courseID string) (mediaIDs, quizIDs []string, err error)
		CourseTitle(courseID string) string
	}

	Service struct {
		repo    Repository
		catalog Catalog
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, catalog Catalog, mailSvc core.EmailService) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		mailSvc: mailSvc,
	}
}

// CompletionMap loads the sparse completion map for (user, course).
func (svc *Service) CompletionMap(ctx context.Context, userID, courseID string) (CompletionMap, error) {
	completions, err := svc.repo.QueryActivityCompletions(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying activity completions")
	}
	cmap := make(CompletionMap, len(completions))
	for _, c := range completions {
		cmap[ActivityKey(c.ActivityType, c.ActivityID)] = true
	}
	return cmap, nil
}

// MarkComplete upserts a completion record for the activity and returns the
// freshly reloaded map, so dependent checks never observe a stale read after
// a successful write. On failure the stored map is untouched.
func (svc *Service) MarkComplete(ctx context.Context, userID, courseID, activityID string, typ ActivityType) (CompletionMap, error) {
	if err := typ.Validate(); err != nil {
		return nil, err
	}
	c := Completion{
		UserID:       userID,
		CourseID:     courseID,
		ActivityID:   activityID,
		ActivityType: typ,
		CompletedAt:  time.Now().UTC(),
	}
	if err := svc.repo.UpsertActivityCompletion(ctx, c); err != nil {
		return nil, errors.Wrap(err, "upserting activity completion")
	}
	return svc.CompletionMap(ctx, userID, courseID)
}

// IsCourseComplete reports whether every activity of the course is present in
// the completion map. A course with zero activities is never complete.
func IsCourseComplete(mediaIDs, quizIDs []string, cmap CompletionMap) bool {
	if len(mediaIDs)+len(quizIDs) == 0 {
		return false
	}
	for _, id := range mediaIDs {
		if !cmap.Complete(ActivityMedia, id) {
			return false
		}
	}
	for _, id := range quizIDs {
		if !cmap.Complete(ActivityQuiz, id) {
			return false
		}
	}
	return true
}

// CourseCompleted reports whether a course completion record exists.
func (svc *Service) CourseCompleted(ctx context.Context, userID, courseID string) (bool, error) {
	if _, err := svc.repo.GetCourseCompletion(ctx, userID, courseID); err != nil {
		if errors.Cause(err) == ErrCompletionNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "getting course completion")
	}
	return true, nil
}

// SyncCourseCompletion re-derives whole-course completion for (user, course)
// and upserts a completion record on the first transition to complete.
// Completion is monotonic: once a record exists the catalog is never
// re-evaluated, even if activities are later added (product decision).
// The catalog and completion map are both loaded before the check so a
// partial view can never produce a false positive.
func (svc *Service) SyncCourseCompletion(ctx context.Context, usr user.User, courseID string) (bool, error) {
	completed, err := svc.CourseCompleted(ctx, usr.ID, courseID)
	if err != nil {
		return false, err
	}
	if completed {
		return true, nil
	}

	mediaIDs, quizIDs, err := svc.catalog.CourseActivities(ctx, courseID)
	if err != nil {
		return false, errors.Wrap(err, "loading course activities")
	}
	cmap, err := svc.CompletionMap(ctx, usr.ID, courseID)
	if err != nil {
		return false, err
	}
	if !IsCourseComplete(mediaIDs, quizIDs, cmap) {
		return false, nil
	}

	cc := CourseCompletion{
		UserID:      usr.ID,
		CourseID:    courseID,
		CompletedAt: time.Now().UTC(),
	}
	// on failure, no local flag is set: the next qualifying call retries
	if err = svc.repo.UpsertCourseCompletion(ctx, cc); err != nil {
		return false, errors.Wrap(err, "upserting course completion")
	}

	if usr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Course completed!",
			TemplateName: "course_completed",
			TemplateData: struct{ Username, CourseTitle string }{usr.Username, svc.catalog.CourseTitle(courseID)},
		})
	}
	return true, nil
}

// SaveAttempt appends a new attempt row; every submission creates a new record.
func (svc *Service) SaveAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	if a.Total <= 0 {
		return Attempt{}, ErrEmptyAttempt
	}
	if a.Score < 0 || a.Score > a.Total {
		return Attempt{}, ErrInvalidScore
	}
	if a.TakenAt.IsZero() {
		a.TakenAt = time.Now().UTC()
	}
	return svc.repo.CreateAttempt(ctx, a)
}

// Attempts returns the user's attempt history, newest first.
func (svc *Service) Attempts(ctx context.Context, userID string) ([]Attempt, error) {
	return svc.repo.QueryAttemptsByUser(ctx, userID)
}
