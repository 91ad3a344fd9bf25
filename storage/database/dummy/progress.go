package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/progress"
)

type ProgressRepository struct {
	activity       *activityTable
	courseProgress *courseProgressTable
	attempts       *attemptTable

	// WriteErr, when set, is returned by all write operations;
	// used by tests to exercise failure paths.
	WriteErr error
}

var _ progress.Repository = (*ProgressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{
		activity:       db.activity,
		courseProgress: db.courseProgress,
		attempts:       db.attempts,
	}
}

func activityPK(userID, courseID string, typ progress.ActivityType, activityID string) string {
	return userID + "|" + courseID + "|" + progress.ActivityKey(typ, activityID)
}

func coursePK(userID, courseID string) string {
	return userID + "|" + courseID
}

func (repo *ProgressRepository) UpsertActivityCompletion(_ context.Context, c progress.Completion) error {
	if repo.WriteErr != nil {
		return repo.WriteErr
	}
	repo.activity.Lock()
	defer repo.activity.Unlock()

	repo.activity.table[activityPK(c.UserID, c.CourseID, c.ActivityType, c.ActivityID)] = &c
	return nil
}

func (repo *ProgressRepository) QueryActivityCompletions(_ context.Context, userID, courseID string) ([]progress.Completion, error) {
	repo.activity.RLock()
	defer repo.activity.RUnlock()

	completions := make([]progress.Completion, 0)
	for _, c := range repo.activity.table {
		if c.UserID == userID && c.CourseID == courseID {
			completions = append(completions, *c)
		}
	}
	return completions, nil
}

func (repo *ProgressRepository) GetCourseCompletion(_ context.Context, userID, courseID string) (progress.CourseCompletion, error) {
	repo.courseProgress.RLock()
	defer repo.courseProgress.RUnlock()

	if cc, ok := repo.courseProgress.table[coursePK(userID, courseID)]; ok {
		return *cc, nil
	}
	return progress.CourseCompletion{}, progress.ErrCompletionNotFound
}

func (repo *ProgressRepository) UpsertCourseCompletion(_ context.Context, cc progress.CourseCompletion) error {
	if repo.WriteErr != nil {
		return repo.WriteErr
	}
	repo.courseProgress.Lock()
	defer repo.courseProgress.Unlock()

	repo.courseProgress.table[coursePK(cc.UserID, cc.CourseID)] = &cc
	return nil
}

// CourseCompletionCount reports the number of stored course completion rows; test helper.
func (repo *ProgressRepository) CourseCompletionCount() int {
	repo.courseProgress.RLock()
	defer repo.courseProgress.RUnlock()
	return len(repo.courseProgress.table)
}

// ActivityCompletionCount reports the number of stored activity rows; test helper.
func (repo *ProgressRepository) ActivityCompletionCount() int {
	repo.activity.RLock()
	defer repo.activity.RUnlock()
	return len(repo.activity.table)
}

func (repo *ProgressRepository) CreateAttempt(_ context.Context, a progress.Attempt) (progress.Attempt, error) {
	if repo.WriteErr != nil {
		return progress.Attempt{}, repo.WriteErr
	}
	repo.attempts.Lock()
	defer repo.attempts.Unlock()

	a.ID = uuid.New().String()
	repo.attempts.rows = append(repo.attempts.rows, a)
	return a, nil
}

func (repo *ProgressRepository) QueryAttemptsByUser(_ context.Context, userID string) ([]progress.Attempt, error) {
	repo.attempts.RLock()
	defer repo.attempts.RUnlock()

	attempts := make([]progress.Attempt, 0)
	for _, a := range repo.attempts.rows {
		if a.UserID == userID {
			attempts = append(attempts, a)
		}
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].TakenAt.After(attempts[j].TakenAt) })
	return attempts, nil
}
