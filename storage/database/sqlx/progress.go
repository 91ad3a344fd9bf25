package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/progress"
)

// attempts are served newest first
var attemptOrdering = core.DBOrdering{Field: "taken_at"}

// dbCompletion mirrors the activity_progress table.
type dbCompletion struct {
	UserID       string    `db:"user_id"`
	CourseID     string    `db:"course_id"`
	ActivityID   string    `db:"activity_id"`
	ActivityType string    `db:"activity_type"`
	CompletedAt  time.Time `db:"completed_at"`
}

// dbAttempt mirrors the quiz_scores table.
type dbAttempt struct {
	ID       string    `db:"id"`
	UserID   string    `db:"user_id"`
	CourseID string    `db:"course_id"`
	QuizID   string    `db:"quiz_id"`
	Score    int       `db:"score"`
	Total    int       `db:"total"`
	TakenAt  time.Time `db:"taken_at"`
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) UpsertActivityCompletion(ctx context.Context, c progress.Completion) error {
	query := `
INSERT INTO activity_progress (user_id, course_id, activity_id, activity_type, completed_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, course_id, activity_id, activity_type)
DO UPDATE SET completed_at = EXCLUDED.completed_at`
	_, err := repo.db.ExecContext(ctx, query, c.UserID, c.CourseID, c.ActivityID, string(c.ActivityType), c.CompletedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "upserting activity completion")
	}
	return nil
}

func (repo *progressRepository) QueryActivityCompletions(ctx context.Context, userID, courseID string) ([]progress.Completion, error) {
	var rows []dbCompletion
	query := `
SELECT user_id, course_id, activity_id, activity_type, completed_at
FROM activity_progress
WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.SelectContext(ctx, &rows, query, userID, courseID); err != nil {
		return nil, errors.Wrap(err, "querying activity completions")
	}
	completions := make([]progress.Completion, 0, len(rows))
	for _, row := range rows {
		completions = append(completions, progress.Completion{
			UserID:       row.UserID,
			CourseID:     row.CourseID,
			ActivityID:   row.ActivityID,
			ActivityType: progress.ActivityType(row.ActivityType),
			CompletedAt:  row.CompletedAt,
		})
	}
	return completions, nil
}

func (repo *progressRepository) GetCourseCompletion(ctx context.Context, userID, courseID string) (progress.CourseCompletion, error) {
	var row struct {
		UserID      string    `db:"user_id"`
		CourseID    string    `db:"course_id"`
		CompletedAt time.Time `db:"completed_at"`
	}
	query := `SELECT user_id, course_id, completed_at FROM course_progress WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return progress.CourseCompletion{}, progress.ErrCompletionNotFound
		}
		return progress.CourseCompletion{}, errors.Wrap(err, "finding course completion")
	}
	return progress.CourseCompletion{UserID: row.UserID, CourseID: row.CourseID, CompletedAt: row.CompletedAt}, nil
}

func (repo *progressRepository) UpsertCourseCompletion(ctx context.Context, cc progress.CourseCompletion) error {
	// repeated triggers collapse to a single row per (user, course)
	query := `
INSERT INTO course_progress (user_id, course_id, completed_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, course_id)
DO UPDATE SET completed_at = EXCLUDED.completed_at`
	if _, err := repo.db.ExecContext(ctx, query, cc.UserID, cc.CourseID, cc.CompletedAt.UTC()); err != nil {
		return errors.Wrap(err, "upserting course completion")
	}
	return nil
}

func (repo *progressRepository) CreateAttempt(ctx context.Context, a progress.Attempt) (progress.Attempt, error) {
	a.ID = uuid.New().String()
	query := `
INSERT INTO quiz_scores (id, user_id, course_id, quiz_id, score, total, taken_at)
VALUES (:id, :user_id, :course_id, :quiz_id, :score, :total, :taken_at)`
	row := dbAttempt{
		ID:       a.ID,
		UserID:   a.UserID,
		CourseID: a.CourseID,
		QuizID:   a.QuizID,
		Score:    a.Score,
		Total:    a.Total,
		TakenAt:  a.TakenAt.UTC(),
	}
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return progress.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return a, nil
}

func (repo *progressRepository) QueryAttemptsByUser(ctx context.Context, userID string) ([]progress.Attempt, error) {
	var rows []dbAttempt
	query := `
SELECT id, user_id, course_id, quiz_id, score, total, taken_at
FROM quiz_scores
WHERE user_id = $1
ORDER BY ` + attemptOrdering.String()
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]progress.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, progress.Attempt{
			ID:       row.ID,
			UserID:   row.UserID,
			CourseID: row.CourseID,
			QuizID:   row.QuizID,
			Score:    row.Score,
			Total:    row.Total,
			TakenAt:  row.TakenAt,
		})
	}
	return attempts, nil
}
