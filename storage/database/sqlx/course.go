package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/course"
)

// dbMedia mirrors the course_media table.
type dbMedia struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Kind      string    `db:"type"`
	Title     string    `db:"title"`
	URL       string    `db:"url"`
	CreatedAt null.Time `db:"created_at"`
}

func (m dbMedia) unpack() course.Media {
	return course.Media{
		ID:        m.ID,
		CourseID:  m.CourseID,
		Kind:      m.Kind,
		Title:     m.Title,
		URL:       m.URL,
		CreatedAt: m.CreatedAt.Time,
	}
}

type mediaRepository struct {
	db *sqlx.DB
}

var _ course.MediaRepository = (*mediaRepository)(nil) // interface compliance check

func NewMediaRepository(db *sqlx.DB) *mediaRepository {
	return &mediaRepository{db: db}
}

func (repo *mediaRepository) CreateMedia(ctx context.Context, m course.Media) (course.Media, error) {
	m.ID = uuid.New().String()
	query := `
INSERT INTO course_media (id, course_id, type, title, url, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query, m.ID, m.CourseID, m.Kind, m.Title, m.URL, m.CreatedAt.UTC())
	if err != nil {
		return course.Media{}, errors.Wrap(err, "inserting media")
	}
	return m, nil
}

func (repo *mediaRepository) QueryMediaByCourse(ctx context.Context, courseID string) ([]course.Media, error) {
	var rows []dbMedia
	query := `SELECT id, course_id, type, title, url, created_at FROM course_media WHERE course_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying media")
	}
	media := make([]course.Media, 0, len(rows))
	for _, row := range rows {
		media = append(media, row.unpack())
	}
	return media, nil
}

func (repo *mediaRepository) GetMediaByID(ctx context.Context, id string) (course.Media, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Media{}, course.ErrMediaNotFound
	}
	var m dbMedia
	query := `SELECT id, course_id, type, title, url, created_at FROM course_media WHERE id = $1`
	if err := repo.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Media{}, course.ErrMediaNotFound
		}
		return course.Media{}, errors.Wrap(err, "finding media")
	}
	return m.unpack(), nil
}

func (repo *mediaRepository) DeleteMediaByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM course_media WHERE id = ANY ($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting media")
	}
	return nil
}

// dbQuiz mirrors the quizzes table. Questions rows are validated on Scan.
type dbQuiz struct {
	ID         string           `db:"id"`
	Title      string           `db:"title"`
	VideoURL   null.String      `db:"video_url"`
	Categories pq.StringArray   `db:"categories"`
	Questions  course.Questions `db:"questions"`
	CreatedAt  null.Time        `db:"created_at"`
}

func (q dbQuiz) unpack() course.Quiz {
	return course.Quiz{
		ID:         q.ID,
		Title:      q.Title,
		VideoURL:   q.VideoURL.String,
		Categories: q.Categories,
		Questions:  q.Questions,
		CreatedAt:  q.CreatedAt.Time,
	}
}

type quizRepository struct {
	db *sqlx.DB
}

var _ course.QuizRepository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, q course.Quiz) (course.Quiz, error) {
	q.ID = uuid.New().String()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	query := `
INSERT INTO quizzes (id, title, video_url, categories, questions, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		q.ID, q.Title, null.NewString(q.VideoURL, q.VideoURL != ""),
		pq.StringArray(q.Categories), q.Questions, q.CreatedAt.UTC())
	if err != nil {
		return course.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return q, nil
}

func (repo *quizRepository) queryQuizzes(ctx context.Context, where string, args ...interface{}) ([]course.Quiz, error) {
	var rows []dbQuiz
	query := `SELECT id, title, video_url, categories, questions, created_at FROM quizzes`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]course.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.unpack())
	}
	return quizzes, nil
}

func (repo *quizRepository) QueryAllQuizzes(ctx context.Context) ([]course.Quiz, error) {
	return repo.queryQuizzes(ctx, "")
}

func (repo *quizRepository) QueryQuizzesByCategory(ctx context.Context, courseID string) ([]course.Quiz, error) {
	return repo.queryQuizzes(ctx, `$1 = ANY (categories)`, courseID)
}

func (repo *quizRepository) GetQuizByID(ctx context.Context, id string) (course.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Quiz{}, course.ErrQuizNotFound
	}
	var q dbQuiz
	query := `SELECT id, title, video_url, categories, questions, created_at FROM quizzes WHERE id = $1`
	if err := repo.db.GetContext(ctx, &q, query, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Quiz{}, course.ErrQuizNotFound
		}
		return course.Quiz{}, errors.Wrap(err, "finding quiz")
	}
	return q.unpack(), nil
}

func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ANY ($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting quizzes")
	}
	return nil
}
