package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/course"
)

type mediaRepository struct {
	db *mediaTable
}

var _ course.MediaRepository = (*mediaRepository)(nil) // interface compliance check

func NewMediaRepository(db *DB) course.MediaRepository {
	return &mediaRepository{db: db.media}
}

func (repo *mediaRepository) CreateMedia(_ context.Context, m course.Media) (course.Media, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = uuid.New().String()
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *mediaRepository) QueryMediaByCourse(_ context.Context, courseID string) ([]course.Media, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	media := make([]course.Media, 0)
	for _, m := range repo.db.table {
		if m.CourseID == courseID {
			media = append(media, *m)
		}
	}
	sort.Slice(media, func(i, j int) bool { return media[i].CreatedAt.Before(media[j].CreatedAt) })
	return media, nil
}

func (repo *mediaRepository) GetMediaByID(_ context.Context, id string) (course.Media, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *m, nil
	}
	return course.Media{}, course.ErrMediaNotFound
}

func (repo *mediaRepository) DeleteMediaByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

type quizRepository struct {
	db *quizTable
}

var _ course.QuizRepository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) course.QuizRepository {
	return &quizRepository{db: db.quiz}
}

func (repo *quizRepository) query() []course.Quiz {
	quizzes := make([]course.Quiz, 0, len(repo.db.table))
	for _, q := range repo.db.table {
		quizzes = append(quizzes, *q)
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt) })
	return quizzes
}

func (repo *quizRepository) CreateQuiz(_ context.Context, q course.Quiz) (course.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = uuid.New().String()
	repo.db.table[q.ID] = &q
	return q, nil
}

func (repo *quizRepository) QueryAllQuizzes(_ context.Context) ([]course.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *quizRepository) QueryQuizzesByCategory(_ context.Context, courseID string) ([]course.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	quizzes := make([]course.Quiz, 0)
	for _, q := range repo.query() {
		for _, cat := range q.Categories {
			if cat == courseID {
				quizzes = append(quizzes, q)
				break
			}
		}
	}
	return quizzes, nil
}

func (repo *quizRepository) GetQuizByID(_ context.Context, id string) (course.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return *q, nil
	}
	return course.Quiz{}, course.ErrQuizNotFound
}

func (repo *quizRepository) DeleteQuizzesByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
