package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrCourseNotFound = errors.New("course not found")
	ErrMediaNotFound  = errors.New("media not found")
	ErrQuizNotFound   = errors.New("quiz not found")
)

type (
	MediaRepository interface {
		CreateMedia(ctx context.Context, m Media) (Media, error)
		QueryMediaByCourse(ctx context.Context, courseID string) ([]Media, error)
		GetMediaByID(ctx context.Context, id string) (Media, error)
		DeleteMediaByID(ctx context.Context, ids ...string) error
	}

	QuizRepository interface {
		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		QueryAllQuizzes(ctx context.Context) ([]Quiz, error)
		// QueryQuizzesByCategory returns quizzes whose Categories contain `courseID`.
		QueryQuizzesByCategory(ctx context.Context, courseID string) ([]Quiz, error)
		GetQuizByID(ctx context.Context, id string) (Quiz, error)
		DeleteQuizzesByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		mediaRepo MediaRepository
		quizRepo  QuizRepository
	}
)

func NewService(mediaRepo MediaRepository, quizRepo QuizRepository) *Service {
	return &Service{
		mediaRepo: mediaRepo,
		quizRepo:  quizRepo,
	}
}

// Courses returns the fixed course catalog.
func (svc *Service) Courses() []Course {
	return Catalog
}

// Get returns the catalog entry for `courseID`.
func (svc *Service) Get(courseID string) (Course, error) {
	for _, c := range Catalog {
		if c.ID == courseID {
			return c, nil
		}
	}
	return Course{}, ErrCourseNotFound
}

// CourseTitle returns the display title for `courseID`, falling back to the slug.
func (svc *Service) CourseTitle(courseID string) string {
	if c, err := svc.Get(courseID); err == nil {
		return c.Title
	}
	return courseID
}

func (svc *Service) CreateMedia(ctx context.Context, nm NewMedia) (Media, error) {
	if _, err := svc.Get(nm.CourseID); err != nil {
		return Media{}, err
	}
	m := Media{
		CourseID:  nm.CourseID,
		Kind:      nm.Kind,
		Title:     nm.Title,
		URL:       nm.URL,
		CreatedAt: time.Now().UTC(),
	}
	return svc.mediaRepo.CreateMedia(ctx, m)
}

func (svc *Service) MediaByCourse(ctx context.Context, courseID string) ([]Media, error) {
	if _, err := svc.Get(courseID); err != nil {
		return nil, err
	}
	return svc.mediaRepo.QueryMediaByCourse(ctx, courseID)
}

func (svc *Service) GetMedia(ctx context.Context, id string) (Media, error) {
	return svc.mediaRepo.GetMediaByID(ctx, id)
}

func (svc *Service) DeleteMedia(ctx context.Context, ids ...string) error {
	return svc.mediaRepo.DeleteMediaByID(ctx, ids...)
}

func (svc *Service) CreateQuiz(ctx context.Context, nq NewQuiz) (Quiz, error) {
	for _, cat := range nq.Categories {
		if _, err := svc.Get(cat); err != nil {
			return Quiz{}, err
		}
	}
	q := Quiz{
		Title:      nq.Title,
		VideoURL:   nq.VideoURL,
		Categories: nq.Categories,
		Questions:  nq.questions(),
		CreatedAt:  time.Now().UTC(),
	}
	return svc.quizRepo.CreateQuiz(ctx, q)
}

func (svc *Service) QuizzesByCourse(ctx context.Context, courseID string) ([]Quiz, error) {
	if _, err := svc.Get(courseID); err != nil {
		return nil, err
	}
	return svc.quizRepo.QueryQuizzesByCategory(ctx, courseID)
}

func (svc *Service) AllQuizzes(ctx context.Context) ([]Quiz, error) {
	return svc.quizRepo.QueryAllQuizzes(ctx)
}

func (svc *Service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return svc.quizRepo.GetQuizByID(ctx, id)
}

func (svc *Service) DeleteQuizzes(ctx context.Context, ids ...string) error {
	return svc.quizRepo.DeleteQuizzesByID(ctx, ids...)
}

// CourseActivities returns the ids of all activities belonging to a course:
// its media items and the quizzes whose categories include it.
func (svc *Service) CourseActivities(ctx context.Context, courseID string) (mediaIDs, quizIDs []string, err error) {
	media, err := svc.MediaByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying course media")
	}
	quizzes, err := svc.QuizzesByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying course quizzes")
	}
	for _, m := range media {
		mediaIDs = append(mediaIDs, m.ID)
	}
	for _, q := range quizzes {
		quizIDs = append(quizIDs, q.ID)
	}
	return mediaIDs, quizIDs, nil
}
