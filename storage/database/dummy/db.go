// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user           *userTable
		media          *mediaTable
		quiz           *quizTable
		activity       *activityTable
		courseProgress *courseProgressTable
		attempts       *attemptTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	mediaTable struct {
		sync.RWMutex
		table map[string]*course.Media
	}

	quizTable struct {
		sync.RWMutex
		table map[string]*course.Quiz
	}

	activityTable struct {
		sync.RWMutex
		table map[string]*progress.Completion // keyed by userID|courseID|type:activityID
	}

	courseProgressTable struct {
		sync.RWMutex
		table map[string]*progress.CourseCompletion // keyed by userID|courseID
	}

	attemptTable struct {
		sync.RWMutex
		rows []progress.Attempt
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:           &userTable{table: make(map[string]*user.User)},
		media:          &mediaTable{table: make(map[string]*course.Media)},
		quiz:           &quizTable{table: make(map[string]*course.Quiz)},
		activity:       &activityTable{table: make(map[string]*progress.Completion)},
		courseProgress: &courseProgressTable{table: make(map[string]*progress.CourseCompletion)},
		attempts:       &attemptTable{},
	}
	return db, nil
}
