package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/darasa/core/course"
)

// seedCatalog inserts a starter media item and quiz for every course that has
// none, so a fresh install never serves empty courses. Existing content is
// left untouched.
func (cli *commandLine) seedCatalog() error {
	ctx := context.Background()
	now := time.Now().UTC()

	for _, c := range course.Catalog {
		media, err := cli.mediaRepo.QueryMediaByCourse(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(media) == 0 {
			m := course.Media{
				CourseID:  c.ID,
				Kind:      course.MediaVideo,
				Title:     c.Title + ": Getting Started",
				URL:       "https://www.youtube.com/results?search_query=" + c.ID,
				CreatedAt: now,
			}
			if _, err = cli.mediaRepo.CreateMedia(ctx, m); err != nil {
				return err
			}
			logger.Printf("seeded media for %s", c.ID)
		}

		quizzes, err := cli.quizRepo.QueryQuizzesByCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(quizzes) == 0 {
			q := course.Quiz{
				Title:      c.Title + " Checkpoint",
				Categories: []string{c.ID},
				Questions: course.Questions{
					{
						Prompt:  fmt.Sprintf("Which course does %q belong to?", c.Title),
						Options: []string{c.Title, "None of the above"},
						Correct: 0,
					},
				},
				CreatedAt: now,
			}
			if _, err = cli.quizRepo.CreateQuiz(ctx, q); err != nil {
				return err
			}
			logger.Printf("seeded quiz for %s", c.ID)
		}
	}
	return nil
}
