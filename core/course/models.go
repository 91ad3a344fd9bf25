package course

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Media kinds
const (
	MediaVideo   = "video"
	MediaReading = "reading"
	MediaPodcast = "podcast"
)

var MediaKinds = []string{MediaVideo, MediaReading, MediaPodcast}

// Course is a fixed catalog entry; courses are identified by their slug.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Catalog is the fixed set of courses on offer.
var Catalog = []Course{
	{ID: "digital-marketing", Title: "Digital Marketing", Description: "Learn how to leverage AI in digital marketing for higher education."},
	{ID: "brand-strategy", Title: "Brand Strategy", Description: "Develop a strong brand strategy using AI tools."},
	{ID: "market-research", Title: "Market Research", Description: "Use AI to conduct effective market research in higher ed."},
	{ID: "web-development", Title: "Web Development", Description: "Modern web development techniques for higher ed marketers."},
	{ID: "social-media", Title: "Social Media", Description: "AI-powered social media strategies."},
	{ID: "graphic-design", Title: "Graphic Design", Description: "Create stunning graphics with AI assistance."},
	{ID: "copywriting", Title: "Copywriting", Description: "Write compelling copy using AI tools."},
	{ID: "email-marketing", Title: "Email Marketing", Description: "Boost your email campaigns with AI."},
	{ID: "text-message-marketing", Title: "Text Message Marketing", Description: "Engage students with AI-driven SMS marketing."},
}

// Media is a single media activity within a course. Immutable once created.
type Media struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Kind      string    `json:"type"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Question is a single-answer multiple-choice question.
// JSON keys follow the stored row format.
type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Correct int      `json:"answer"`
}

// Questions is the ordered question set of a quiz, stored as a jsonb column.
type Questions []Question

// Quiz is a quiz activity; it may belong to multiple courses via Categories.
type Quiz struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	VideoURL   string    `json:"video_url"`
	Categories []string  `json:"categories"`
	Questions  Questions `json:"questions"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// ErrMalformedQuiz indicates a stored quiz row that fails boundary validation.
var ErrMalformedQuiz = errors.New("malformed quiz questions")

// rawQuestion mirrors Question with an optional answer index so that
// missing values can be told apart from answer 0.
type rawQuestion struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Correct *int     `json:"answer"`
}

// Value implements driver.Valuer.
func (qs Questions) Value() (driver.Value, error) {
	if qs == nil {
		qs = Questions{}
	}
	return json.Marshal(qs)
}

// Scan implements sql.Scanner. Rows are validated here rather than
// trusted: a question with a missing or out-of-range answer index, or
// fewer than 2 options, fails the whole row with ErrMalformedQuiz.
func (qs *Questions) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*qs = Questions{}
		return nil
	default:
		return errors.Errorf("course.Questions.Scan: unsupported type %T", src)
	}

	var raw []rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrMalformedQuiz, err.Error())
	}

	parsed := make(Questions, 0, len(raw))
	for i, rq := range raw {
		q, err := rq.validate()
		if err != nil {
			return errors.Wrapf(err, "question %d", i)
		}
		parsed = append(parsed, q)
	}
	*qs = parsed
	return nil
}

func (rq rawQuestion) validate() (Question, error) {
	if rq.Prompt == "" {
		return Question{}, errors.Wrap(ErrMalformedQuiz, "missing question text")
	}
	if len(rq.Options) < 2 {
		return Question{}, errors.Wrap(ErrMalformedQuiz, "at least 2 options required")
	}
	if rq.Correct == nil {
		return Question{}, errors.Wrap(ErrMalformedQuiz, "missing answer index")
	}
	if *rq.Correct < 0 || *rq.Correct >= len(rq.Options) {
		return Question{}, errors.Wrap(ErrMalformedQuiz, "answer index out of range")
	}
	return Question{Prompt: rq.Prompt, Options: rq.Options, Correct: *rq.Correct}, nil
}

// NewMedia contains information needed to create a new Media.
type NewMedia struct {
	CourseID string `json:"course_id" validate:"required,courseslug"`
	Kind     string `json:"type" validate:"required,mediakind"`
	Title    string `json:"title" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
}

func (nm *NewMedia) Validate(validate *validator.Validate, translator ut.Translator) error {
	nm.CourseID = core.CleanString(nm.CourseID, true /* lower */)
	nm.Kind = core.CleanString(nm.Kind, true /* lower */)
	nm.Title = core.CleanString(nm.Title)
	nm.URL = core.CleanString(nm.URL)
	return validate.Struct(nm)
}

// NewQuestion is a question submitted through the quiz creator.
type NewQuestion struct {
	Prompt  string   `json:"question" validate:"required"`
	Options []string `json:"options" validate:"min=2,dive,required"`
	Correct *int     `json:"answer" validate:"required"`
}

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	Title      string        `json:"title" validate:"required"`
	VideoURL   string        `json:"video_url" validate:"omitempty,url"`
	Categories []string      `json:"categories" validate:"min=1,dive,courseslug"`
	Questions  []NewQuestion `json:"questions" validate:"min=1,dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate, translator ut.Translator) error {
	nq.Title = core.CleanString(nq.Title)
	nq.VideoURL = core.CleanString(nq.VideoURL)
	for i, cat := range nq.Categories {
		nq.Categories[i] = core.CleanString(cat, true /* lower */)
	}
	if err := validate.Struct(nq); err != nil {
		return err
	}
	// answer indexes must address an existing option
	for i, q := range nq.Questions {
		if *q.Correct < 0 || *q.Correct >= len(q.Options) {
			return core.NewValidationError(nil, core.FieldError{
				Field: "questions",
				Error: errors.Errorf("question %d: answer index out of range", i).Error(),
			})
		}
	}
	return nil
}

func (nq NewQuiz) questions() Questions {
	qs := make(Questions, 0, len(nq.Questions))
	for _, q := range nq.Questions {
		qs = append(qs, Question{Prompt: q.Prompt, Options: q.Options, Correct: *q.Correct})
	}
	return qs
}
