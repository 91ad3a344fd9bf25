package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	youtubesvc "github.com/trezcool/darasa/services/youtube"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type mailRecorder struct {
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type testEnv struct {
	server       *Server
	conf         *core.Config
	usrRepo      user.Repository
	mediaRepo    course.MediaRepository
	quizRepo     course.QuizRepository
	progressRepo *dummydb.ProgressRepository
	sessions     *progress.SessionStore
	mail         *mailRecorder
}

func setup(t *testing.T, ytBaseURL ...string) *testEnv {
	t.Helper()

	conf := &core.Config{
		AppName:    "Darasa",
		TestMode:   true,
		SecretKey:  "secret",
		AdminEmail: "admin@test.cd",
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour

	db, err := dummydb.Open()
	require.NoError(t, err)

	mailRec := &mailRecorder{}
	usrRepo := dummydb.NewUserRepository(db)
	mediaRepo := dummydb.NewMediaRepository(db)
	quizRepo := dummydb.NewQuizRepository(db)
	progressRepo := dummydb.NewProgressRepository(db)

	usrSvc := user.NewService(usrRepo, mailRec, conf)
	courseSvc := course.NewService(mediaRepo, quizRepo)
	progressSvc := progress.NewService(progressRepo, courseSvc, mailRec)
	sessions := progress.NewSessionStore()

	logger := testLogger{}
	var ytSvc *youtubesvc.Service
	if len(ytBaseURL) > 0 {
		conf.YoutubeAPIKey = "yt-key"
		ytSvc = youtubesvc.NewServiceWithBaseURL(logger, conf, ytBaseURL[0])
	} else {
		ytSvc = youtubesvc.NewService(logger, conf)
	}

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     usrSvc,
		CourseSvc:   courseSvc,
		ProgressSvc: progressSvc,
		Sessions:    sessions,
		YoutubeSvc:  ytSvc,
		Validate:    validate,
		Translator:  translator,
	})

	return &testEnv{
		server:       server,
		conf:         conf,
		usrRepo:      usrRepo,
		mediaRepo:    mediaRepo,
		quizRepo:     quizRepo,
		progressRepo: progressRepo,
		sessions:     sessions,
		mail:         mailRec,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createMedia(t *testing.T, repo course.MediaRepository, courseID, title string) course.Media {
	t.Helper()
	m, err := repo.CreateMedia(context.Background(), course.Media{
		CourseID:  courseID,
		Kind:      course.MediaVideo,
		Title:     title,
		URL:       "https://youtu.be/" + title,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createMedia() failed: %v", err)
	}
	return m
}

func createQuiz(t *testing.T, repo course.QuizRepository, title string, categories []string, questions course.Questions) course.Quiz {
	t.Helper()
	q, err := repo.CreateQuiz(context.Background(), course.Quiz{
		Title:      title,
		Categories: categories,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createQuiz() failed: %v", err)
	}
	return q
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
