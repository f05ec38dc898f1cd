package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	appfs "github.com/trezcool/darasa/assets"
	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/services/email"
	"github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/testutil"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}

	parseTemplatesOnce sync.Once
)

type testEnv struct {
	app     *Server
	conf    *core.Config
	repos   *database.Repositories
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T, throttler ...core.Throttler) *testEnv {
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	parseTemplatesOnce.Do(func() {
		core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.FrontendBaseURL, true /* strict */, logger)
	})

	// set up DB & repos
	repos := database.NewMemoryRepositories(inmemdb.NewDB())

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(repos.Users)
	crsSvc := course.NewService(repos.Courses, validate)

	deps := ServerDeps{
		Conf:          conf,
		Logger:        logger,
		MailSvc:       mailSvc,
		UserSvc:       usrSvc,
		CourseSvc:     crsSvc,
		EnrollmentSvc: enrollment.NewService(repos.Enrollments, crsSvc, usrSvc, validate),
		QuizSvc:       quiz.NewService(repos.Quizzes, crsSvc, usrSvc, validate),
		Validate:      validate,
		Translator:    translator,
	}
	if len(throttler) > 0 {
		deps.Throttler = throttler[0]
	}

	// set up server
	app := NewServer(deps)
	t.Cleanup(func() { _ = app.Close() })
	return &testEnv{app: app, conf: conf, repos: repos, mailSvc: mailSvc}
}

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
	extra    interface{}
}

func (env *testEnv) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.method == "" {
				tt.method = http.MethodGet
			}
			if tt.wantCode == 0 {
				tt.wantCode = http.StatusOK
			}
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
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

// newFormRequest posts an url-encoded form, with cookies.
func newFormRequest(path string, form url.Values, cookies ...*http.Cookie) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func getCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func itoa(i int) string { return strconv.Itoa(i) }

func boolStr(b bool) string { return strconv.FormatBool(b) }

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData only checks the code when tt.wantData is nil.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}

// throttlerMock allows `limit` attempts per key.
type throttlerMock struct {
	mu       sync.Mutex
	limit    int
	attempts map[string]int
}

var _ core.Throttler = (*throttlerMock)(nil)

func newThrottlerMock(limit int) *throttlerMock {
	return &throttlerMock{limit: limit, attempts: make(map[string]int)}
}

func (m *throttlerMock) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[key]++
	if m.attempts[key] > m.limit {
		return false, time.Minute, nil
	}
	return true, 0, nil
}
