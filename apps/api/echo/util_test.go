package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/circular"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app      Server
	usrRepo  user.Repository
	schRepo  school.Repository
	circRepo circular.Repository
	usrSvc   *user.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	core.Conf.TestMode = true
	core.Conf.Debug = false

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	usrRepo := inmemdb.NewUserRepository(db)
	schRepo := inmemdb.NewSchoolRepository(db)
	circRepo := inmemdb.NewCircularRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(usrRepo, mailSvc)

	app := NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		SchoolSvc:      school.NewService(schRepo),
		CircularSvc:    circular.NewService(circRepo),
		Logger:         testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)},
	})
	return &testEnv{
		app:      app,
		usrRepo:  usrRepo,
		schRepo:  schRepo,
		circRepo: circRepo,
		usrSvc:   usrSvc,
	}
}

type testLogger struct {
	std *log.Logger
}

func (l testLogger) Enable(bool)                          {}
func (l testLogger) Debug(msg string, args ...interface{}) { l.std.Println(msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.std.Println(msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.std.Println(msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.std.Println(msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.std.Fatalln(msg, args) }

// Fixtures

func (env *testEnv) createSchool(t *testing.T, name string) school.School {
	t.Helper()
	now := time.Now().UTC()
	sch, err := env.schRepo.CreateSchool(context.Background(), school.School{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createSchool(): %v", err)
	}
	return sch
}

func (env *testEnv) createUser(
	t *testing.T,
	name, email string,
	role access.Role,
	schoolID string,
	features []string,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:            name,
		Email:           email,
		Role:            role,
		SchoolID:        schoolID,
		AllowedFeatures: features,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	usr.SetActive(true)
	if err := usr.SetPassword("V3ryS3cr3t!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

func (env *testEnv) createCircular(t *testing.T, schoolID, title string) circular.Circular {
	t.Helper()
	now := time.Now().UTC()
	circ, err := env.circRepo.CreateCircular(context.Background(), circular.Circular{
		SchoolID:  schoolID,
		Title:     title,
		Body:      "body",
		Audience:  circular.AudienceAll,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createCircular(): %v", err)
	}
	return circ
}

// HTTP plumbing

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
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
