package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	appAuth "github.com/yigit/kebele/internal/app/auth"
	"github.com/yigit/kebele/internal/app/controllers"
	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/routes"
	"github.com/yigit/kebele/internal/app/rules"
	"github.com/yigit/kebele/internal/app/services"
	"github.com/yigit/kebele/internal/app/services/memstore"
	"github.com/yigit/kebele/internal/middleware"
	"github.com/yigit/kebele/internal/pkg/auth"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Field   string          `json:"field"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type formFile struct {
	field, name string
	content     []byte
}

type ControllerSuite struct {
	suite.Suite
	router   *gin.Engine
	jwt      *auth.JWTService
	users    *memstore.Users
	apps     *memstore.Applications
	notifier *memstore.Notifier
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashPassword("secret123")
	s.Require().NoError(err)

	s.users = memstore.NewUsers(
		&models.User{ID: 1, Username: "abebe", Email: "abebe@example.com", FullName: "Abebe Kebede", Password: hash},
		&models.User{ID: 2, Username: "clerk", Email: "clerk@example.com", FullName: "Kebele Clerk", Password: hash, IsAdmin: true},
		&models.User{ID: 3, Username: "almaz", Email: "almaz@example.com", FullName: "Almaz Tesfaye", Password: hash},
	)
	s.apps = memstore.NewApplications()
	s.notifier = &memstore.Notifier{}
	tokens := memstore.NewTokens()
	s.jwt = auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, RefreshTokenExp: 24 * time.Hour})

	files := services.NewUploadHandler(memstore.NewStorage(), rules.DefaultPhotoLimits(), 1<<20, zerolog.Nop())
	appSvc := services.NewApplicationService(s.apps, s.users, files, s.notifier, nil, zerolog.Nop())
	userSvc := services.NewUserService(s.users, s.apps, tokens, files, zerolog.Nop())
	authSvc := services.NewAuthService(s.users, tokens, s.jwt, nil, zerolog.Nop())

	s.router = gin.New()
	routes.SetupRouter(s.router, routes.Controllers{
		Auth:        controllers.NewAuthController(authSvc, userSvc.FileURL, zerolog.Nop()),
		User:        controllers.NewUserController(userSvc, zerolog.Nop()),
		Application: controllers.NewApplicationController(appSvc, zerolog.Nop()),
		File:        controllers.NewFileController(appSvc, userSvc, zerolog.Nop()),
	}, middleware.NewAuthMiddleware(s.jwt, nil, appAuth.NewAuthorizationService(s.users)), nil, 8<<20)
}

func (s *ControllerSuite) token(userID int64) string {
	u, err := s.users.GetByID(context.Background(), userID)
	s.Require().NoError(err)
	pair, err := s.jwt.GenerateTokenPair(u.ID, u.Username, u.IsAdmin)
	s.Require().NoError(err)
	return pair.AccessToken
}

func (s *ControllerSuite) do(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *ControllerSuite) multipart(method, path string, fields map[string]string, files ...formFile) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		s.Require().NoError(err)
		_, err = part.Write(f.content)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *ControllerSuite) jsonRequest(method, path string, v interface{}) *http.Request {
	var body io.Reader = http.NoBody
	if v != nil {
		raw, err := json.Marshal(v)
		s.Require().NoError(err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *ControllerSuite) photo(w, h int) formFile {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return formFile{"photo", "photo.png", buf.Bytes()}
}

func proof() formFile {
	return formFile{"residence_proof", "proof.pdf", []byte("%PDF-1.4")}
}

func newIDFields() map[string]string {
	return map[string]string{
		"application_type": "NEW_ID",
		"full_name":        "Abebe Kebede",
		"dob":              "1990-05-01",
		"blood_group":      "O+",
		"child_full_name":  "ignored",
	}
}

func (s *ControllerSuite) submitNewID(userID int64) {
	w, _ := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields(), s.photo(400, 400), proof()), s.token(userID))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (s *ControllerSuite) TestCreateRequiresAuthentication() {
	w, env := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields()), "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)
}

func (s *ControllerSuite) TestCreateMissingPhoto() {
	w, env := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields(), proof()), s.token(1))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("photo", env.Error.Field)
	s.Equal("Photo is required for NEW_ID applications.", env.Error.Message)
}

func (s *ControllerSuite) TestCreateRejectsSmallPhoto() {
	w, env := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields(), s.photo(200, 200), proof()), s.token(1))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("photo", env.Error.Field)
}

func (s *ControllerSuite) TestCreateRejectsNonPDFProof() {
	docx := formFile{"residence_proof", "proof.docx", []byte("PK")}
	w, env := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields(), s.photo(400, 400), docx), s.token(1))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("Residence proof must be a PDF file.", env.Error.Message)
}

func (s *ControllerSuite) TestCreateProjectsNewIDFields() {
	w, env := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields(), s.photo(400, 400), proof()), s.token(1))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("NEW_ID", data["application_type"])
	s.Equal("PENDING", data["status"])
	s.Equal("1990-05-01", data["dob"])
	s.NotContains(data, "child_full_name")
	s.NotContains(data, "old_id_card")
	s.True(strings.HasPrefix(data["photo"].(string), "/api/v1/files/applications/photos/"))

	stored, err := s.apps.GetByID(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.UserID)
}

func (s *ControllerSuite) TestSecondPendingApplicationRejected() {
	s.submitNewID(1)

	w, env := s.do(s.multipart(http.MethodPost, "/api/v1/applications", newIDFields(), s.photo(400, 400), proof()), s.token(1))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("You already have a pending application.", env.Error.Message)
}

func (s *ControllerSuite) TestResidentCannotChangeStatus() {
	s.submitNewID(1)

	req := s.multipart(http.MethodPatch, "/api/v1/applications/1", map[string]string{"status": "READY"})
	w, env := s.do(req, s.token(1))
	s.Equal(http.StatusForbidden, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal(appAuth.MsgStatusStaffOnly, env.Error.Message)
	s.Empty(s.notifier.Calls())
}

func (s *ControllerSuite) TestStaffStatusChangeNotifies() {
	s.submitNewID(1)

	req := s.multipart(http.MethodPatch, "/api/v1/applications/1", map[string]string{"status": "READY"})
	w, _ := s.do(req, s.token(2))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal([]models.ApplicationStatus{models.StatusReady}, s.notifier.Calls())

	// Owner may no longer edit once reviewed
	req = s.multipart(http.MethodPatch, "/api/v1/applications/1", map[string]string{"full_name": "Changed"})
	w, env := s.do(req, s.token(1))
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(appAuth.MsgUpdateNotPending, env.Error.Message)
}

func (s *ControllerSuite) TestInvalidStatusFromStaff() {
	s.submitNewID(1)

	req := s.multipart(http.MethodPatch, "/api/v1/applications/1", map[string]string{"status": "LOST"})
	w, env := s.do(req, s.token(2))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("status", env.Error.Field)
	s.Equal(`"LOST" is not a valid choice.`, env.Error.Message)
}

func (s *ControllerSuite) TestOtherResidentForbidden() {
	s.submitNewID(1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/1", nil)
	w, _ := s.do(req, s.token(3))
	s.Equal(http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/applications/1", nil)
	w, _ = s.do(req, s.token(2))
	s.Equal(http.StatusOK, w.Code)
}

func (s *ControllerSuite) TestListScopedToOwner() {
	s.submitNewID(1)
	s.submitNewID(3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications", nil)
	_, env := s.do(req, s.token(1))
	var mine []map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &mine))
	s.Len(mine, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/applications", nil)
	_, env = s.do(req, s.token(2))
	var all []map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &all))
	s.Len(all, 2)
}

func (s *ControllerSuite) TestDeleteApplication() {
	s.submitNewID(1)

	w, _ := s.do(httptest.NewRequest(http.MethodDelete, "/api/v1/applications/1", nil), s.token(3))
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodDelete, "/api/v1/applications/1", nil), s.token(1))
	s.Equal(http.StatusNoContent, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/applications/1", nil), s.token(1))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ControllerSuite) TestInvalidID() {
	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/applications/abc", nil), s.token(1))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ControllerSuite) TestRegisterAndLogin() {
	req := s.jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username":  "kebede",
		"email":     "kebede@example.com",
		"password":  "password1",
		"full_name": "Kebede Alemu",
	})
	w, env := s.do(req, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var user map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &user))
	s.Equal("kebede", user["username"])
	s.Equal(false, user["is_admin"])
	s.NotContains(user, "password")

	w, _ = s.do(s.jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username":  "kebede",
		"email":     "other@example.com",
		"password":  "password1",
		"full_name": "Someone Else",
	}), "")
	s.Equal(http.StatusConflict, w.Code)

	w, env = s.do(s.jsonRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "kebede@example.com",
		"password": "password1",
	}), "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var session struct {
		Token struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &session))
	s.NotEmpty(session.Token.AccessToken)
	s.NotEmpty(session.Token.RefreshToken)
}

func (s *ControllerSuite) TestRegisterValidation() {
	w, env := s.do(s.jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "kebede",
		"email":    "not-an-email",
		"password": "password1",
	}), "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("VAL_001", env.Error.Code)
}

func (s *ControllerSuite) TestLoginWrongPassword() {
	w, _ := s.do(s.jsonRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "abebe",
		"password": "wrong-password",
	}), "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *ControllerSuite) TestUserListStaffOnly() {
	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil), s.token(1))
	s.Equal(http.StatusForbidden, w.Code)

	w, env := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil), s.token(2))
	s.Require().Equal(http.StatusOK, w.Code)
	var users []map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &users))
	s.Len(users, 3)
}

func (s *ControllerSuite) TestUserSelfOrStaff() {
	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil), s.token(3))
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil), s.token(1))
	s.Equal(http.StatusOK, w.Code)

	name := "Abebe K."
	w, env := s.do(s.jsonRequest(http.MethodPatch, "/api/v1/users/1", map[string]*string{"full_name": &name}), s.token(1))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var user map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &user))
	s.Equal("Abebe K.", user["full_name"])
}

func (s *ControllerSuite) TestLogout() {
	w, _ := s.do(s.jsonRequest(http.MethodPost, "/api/v1/auth/logout", nil), s.token(1))
	s.Equal(http.StatusOK, w.Code)
}

func (s *ControllerSuite) TestHealth() {
	w, env := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), "")
	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)

	down := gin.New()
	routes.SetupRouter(down, routes.Controllers{}, middleware.NewAuthMiddleware(s.jwt, nil, nil),
		func(context.Context) error { return errors.New("connection refused") }, 1<<20)
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "SRV_002")
}

func (s *ControllerSuite) fetch(url, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ControllerSuite) TestFileAccess() {
	s.submitNewID(1)
	stored, err := s.apps.GetByID(context.Background(), 1)
	s.Require().NoError(err)
	s.Require().NotNil(stored.ResidenceProof)
	url := "/api/v1/files/" + *stored.ResidenceProof

	w := s.fetch(url, s.token(1))
	s.Equal(http.StatusOK, w.Code)
	s.Equal("%PDF-1.4", w.Body.String())
	s.Equal("private, no-store", w.Header().Get("Cache-Control"))

	s.Equal(http.StatusOK, s.fetch(url, s.token(2)).Code)
	s.Equal(http.StatusForbidden, s.fetch(url, s.token(3)).Code)
	s.Equal(http.StatusUnauthorized, s.fetch(url, "").Code)
	s.Equal(http.StatusNotFound, s.fetch("/api/v1/files/applications/proofs/unknown.pdf", s.token(2)).Code)
	s.Equal(http.StatusNotFound, s.fetch("/api/v1/files/../configs/config.yaml", s.token(2)).Code)
}
