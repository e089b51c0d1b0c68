package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	httpapp "coffee_configurator/internal/app/http"
	"coffee_configurator/internal/clients/ozon"
	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/session"
	"coffee_configurator/internal/services/auth"
	machineservice "coffee_configurator/internal/services/machine_service"
	mediaservice "coffee_configurator/internal/services/media_service"
	"coffee_configurator/internal/storage"
	httprouters "coffee_configurator/internal/transport/http"
	"coffee_configurator/internal/transport/http/dto"
	"coffee_configurator/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testCookie   = "admin_session"
	testUser     = "admin"
	testPassword = "secret"
)

type MockMachineService struct {
	mock.Mock
}

func (m *MockMachineService) List(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineService) ListAll(ctx context.Context) ([]models.CoffeeMachine, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineService) Get(ctx context.Context, id int64) (*models.CoffeeMachine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineService) Models(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMachineService) Create(ctx context.Context, form dto.MachineForm) (*models.CoffeeMachine, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineService) Update(ctx context.Context, id int64, form dto.MachineForm) (*models.CoffeeMachine, error) {
	args := m.Called(ctx, id, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineService) UpdateImages(ctx context.Context, id int64, form dto.ImagesUpdateForm) (*models.CoffeeMachine, error) {
	args := m.Called(ctx, id, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMachineService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockMachineService) RefreshMedia(ctx context.Context, id int64) (mediaservice.CacheResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mediaservice.CacheResult), args.Error(1)
}

func (m *MockMachineService) SyncOzonPrice(ctx context.Context, id int64) (*ozon.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ozon.Product), args.Error(1)
}

type MockSpecService struct {
	mock.Mock
}

func (m *MockSpecService) List(ctx context.Context, category string) ([]models.DeviceSpec, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]models.DeviceSpec), args.Error(1)
}

func (m *MockSpecService) Get(ctx context.Context, id int64) (*models.DeviceSpec, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceSpec), args.Error(1)
}

func (m *MockSpecService) GetByName(ctx context.Context, category, name string) (*models.DeviceSpec, error) {
	args := m.Called(ctx, category, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceSpec), args.Error(1)
}

func (m *MockSpecService) Create(ctx context.Context, form dto.SpecForm) (*models.DeviceSpec, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceSpec), args.Error(1)
}

func (m *MockSpecService) Update(ctx context.Context, id int64, form dto.SpecForm) (*models.DeviceSpec, error) {
	args := m.Called(ctx, id, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceSpec), args.Error(1)
}

func (m *MockSpecService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSpecService) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockSpecService) AutoPopulate(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) Submit(ctx context.Context, lead models.Lead) (*models.Lead, bool, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Lead), args.Bool(1), args.Error(2)
}

func (m *MockLeadService) List(ctx context.Context, offset, limit int) ([]models.Lead, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.Lead), args.Error(1)
}

type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, filename string, r io.Reader, updateExisting bool) (*models.ImportResult, error) {
	args := m.Called(ctx, filename, mock.Anything, updateExisting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportResult), args.Error(1)
}

func (m *MockImportService) Export(ctx context.Context, format string, w io.Writer) (string, string, error) {
	args := m.Called(ctx, format, mock.Anything)
	_, _ = w.Write([]byte("name\nA\n"))
	return args.String(0), args.String(1), args.Error(2)
}

type MockMedia struct {
	mock.Mock
}

func (m *MockMedia) ResolveMain(ctx context.Context, machine *models.CoffeeMachine) (string, bool) {
	args := m.Called(ctx, machine)
	return args.String(0), args.Bool(1)
}

func (m *MockMedia) ResolveDesignImage(ctx context.Context, machine *models.CoffeeMachine, frameColor, insertColor string) (string, bool) {
	args := m.Called(ctx, machine, frameColor, insertColor)
	return args.String(0), args.Bool(1)
}

func (m *MockMedia) ResolveGallery(ctx context.Context, machine *models.CoffeeMachine) []string {
	args := m.Called(ctx, machine)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

type RoutersTestSuite struct {
	suite.Suite
	machines *MockMachineService
	specs    *MockSpecService
	leads    *MockLeadService
	imports  *MockImportService
	media    *MockMedia
	signer   *session.Signer
	e        *echo.Echo
}

func (s *RoutersTestSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	s.machines = new(MockMachineService)
	s.specs = new(MockSpecService)
	s.leads = new(MockLeadService)
	s.imports = new(MockImportService)
	s.media = new(MockMedia)
	s.signer = session.NewSigner("test-secret", time.Hour)

	authService := auth.New(log, auth.Credentials{Username: testUser, Password: testPassword}, s.signer)

	routers := httprouters.NewRouter(log, testCookie, authService, s.machines, s.specs, s.leads, s.imports, s.media, nil)

	server := httpapp.New(log, httpapp.Options{
		HealthChecks: map[string]httpapp.HealthCheck{
			"database": func(context.Context) error { return nil },
		},
	}, routers)
	server.BuildRouters()

	s.e = server.Echo()
}

func (s *RoutersTestSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *RoutersTestSuite) adminRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.SetBasicAuth(testUser, testPassword)
	return req
}

func (s *RoutersTestSuite) formRequest(target string, values url.Values) *http.Request {
	req := s.adminRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (s *RoutersTestSuite) TestRootRedirect() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil))

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/admin/table", rec.Header().Get(echo.HeaderLocation))
}

func (s *RoutersTestSuite) TestHealth() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	s.Equal(http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](s.T(), rec)
	s.Equal("ok", body["status"])
	s.Equal("ok", body["database"])
}

func (s *RoutersTestSuite) TestAdminGuard_NoCredentials() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/admin/table", nil))

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(`Basic realm="admin"`, rec.Header().Get(echo.HeaderWWWAuthenticate))
	s.Contains(rec.Body.String(), "detail")
}

func (s *RoutersTestSuite) TestAdminGuard_BrowserRedirect() {
	req := httptest.NewRequest(http.MethodGet, "/admin/table", nil)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")

	rec := s.do(req)

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/login", rec.Header().Get(echo.HeaderLocation))
}

func (s *RoutersTestSuite) TestAdminGuard_BadBasic() {
	req := httptest.NewRequest(http.MethodGet, "/admin/table", nil)
	req.SetBasicAuth(testUser, "wrong")

	rec := s.do(req)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.NotEmpty(rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func (s *RoutersTestSuite) TestAdminGuard_Cookie() {
	s.machines.On("ListAll", mock.Anything).Return([]models.CoffeeMachine{{ID: 1, Name: "CM"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/table", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: s.signer.Sign(testUser)})

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"name":"CM"`)
}

func (s *RoutersTestSuite) TestAdminGuard_TamperedCookieFallsBackToBasic() {
	s.machines.On("ListAll", mock.Anything).Return([]models.CoffeeMachine{}, nil)

	req := s.adminRequest(http.MethodGet, "/admin/table", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: s.signer.Sign(testUser) + "x"})

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RoutersTestSuite) TestLogin_Success() {
	form := url.Values{"username": {testUser}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := s.do(req)

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/admin/", rec.Header().Get(echo.HeaderLocation))

	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(testCookie, cookies[0].Name)
	s.True(cookies[0].HttpOnly)
	s.Equal(http.SameSiteLaxMode, cookies[0].SameSite)

	user, err := s.signer.Verify(cookies[0].Value)
	s.Require().NoError(err)
	s.Equal(testUser, user)
}

func (s *RoutersTestSuite) TestLogin_WrongPassword() {
	form := url.Values{"username": {testUser}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := s.do(req)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "Неверный логин или пароль")
	s.Empty(rec.Result().Cookies())
}

func (s *RoutersTestSuite) TestLogout() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/logout", nil))

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/login", rec.Header().Get(echo.HeaderLocation))
	s.Require().Len(rec.Result().Cookies(), 1)
	s.Equal(-1, rec.Result().Cookies()[0].MaxAge)
}

func (s *RoutersTestSuite) TestListMachines_ResolvesMedia() {
	machine := models.CoffeeMachine{
		ID:            7,
		Name:          "CM-100",
		MainImage:     "https://example.com/cm.jpg",
		GalleryFolder: "/gallery/cm",
		Price:         decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		DesignImages: models.DesignImages{
			"black": {"oak": {MainImagePath: "/designs/black-oak.jpg"}},
		},
	}

	s.machines.On("List", mock.Anything, 0, 0).Return([]models.CoffeeMachine{machine}, nil)
	s.media.On("ResolveMain", mock.Anything, mock.Anything).Return("/static/cache/machines/7/main.jpg", true)
	s.media.On("ResolveDesignImage", mock.Anything, mock.Anything, "black", "oak").
		Return("/static/cache/machines/7/designs/black/oak.jpg", true)
	s.media.On("ResolveGallery", mock.Anything, mock.Anything).Return([]string{"/static/cache/machines/7/gallery/1.jpg"})

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/coffee-machines?include_gallery=true", nil))

	s.Require().Equal(http.StatusOK, rec.Code)

	body := decodeBody[[]dto.MachineResponse](s.T(), rec)
	s.Require().Len(body, 1)
	s.Equal("/static/cache/machines/7/main.jpg", body[0].MainImage)
	s.Equal("/static/cache/machines/7/designs/black/oak.jpg", body[0].DesignImages["black"]["oak"].MainImage)
	s.Equal([]string{"/static/cache/machines/7/gallery/1.jpg"}, body[0].GalleryFiles)
	s.True(body[0].Price.Decimal.Equal(decimal.NewFromInt(1000)))
}

func (s *RoutersTestSuite) TestListMachines_FallsBackToSource() {
	machine := models.CoffeeMachine{ID: 1, Name: "A", MainImage: "https://example.com/a.jpg"}

	s.machines.On("List", mock.Anything, 0, 0).Return([]models.CoffeeMachine{machine}, nil)
	s.media.On("ResolveMain", mock.Anything, mock.Anything).Return("", false)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/coffee-machines", nil))

	s.Require().Equal(http.StatusOK, rec.Code)
	body := decodeBody[[]dto.MachineResponse](s.T(), rec)
	s.Equal("https://example.com/a.jpg", body[0].MainImage)
	s.Nil(body[0].GalleryFiles)
	s.media.AssertNotCalled(s.T(), "ResolveGallery", mock.Anything, mock.Anything)
}

func (s *RoutersTestSuite) TestGetMachine_NotFound() {
	s.machines.On("Get", mock.Anything, int64(42)).Return(nil, storage.ErrMachineNotFound)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/coffee-machines/42", nil))

	s.Equal(http.StatusNotFound, rec.Code)
	s.JSONEq(`{"detail":"Coffee machine not found"}`, rec.Body.String())
}

func (s *RoutersTestSuite) TestGetMachine_InvalidID() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/coffee-machines/abc", nil))

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestDesignImage() {
	machine := &models.CoffeeMachine{ID: 3}
	s.machines.On("Get", mock.Anything, int64(3)).Return(machine, nil)
	s.media.On("ResolveDesignImage", mock.Anything, machine, "white", "walnut").Return("/img.jpg", true)
	s.media.On("ResolveDesignImage", mock.Anything, machine, "white", "pine").Return("", false)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/coffee-machines/3/design-image?frame_color=white&insert_color=walnut", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"frame_color":"white","insert_color":"walnut","url":"/img.jpg"}`, rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/coffee-machines/3/design-image?frame_color=white&insert_color=pine", nil))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RoutersTestSuite) TestModels() {
	s.machines.On("Models", mock.Anything).Return([]string{"CM-100", "CM-200"}, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/models", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`["CM-100","CM-200"]`, rec.Body.String())
}

func (s *RoutersTestSuite) TestSpecs() {
	spec := models.DeviceSpec{ID: 5, Category: models.SpecCategoryFrame, Name: "Steel", Title: "Steel", SpecsText: "a\nb"}

	s.specs.On("List", mock.Anything, models.SpecCategoryFrame).Return([]models.DeviceSpec{spec}, nil)
	s.specs.On("GetByName", mock.Anything, models.SpecCategoryFrame, "Steel").Return(&spec, nil)
	s.specs.On("GetByName", mock.Anything, models.SpecCategoryFrame, "Oak").Return(nil, storage.ErrSpecNotFound)
	s.specs.On("Get", mock.Anything, int64(5)).Return(&spec, nil)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/specs?category="+models.SpecCategoryFrame, nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	list := decodeBody[[]dto.SpecResponse](s.T(), rec)
	s.Require().Len(list, 1)
	s.Equal([]string{"a", "b"}, list[0].Specs)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/specs/by-name?category="+models.SpecCategoryFrame+"&name=Steel", nil))
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/specs/by-name?category="+models.SpecCategoryFrame+"&name=Oak", nil))
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/specs/by-name?name=Oak", nil))
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/specs/5", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RoutersTestSuite) TestSubmitLead() {
	s.leads.On("Submit", mock.Anything, mock.MatchedBy(func(l models.Lead) bool {
		return l.Name == "Ivan" && l.Phone == "+7 900" && l.SelectionData.String("model") == "CM-100"
	})).Return(&models.Lead{ID: 11}, false, nil)

	body := `{"name":" Ivan ","phone":"+7 900","selection":{"model":"CM-100"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"detail":"ok","id":11,"notified":false}`, rec.Body.String())
}

func (s *RoutersTestSuite) TestSubmitLead_BlankOptionalFields() {
	s.leads.On("Submit", mock.Anything, mock.MatchedBy(func(l models.Lead) bool {
		return l.Name == "Anna" && l.Email == "" && l.Telegram == "@anna"
	})).Return(&models.Lead{ID: 12}, true, nil)

	body := `{"name":"Anna","phone":"+7 901","email":"   ","telegram":" @anna "}`
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"detail":"ok","id":12,"notified":true}`, rec.Body.String())
}

func (s *RoutersTestSuite) TestSubmitLead_Validation() {
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(`{"name":"Ivan"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := s.do(req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.leads.AssertNotCalled(s.T(), "Submit", mock.Anything, mock.Anything)
}

func (s *RoutersTestSuite) TestCreateMachine() {
	s.machines.On("Create", mock.Anything, mock.MatchedBy(func(f dto.MachineForm) bool {
		return f.Name != nil && *f.Name == "CM" && f.Price != nil && *f.Price == "1 000,50"
	})).Return(&models.CoffeeMachine{ID: 9}, nil)

	rec := s.do(s.formRequest("/admin/machine", url.Values{"name": {"CM"}, "price": {"1 000,50"}}))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"detail":"Создано","id":9}`, rec.Body.String())
}

func (s *RoutersTestSuite) TestUpdateMachine_Errors() {
	s.machines.On("Update", mock.Anything, int64(1), mock.Anything).
		Return(nil, errors.Join(errors.New("bad"), storage.ErrMachineNotFound)).Once()

	rec := s.do(s.formRequest("/admin/machine/1", url.Values{"name": {"x"}}))
	s.Equal(http.StatusNotFound, rec.Code)

	s.machines.On("Update", mock.Anything, int64(2), mock.Anything).Return(nil, errPrice()).Once()

	rec = s.do(s.formRequest("/admin/machine/2", url.Values{"price": {"abc"}}))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestDeleteMachine() {
	s.machines.On("Delete", mock.Anything, int64(4)).Return(nil)

	rec := s.do(s.adminRequest(http.MethodPost, "/admin/machine/4/delete", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"detail":"Удалено","id":4}`, rec.Body.String())
}

func (s *RoutersTestSuite) TestBulkDeleteMachines() {
	s.machines.On("BulkDelete", mock.Anything, []int64{1, 2, 3}).Return(2, nil)

	req := s.adminRequest(http.MethodPost, "/admin/machines/bulk-delete", strings.NewReader(`{"ids":[1,2,3]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"detail":"Удалено","deleted":2,"requested":3}`, rec.Body.String())
}

func (s *RoutersTestSuite) TestBulkDeleteMachines_NotList() {
	req := s.adminRequest(http.MethodPost, "/admin/machines/bulk-delete", strings.NewReader(`{"ids":5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := s.do(req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.machines.AssertNotCalled(s.T(), "BulkDelete", mock.Anything, mock.Anything)
}

func (s *RoutersTestSuite) TestSyncOzonPrice() {
	product := &ozon.Product{OfferID: "123", Price: decimal.NewNullDecimal(decimal.NewFromInt(999)), Currency: "RUB"}
	s.machines.On("SyncOzonPrice", mock.Anything, int64(1)).Return(product, nil)
	s.machines.On("SyncOzonPrice", mock.Anything, int64(2)).Return(nil, &ozon.BusinessError{Code: "7", Message: "denied"})
	s.machines.On("SyncOzonPrice", mock.Anything, int64(3)).
		Return(nil, fmt.Errorf("clients.ozon.ProductByOfferID: %w: http 503: maintenance", ozon.ErrUpstream))

	rec := s.do(s.adminRequest(http.MethodPost, "/admin/machine/1/ozon-price", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"offer_id":"123"`)
	s.Contains(rec.Body.String(), `"price":999`)

	rec = s.do(s.adminRequest(http.MethodPost, "/admin/machine/2/ozon-price", nil))
	s.Equal(http.StatusBadGateway, rec.Code)

	rec = s.do(s.adminRequest(http.MethodPost, "/admin/machine/3/ozon-price", nil))
	s.Equal(http.StatusBadGateway, rec.Code)
	s.Equal(response.ErrOzonUnavailable, decodeBody[response.ErrorResponse](s.T(), rec))
}

func (s *RoutersTestSuite) TestSeafileNotConfigured() {
	rec := s.do(s.adminRequest(http.MethodGet, "/admin/seafile-browser?path=/", nil))

	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *RoutersTestSuite) TestImportMachines() {
	s.imports.On("Import", mock.Anything, "machines.csv", mock.Anything, false).
		Return(&models.ImportResult{Created: 2, Updated: 1}, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "machines.csv")
	s.Require().NoError(err)
	_, _ = part.Write([]byte("name\nA\n"))
	s.Require().NoError(w.WriteField("update_existing", "false"))
	s.Require().NoError(w.Close())

	req := s.adminRequest(http.MethodPost, "/admin/import", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())

	rec := s.do(req)

	s.Equal(http.StatusOK, rec.Code)
	body := decodeBody[map[string]interface{}](s.T(), rec)
	s.Equal("Импорт завершен", body["detail"])
	s.EqualValues(2, body["created"])
	s.EqualValues(1, body["updated"])
}

func (s *RoutersTestSuite) TestImportMachines_NoFile() {
	rec := s.do(s.formRequest("/admin/import", url.Values{}))

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestExportMachines() {
	s.imports.On("Export", mock.Anything, "csv", mock.Anything).Return("text/csv; charset=utf-8", "coffee_machines.csv", nil)

	rec := s.do(s.adminRequest(http.MethodGet, "/admin/export?format=csv", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), "coffee_machines.csv")
	s.Equal("name\nA\n", rec.Body.String())

	rec = s.do(s.adminRequest(http.MethodGet, "/admin/export?format=pdf", nil))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutersTestSuite) TestSpecAdmin() {
	s.specs.On("Create", mock.Anything, mock.Anything).Return(nil, storage.ErrSpecExists).Once()
	s.specs.On("AutoPopulate", mock.Anything).Return(4, nil)

	rec := s.do(s.formRequest("/admin/spec", url.Values{"category": {"frame"}, "name": {"Steel"}}))
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(s.adminRequest(http.MethodPost, "/admin/specs/auto-populate", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"detail":"Генерация завершена","created":4}`, rec.Body.String())
}

func TestRoutersSuite(t *testing.T) {
	suite.Run(t, new(RoutersTestSuite))
}

func errPrice() error {
	return fmt.Errorf("services.machine_service.Update: %w", machineservice.ErrInvalidPrice)
}
