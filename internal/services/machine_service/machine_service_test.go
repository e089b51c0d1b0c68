package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"coffee_configurator/internal/clients/ozon"
	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/repository"
	services "coffee_configurator/internal/services/machine_service"
	mediaservice "coffee_configurator/internal/services/media_service"
	"coffee_configurator/internal/storage"
	"coffee_configurator/internal/transport/http/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMachineRepo struct {
	mock.Mock
}

func (m *MockMachineRepo) ListMachines(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineRepo) GetMachineByID(ctx context.Context, id int64) (*models.CoffeeMachine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineRepo) FindMachineBySignature(ctx context.Context, sig models.Signature) (*models.CoffeeMachine, error) {
	args := m.Called(ctx, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CoffeeMachine), args.Error(1)
}

func (m *MockMachineRepo) CreateMachine(ctx context.Context, machine models.CoffeeMachine) (int64, error) {
	args := m.Called(ctx, machine)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMachineRepo) UpdateMachineFields(ctx context.Context, id int64, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockMachineRepo) DeleteMachine(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMachineRepo) DeleteMachines(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockMachineRepo) DistinctModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMachineRepo) DistinctValues(ctx context.Context, category string) ([]string, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]string), args.Error(1)
}

type MockMediaCache struct {
	mock.Mock
}

func (m *MockMediaCache) CacheMachineMedia(ctx context.Context, machine *models.CoffeeMachine) mediaservice.CacheResult {
	args := m.Called(ctx, machine)
	return args.Get(0).(mediaservice.CacheResult)
}

func (m *MockMediaCache) ClearMachineCache(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockPriceClient struct {
	mock.Mock
}

func (m *MockPriceClient) PriceByURL(ctx context.Context, url string) (*ozon.Product, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ozon.Product), args.Error(1)
}

type machineFixture struct {
	service *services.MachineService
	repo    *MockMachineRepo
	media   *MockMediaCache
	prices  *MockPriceClient
}

func newMachineFixture() *machineFixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := new(MockMachineRepo)
	media := new(MockMediaCache)
	prices := new(MockPriceClient)
	cache := repository.NewMemoryCacheRepo(time.Minute)

	return &machineFixture{
		service: services.NewMachineService(log, repo, media, prices, cache, time.Hour),
		repo:    repo,
		media:   media,
		prices:  prices,
	}
}

func strPtr(s string) *string {
	return &s
}

func TestMachineService_List(t *testing.T) {
	ctx := context.Background()
	f := newMachineFixture()

	f.repo.On("ListMachines", ctx, 0, services.DefaultListLimit).Return([]models.CoffeeMachine{{ID: 1}}, nil).Once()

	machines, err := f.service.List(ctx, -5, 0)
	require.NoError(t, err)
	assert.Len(t, machines, 1)

	f.repo.On("ListMachines", ctx, 0, 0).Return([]models.CoffeeMachine{{ID: 1}, {ID: 2}}, nil).Once()

	machines, err = f.service.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, machines, 2)

	f.repo.AssertExpectations(t)
}

func TestMachineService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newMachineFixture()

		form := dto.MachineForm{
			Name:          strPtr(" CM-100 "),
			Model:         strPtr("CM-100"),
			Frame:         strPtr(""),
			Price:         strPtr("1 000,50"),
			MainImagePath: strPtr("/img/main.png"),
			DesignImages:  strPtr(`{"Black":{"White":{"main_image_path":"/d/bw.png"}}}`),
		}

		created := &models.CoffeeMachine{ID: 5, Name: "CM-100"}

		f.repo.On("CreateMachine", ctx, mock.MatchedBy(func(m models.CoffeeMachine) bool {
			img, ok := m.DesignImages.Lookup("Black", "White")
			return m.Name == "CM-100" &&
				m.Frame == "" &&
				m.Price.Valid && m.Price.Decimal.Equal(decimal.RequireFromString("1000.5")) &&
				ok && img.MainImagePath == "/d/bw.png"
		})).Return(int64(5), nil).Once()
		f.repo.On("GetMachineByID", ctx, int64(5)).Return(created, nil).Once()
		f.media.On("CacheMachineMedia", ctx, created).Return(mediaservice.CacheResult{}).Once()

		got, err := f.service.Create(ctx, form)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.ID)

		f.repo.AssertExpectations(t)
		f.media.AssertExpectations(t)
	})

	t.Run("name required", func(t *testing.T) {
		f := newMachineFixture()

		_, err := f.service.Create(ctx, dto.MachineForm{Name: strPtr("  ")})
		assert.ErrorIs(t, err, services.ErrNameRequired)
		f.repo.AssertNotCalled(t, "CreateMachine", mock.Anything, mock.Anything)
	})

	t.Run("invalid price", func(t *testing.T) {
		f := newMachineFixture()

		_, err := f.service.Create(ctx, dto.MachineForm{Name: strPtr("x"), Price: strPtr("дорого")})
		assert.ErrorIs(t, err, services.ErrInvalidPrice)
	})

	t.Run("invalid design images", func(t *testing.T) {
		f := newMachineFixture()

		_, err := f.service.Create(ctx, dto.MachineForm{Name: strPtr("x"), DesignImages: strPtr("[1,2]")})
		assert.ErrorIs(t, err, services.ErrInvalidDesignImages)
	})
}

func TestMachineService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("empty values keep fields, clear flags null them", func(t *testing.T) {
		f := newMachineFixture()

		form := dto.MachineForm{
			Name:           strPtr("CM-200"),
			Model:          strPtr(""),
			Price:          strPtr(""),
			MainImage:      strPtr("https://cdn/x.png"),
			ClearMainImage: true,
		}

		updated := &models.CoffeeMachine{ID: 3, Name: "CM-200"}

		f.repo.On("UpdateMachineFields", ctx, int64(3), map[string]interface{}{
			"name":            "CM-200",
			"main_image":      "",
			"main_image_path": "",
		}).Return(nil).Once()
		f.repo.On("GetMachineByID", ctx, int64(3)).Return(updated, nil).Once()
		f.media.On("CacheMachineMedia", ctx, updated).Return(mediaservice.CacheResult{}).Once()

		got, err := f.service.Update(ctx, 3, form)
		require.NoError(t, err)
		assert.Equal(t, "CM-200", got.Name)

		f.repo.AssertExpectations(t)
		f.media.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		f := newMachineFixture()

		f.repo.On("UpdateMachineFields", ctx, int64(404), mock.Anything).Return(storage.ErrMachineNotFound).Once()

		_, err := f.service.Update(ctx, 404, dto.MachineForm{Name: strPtr("x")})
		assert.ErrorIs(t, err, storage.ErrMachineNotFound)
		f.media.AssertNotCalled(t, "CacheMachineMedia", mock.Anything, mock.Anything)
	})

	t.Run("price is parsed", func(t *testing.T) {
		f := newMachineFixture()

		f.repo.On("UpdateMachineFields", ctx, int64(4), mock.MatchedBy(func(u map[string]interface{}) bool {
			p, ok := u["price"].(decimal.NullDecimal)
			return ok && p.Decimal.Equal(decimal.NewFromInt(250))
		})).Return(nil).Once()
		f.repo.On("GetMachineByID", ctx, int64(4)).Return(&models.CoffeeMachine{ID: 4}, nil).Once()
		f.media.On("CacheMachineMedia", ctx, mock.Anything).Return(mediaservice.CacheResult{}).Once()

		_, err := f.service.Update(ctx, 4, dto.MachineForm{Price: strPtr("250")})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})
}

func TestMachineService_UpdateImages(t *testing.T) {
	ctx := context.Background()
	f := newMachineFixture()

	updated := &models.CoffeeMachine{ID: 8, GalleryFolder: "/g"}

	f.repo.On("UpdateMachineFields", ctx, int64(8), map[string]interface{}{
		"main_image":     "",
		"gallery_folder": "/g",
	}).Return(nil).Once()
	f.repo.On("GetMachineByID", ctx, int64(8)).Return(updated, nil).Once()
	f.media.On("CacheMachineMedia", ctx, updated).Return(mediaservice.CacheResult{}).Once()

	got, err := f.service.UpdateImages(ctx, 8, dto.ImagesUpdateForm{
		MainImage:     strPtr(""),
		GalleryFolder: strPtr("/g"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/g", got.GalleryFolder)

	f.repo.AssertExpectations(t)
}

func TestMachineService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newMachineFixture()

	f.repo.On("DeleteMachine", ctx, int64(1)).Return(nil).Once()
	f.media.On("ClearMachineCache", int64(1)).Return(nil).Once()

	require.NoError(t, f.service.Delete(ctx, 1))

	f.repo.On("DeleteMachine", ctx, int64(2)).Return(storage.ErrMachineNotFound).Once()

	err := f.service.Delete(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrMachineNotFound)

	f.media.AssertNumberOfCalls(t, "ClearMachineCache", 1)
	f.repo.AssertExpectations(t)
}

func TestMachineService_BulkDelete(t *testing.T) {
	ctx := context.Background()
	f := newMachineFixture()

	f.repo.On("DeleteMachines", ctx, []int64{1, 2, 3}).Return([]int64{1, 3}, nil).Once()
	f.media.On("ClearMachineCache", int64(1)).Return(nil).Once()
	f.media.On("ClearMachineCache", int64(3)).Return(errors.New("busy")).Once()

	deleted, err := f.service.BulkDelete(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	deleted, err = f.service.BulkDelete(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	f.repo.AssertExpectations(t)
	f.media.AssertExpectations(t)
}

func TestMachineService_RefreshMedia(t *testing.T) {
	ctx := context.Background()

	t.Run("gallery fallback for main image", func(t *testing.T) {
		f := newMachineFixture()
		m := &models.CoffeeMachine{ID: 9, GalleryFolder: "/g"}

		f.repo.On("GetMachineByID", ctx, int64(9)).Return(m, nil).Once()
		f.media.On("CacheMachineMedia", ctx, m).Return(mediaservice.CacheResult{
			Gallery: []string{"/static/cache/machines/9/gallery/1.jpg", "/static/cache/machines/9/gallery/2.jpg"},
		}).Once()
		f.repo.On("UpdateMachineFields", ctx, int64(9), map[string]interface{}{
			"main_image": "/static/cache/machines/9/gallery/1.jpg",
		}).Return(nil).Once()

		result, err := f.service.RefreshMedia(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "/static/cache/machines/9/gallery/1.jpg", result.Main)

		f.repo.AssertExpectations(t)
	})

	t.Run("main image cached", func(t *testing.T) {
		f := newMachineFixture()
		m := &models.CoffeeMachine{ID: 10}

		f.repo.On("GetMachineByID", ctx, int64(10)).Return(m, nil).Once()
		f.media.On("CacheMachineMedia", ctx, m).Return(mediaservice.CacheResult{Main: "/static/cache/machines/10/main.jpg"}).Once()

		_, err := f.service.RefreshMedia(ctx, 10)
		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "UpdateMachineFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMachineService_RefreshAllMedia(t *testing.T) {
	ctx := context.Background()
	f := newMachineFixture()

	m1 := &models.CoffeeMachine{ID: 1}
	f.repo.On("ListMachines", ctx, 0, 0).Return([]models.CoffeeMachine{{ID: 1}, {ID: 2}}, nil).Once()
	f.repo.On("GetMachineByID", ctx, int64(1)).Return(m1, nil).Once()
	f.repo.On("GetMachineByID", ctx, int64(2)).Return(nil, storage.ErrMachineNotFound).Once()
	f.media.On("CacheMachineMedia", ctx, m1).Return(mediaservice.CacheResult{Main: "/m.jpg"}).Once()

	refreshed, err := f.service.RefreshAllMedia(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
}

func TestMachineService_SyncOzonPrice(t *testing.T) {
	ctx := context.Background()
	link := "https://www.ozon.ru/product/kofemashina-123456/"

	t.Run("price is stored and cached", func(t *testing.T) {
		f := newMachineFixture()

		f.repo.On("GetMachineByID", ctx, int64(1)).Return(&models.CoffeeMachine{ID: 1, OzonLink: link}, nil).Twice()
		f.prices.On("PriceByURL", ctx, link).Return(&ozon.Product{
			OfferID:  "123456",
			Price:    decimal.NewNullDecimal(decimal.NewFromInt(59990)),
			Currency: "RUB",
		}, nil).Once()
		f.repo.On("UpdateMachineFields", ctx, int64(1), mock.MatchedBy(func(u map[string]interface{}) bool {
			p, ok := u["price"].(decimal.NullDecimal)
			return ok && p.Decimal.Equal(decimal.NewFromInt(59990))
		})).Return(nil).Twice()

		for i := 0; i < 2; i++ {
			product, err := f.service.SyncOzonPrice(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "123456", product.OfferID)
		}

		// второй раз цена берётся из кеша
		f.prices.AssertNumberOfCalls(t, "PriceByURL", 1)
		f.repo.AssertExpectations(t)
	})

	t.Run("no link", func(t *testing.T) {
		f := newMachineFixture()
		f.repo.On("GetMachineByID", ctx, int64(2)).Return(&models.CoffeeMachine{ID: 2}, nil).Once()

		_, err := f.service.SyncOzonPrice(ctx, 2)
		assert.ErrorIs(t, err, services.ErrNoOzonLink)
	})

	t.Run("product not found", func(t *testing.T) {
		f := newMachineFixture()
		f.repo.On("GetMachineByID", ctx, int64(3)).Return(&models.CoffeeMachine{ID: 3, OzonLink: link}, nil).Once()
		f.prices.On("PriceByURL", ctx, link).Return(nil, nil).Once()

		_, err := f.service.SyncOzonPrice(ctx, 3)
		assert.ErrorIs(t, err, services.ErrOzonProductNotFound)
	})

	t.Run("ozon not configured", func(t *testing.T) {
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := services.NewMachineService(log, new(MockMachineRepo), nil, nil, nil, 0)

		_, err := service.SyncOzonPrice(ctx, 1)
		assert.ErrorIs(t, err, services.ErrOzonNotConfigured)
	})
}
