package repository

import (
	"context"
	"time"

	"coffee_configurator/internal/domain/models"
)

type MachineRepository interface {
	ListMachines(ctx context.Context, offset, limit int) ([]models.CoffeeMachine, error)
	GetMachineByID(ctx context.Context, id int64) (*models.CoffeeMachine, error)
	FindMachineBySignature(ctx context.Context, sig models.Signature) (*models.CoffeeMachine, error)
	CreateMachine(ctx context.Context, m models.CoffeeMachine) (int64, error)
	UpdateMachineFields(ctx context.Context, id int64, updates map[string]interface{}) error
	DeleteMachine(ctx context.Context, id int64) error
	DeleteMachines(ctx context.Context, ids []int64) ([]int64, error)
	DistinctModels(ctx context.Context) ([]string, error)
	DistinctValues(ctx context.Context, category string) ([]string, error)
}

type SpecRepository interface {
	ListSpecs(ctx context.Context, category string) ([]models.DeviceSpec, error)
	GetSpecByID(ctx context.Context, id int64) (*models.DeviceSpec, error)
	GetSpecByName(ctx context.Context, category, name string) (*models.DeviceSpec, error)
	CreateSpec(ctx context.Context, spec models.DeviceSpec) (int64, error)
	UpdateSpecFields(ctx context.Context, id int64, updates map[string]interface{}) error
	DeleteSpec(ctx context.Context, id int64) error
	DeleteSpecs(ctx context.Context, ids []int64) (int64, error)
}

type LeadRepository interface {
	CreateLead(ctx context.Context, lead models.Lead) (*models.Lead, error)
	ListLeads(ctx context.Context, offset, limit int) ([]models.Lead, error)
}

// CacheRepository — key-value кеш со сроком жизни (ссылки Seafile, цены Ozon)
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
