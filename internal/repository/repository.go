package repository

import (
	"github.com/jackc/pgx/v4/pgxpool"
)

type Repository struct {
	Machine MachineRepository
	Spec    SpecRepository
	Lead    LeadRepository
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		Machine: NewMachineRepository(db),
		Spec:    NewSpecRepository(db),
		Lead:    NewLeadRepository(db),
	}
}
