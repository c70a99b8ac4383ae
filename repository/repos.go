package repository

import (
	"github.com/chainflow/token-relay/db"
	"github.com/chainflow/token-relay/entity"
	"github.com/chainflow/token-relay/repository/postgres"
)

type Repo struct {
	Transfers entity.TransfersRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Transfers: postgres.NewTransfersRepo("transfers", db),
	}
}
