// Package presenter exposes the administrative HTTP surface: a health
// check and token-guarded transfer ledger browsing. It is a thin boundary
// over the repository, the relay pipeline does not depend on it.
package presenter

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chainflow/token-relay/config"
	"github.com/chainflow/token-relay/logging"
	"github.com/chainflow/token-relay/presenter/http/middleware"
	"github.com/chainflow/token-relay/presenter/http/render"
	"github.com/chainflow/token-relay/repository"
)

const defaultPageSize = 50

type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	cfg    *config.PresenterConfig
	root   chi.Router
}

func NewPresenter(logger logging.Logger, repo *repository.Repo, cfg *config.PresenterConfig) *Presenter {
	p := &Presenter{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
		root:   chi.NewMux(),
	}
	p.root.Use(chimiddleware.Throttle(5))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(logger))
	p.root.Use(middleware.Recoverer)
	p.root.Get("/ping", p.Ping)
	p.root.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuth(cfg.AuthToken))
		r.Get("/transfers", p.ListTransfers)
		r.Get("/transfers/{txHash:0x[0-9a-fA-F]{64}}", p.GetTransfer)
	})
	return p
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) Handler() http.Handler {
	return p.root
}

func (p *Presenter) Ping(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, map[string]string{"message": "pong"})
}

func (p *Presenter) ListTransfers(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || limit == 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	offset, _ := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64)

	transfers, err := p.repo.Transfers.Find(r.Context(), limit, offset)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	render.JSON(w, r, http.StatusOK, NewTransfersResult(transfers))
}

func (p *Presenter) GetTransfer(w http.ResponseWriter, r *http.Request) {
	txHash := common.HexToHash(chi.URLParam(r, "txHash"))

	transfers, err := p.repo.Transfers.FindByIncomingTxHash(r.Context(), txHash)
	if err != nil {
		render.Error(w, r, err)
		return
	}
	if len(transfers) == 0 {
		render.JSON(w, r, http.StatusNotFound, map[string]string{"error": "transfer not found"})
		return
	}
	render.JSON(w, r, http.StatusOK, NewTransfersResult(transfers))
}
