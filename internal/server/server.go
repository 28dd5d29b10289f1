// Package server exposes the import pipeline over HTTP for the local
// review UI: upload a statement, inspect the pending batch, then
// commit or discard it.
package server

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vesta-fin/vesta/internal/buildinfo"
	"github.com/vesta-fin/vesta/internal/importer"
	"github.com/vesta-fin/vesta/internal/logger"
	"github.com/vesta-fin/vesta/internal/model"
	"github.com/vesta-fin/vesta/internal/statement"
)

// AccountLister is the read-only account surface of the store.
type AccountLister interface {
	Accounts(ctx context.Context) ([]model.Account, error)
}

// Server wires the pipeline service into a fiber app.
type Server struct {
	svc      *importer.Service
	accounts AccountLister
	formats  []string
	log      zerolog.Logger
}

// New creates a Server.
func New(svc *importer.Service, accounts AccountLister, registry *statement.Registry, log zerolog.Logger) *Server {
	return &Server{svc: svc, accounts: accounts, formats: registry.Formats(), log: log}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "vesta",
		DisableStartupMessage: true,
	})

	app.Use(s.scopeLogger)

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/banks", s.handleBanks)
	api.Get("/accounts", s.handleAccounts)
	api.Post("/import", s.handleImport)
	api.Get("/batches", s.handleBatches)
	api.Get("/batches/:id", s.handleBatch)
	api.Post("/batches/:id/commit", s.handleCommit)
	api.Post("/batches/:id/discard", s.handleDiscard)
	return app
}

// Listen starts the HTTP server on addr.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("serving import API")
	return s.App().Listen(addr)
}

type errorResponse struct {
	Error string `json:"error"`
}

type accountView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Bank     string `json:"bank"`
	LastFour string `json:"last_four"`
}

type transactionView struct {
	ID           string `json:"id,omitempty"`
	CandidateID  string `json:"candidate_id"`
	AccountID    int    `json:"account_id"`
	Amount       int64  `json:"amount_minor"`
	Currency     string `json:"currency"`
	Timestamp    string `json:"timestamp"`
	Direction    string `json:"direction"`
	Description  string `json:"description"`
	Reference    string `json:"reference,omitempty"`
	MCC          string `json:"mcc,omitempty"`
	CategoryID   int    `json:"category_id,omitempty"`
	ContactID    string `json:"contact_id,omitempty"`
	TransferLink string `json:"transfer_link,omitempty"`
}

type rejectedView struct {
	Row         int    `json:"row,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason"`
	Detail      string `json:"detail,omitempty"`
}

type noteView struct {
	CandidateID string `json:"candidate_id"`
	Note        string `json:"note"`
}

type batchView struct {
	ID           string            `json:"id"`
	AccountID    int               `json:"account_id"`
	SourceFormat string            `json:"source_format"`
	FileName     string            `json:"file_name"`
	Status       string            `json:"status"`
	CreatedAt    string            `json:"created_at"`
	Candidates   []transactionView `json:"candidates"`
	Rejected     []rejectedView    `json:"rejected"`
	Notes        []noteView        `json:"notes,omitempty"`
}

func viewOf(b *model.ImportBatch) batchView {
	v := batchView{
		ID:           b.ID,
		AccountID:    b.AccountID,
		SourceFormat: b.SourceFormat,
		FileName:     b.FileName,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		Candidates:   []transactionView{},
		Rejected:     []rejectedView{},
	}
	for _, c := range b.Candidates {
		ts := c.Timestamp.Format("2006-01-02")
		if c.HasTime {
			ts = c.Timestamp.Format("2006-01-02 15:04")
		}
		v.Candidates = append(v.Candidates, transactionView{
			ID:           c.ID,
			CandidateID:  c.CandidateID,
			AccountID:    c.AccountID,
			Amount:       c.Amount,
			Currency:     c.Currency,
			Timestamp:    ts,
			Direction:    string(c.Direction),
			Description:  c.Description,
			Reference:    c.Reference,
			MCC:          c.MCC,
			CategoryID:   c.CategoryID,
			ContactID:    c.ContactID,
			TransferLink: c.TransferLink,
		})
	}
	for _, r := range b.Rejected {
		v.Rejected = append(v.Rejected, rejectedView{
			Row:         r.Row,
			Reference:   r.Reference,
			Description: r.Description,
			Reason:      string(r.Reason),
			Detail:      r.Detail,
		})
	}
	for _, n := range b.Notes {
		v.Notes = append(v.Notes, noteView{CandidateID: n.CandidateID, Note: n.Note})
	}
	return v
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleBanks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"banks": s.formats})
}

func (s *Server) handleAccounts(c *fiber.Ctx) error {
	accounts, err := s.accounts.Accounts(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	views := []accountView{}
	for _, a := range accounts {
		views = append(views, accountView{ID: a.ID, Name: a.Name, Bank: a.Bank, LastFour: a.LastFour})
	}
	return c.JSON(fiber.Map{"accounts": views})
}

func (s *Server) handleImport(c *fiber.Ctx) error {
	accountID, err := strconv.Atoi(c.FormValue("account_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "account_id form field is required"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "no file uploaded, use form field 'file'"})
	}
	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	batch, err := s.svc.RunImport(c.Context(), accountID, fileHeader.Filename, raw, c.FormValue("bank"))
	if err != nil {
		return s.importError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(viewOf(batch))
}

func (s *Server) handleBatches(c *fiber.Ctx) error {
	views := []batchView{}
	for _, b := range s.svc.PendingBatches() {
		views = append(views, viewOf(b))
	}
	return c.JSON(fiber.Map{"batches": views})
}

func (s *Server) handleBatch(c *fiber.Ctx) error {
	batch, ok := s.svc.Batch(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "batch not found"})
	}
	return c.JSON(viewOf(batch))
}

func (s *Server) handleCommit(c *fiber.Ctx) error {
	batch, err := s.svc.Commit(c.Context(), c.Params("id"))
	if err != nil {
		return s.lifecycleError(c, err)
	}
	return c.JSON(viewOf(batch))
}

func (s *Server) handleDiscard(c *fiber.Ctx) error {
	batch, err := s.svc.Discard(c.Context(), c.Params("id"))
	if err != nil {
		return s.lifecycleError(c, err)
	}
	return c.JSON(viewOf(batch))
}

// scopeLogger attaches a request-scoped logger to the user context so
// downstream logging carries the route.
func (s *Server) scopeLogger(c *fiber.Ctx) error {
	reqLog := s.log.With().Str("method", c.Method()).Str("path", c.Path()).Logger()
	c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))
	return c.Next()
}

func (s *Server) importError(c *fiber.Ctx, err error) error {
	var perr *statement.ParseError
	if errors.As(err, &perr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{Error: perr.Error()})
	}
	if errors.Is(err, importer.ErrAccountNotConfigured) {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}
	log := logger.FromContext(c.UserContext())
	log.Error().Err(err).Msg("import failed")
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
}

func (s *Server) lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, importer.ErrBatchNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: err.Error()})
	case errors.Is(err, importer.ErrBatchNotPending):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{Error: err.Error()})
	default:
		log := logger.FromContext(c.UserContext())
		log.Error().Err(err).Msg("batch lifecycle")
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
}
