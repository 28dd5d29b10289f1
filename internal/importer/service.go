// Package importer runs statements through the import pipeline and
// owns the batch lifecycle: parse, normalize, classify, deduplicate,
// link transfers, resolve contacts, then hold the batch in
// pending-review until it is committed or discarded.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vesta-fin/vesta/internal/auditlog"
	"github.com/vesta-fin/vesta/internal/classify"
	"github.com/vesta-fin/vesta/internal/contacts"
	"github.com/vesta-fin/vesta/internal/dedup"
	"github.com/vesta-fin/vesta/internal/gitops"
	"github.com/vesta-fin/vesta/internal/model"
	"github.com/vesta-fin/vesta/internal/normalize"
	"github.com/vesta-fin/vesta/internal/statement"
	"github.com/vesta-fin/vesta/internal/transfer"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	AccountByID(ctx context.Context, id int) (*model.Account, error)
	AccountByPhone(ctx context.Context, phone string) (*model.Account, error)
	LookupExisting(ctx context.Context, accountID int) ([]dedup.ExistingTransaction, error)
	// CommitBatch persists candidates and returns them with assigned
	// ids, or the candidate ids whose references raced an earlier
	// commit. A non-empty conflict list means nothing was written.
	CommitBatch(ctx context.Context, accountID int, batchID string, candidates []model.CanonicalTransaction) ([]model.CanonicalTransaction, []string, error)
}

// GitOptions controls auto-committing the data directory after a batch
// commits.
type GitOptions struct {
	Enabled     bool
	AuthorName  string
	AuthorEmail string
}

// Config carries the pipeline tolerances and the data directory used
// for the audit log.
type Config struct {
	Currency string
	Dedup    dedup.Config
	Transfer transfer.Config
	DataDir  string
	Git      GitOptions
}

var (
	// ErrBatchNotFound reports an unknown batch id.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrBatchNotPending reports a commit or discard against a batch
	// that already left pending-review.
	ErrBatchNotPending = errors.New("batch is not pending review")
	// ErrAccountNotConfigured reports an import against an account the
	// store does not know.
	ErrAccountNotConfigured = errors.New("account not configured")
)

// CommitConflict is returned when a commit keeps racing concurrent
// imports after the duplicate re-check retry.
type CommitConflict struct {
	CandidateIDs []string
}

func (e *CommitConflict) Error() string {
	return fmt.Sprintf("commit raced concurrent imports for %d candidates", len(e.CandidateIDs))
}

// Service is the import pipeline. Pending batches live in memory;
// only committed transactions reach the store.
type Service struct {
	store    Store
	rules    classify.RuleSource
	resolver *contacts.Resolver
	registry *statement.Registry
	norm     *normalize.Normalizer
	cfg      Config
	log      zerolog.Logger

	mu      sync.Mutex
	batches map[string]*model.ImportBatch
}

// NewService wires the pipeline stages together.
func NewService(st Store, rules classify.RuleSource, contactStore contacts.Store, registry *statement.Registry, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:    st,
		rules:    rules,
		resolver: contacts.NewResolver(contactStore),
		registry: registry,
		norm:     normalize.New(cfg.Currency),
		cfg:      cfg,
		log:      log,
		batches:  make(map[string]*model.ImportBatch),
	}
}

// RunImport parses raw statement bytes for one account and returns the
// resulting pending-review batch. declaredFormat overrides content
// detection when non-empty. Structural file failures abort the run;
// row-level problems become rejections on the batch.
func (s *Service) RunImport(ctx context.Context, accountID int, fileName string, raw []byte, declaredFormat string) (*model.ImportBatch, error) {
	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("looking up account %d: %w", accountID, err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrAccountNotConfigured)
	}

	handler, err := s.pickHandler(raw, declaredFormat)
	if err != nil {
		return nil, err
	}

	result, err := handler.Parse(raw)
	if err != nil {
		return nil, err
	}

	batch := &model.ImportBatch{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		SourceFormat: handler.Format(),
		FileName:     fileName,
		Status:       model.StatusPendingReview,
		CreatedAt:    time.Now(),
		Rejected:     result.Rejected,
	}

	classifier, err := classify.New(ctx, s.rules)
	if err != nil {
		return nil, err
	}

	candidates, rejected, err := s.normalizeAll(ctx, classifier, accountID, result.Records)
	if err != nil {
		return nil, err
	}
	batch.Rejected = append(batch.Rejected, rejected...)

	candidates, rejected, err = s.deduplicate(ctx, accountID, candidates)
	if err != nil {
		return nil, err
	}
	batch.Rejected = append(batch.Rejected, rejected...)

	if err := s.resolveContacts(ctx, candidates); err != nil {
		return nil, err
	}

	candidates, err = s.enrichCounterparts(ctx, classifier, accountID, candidates)
	if err != nil {
		return nil, err
	}

	linker := transfer.New(s.cfg.Transfer)
	_, notes := linker.Link(candidates)
	batch.Candidates = candidates
	batch.Notes = notes

	s.mu.Lock()
	s.batches[batch.ID] = batch
	s.mu.Unlock()

	s.audit(auditlog.Entry{
		Timestamp: time.Now(),
		BatchID:   batch.ID,
		AccountID: fmt.Sprintf("%d", accountID),
		Event:     auditlog.EventImported,
		Format:    batch.SourceFormat,
		Accepted:  len(batch.Candidates),
		Rejected:  len(batch.Rejected),
		Details:   fileName,
	})

	s.log.Info().
		Str("batch_id", batch.ID).
		Str("format", batch.SourceFormat).
		Int("candidates", len(batch.Candidates)).
		Int("rejected", len(batch.Rejected)).
		Msg("statement imported, pending review")

	return batch, nil
}

// Batch returns a batch by id.
func (s *Service) Batch(batchID string) (*model.ImportBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	return b, ok
}

// PendingBatches returns all batches still awaiting review.
func (s *Service) PendingBatches() []*model.ImportBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ImportBatch
	for _, b := range s.batches {
		if b.Pending() {
			out = append(out, b)
		}
	}
	return out
}

// Commit persists a pending batch's candidates. Candidates whose
// references were committed by a concurrent import in the meantime are
// converted to duplicate rejections and the commit retries once with
// the remainder.
func (s *Service) Commit(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	s.mu.Lock()
	batch, ok := s.batches[batchID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrBatchNotFound)
	}
	if !batch.Pending() {
		return nil, fmt.Errorf("batch %s is already %s: %w", batchID, batch.Status, ErrBatchNotPending)
	}

	byAccount := make(map[int][]model.CanonicalTransaction)
	var order []int
	for _, c := range batch.Candidates {
		if _, seen := byAccount[c.AccountID]; !seen {
			order = append(order, c.AccountID)
		}
		byAccount[c.AccountID] = append(byAccount[c.AccountID], c)
	}

	var committed []model.CanonicalTransaction
	for _, accountID := range order {
		group, err := s.commitGroup(ctx, batch, accountID, byAccount[accountID])
		if err != nil {
			return nil, err
		}
		committed = append(committed, group...)
	}

	batch.Candidates = committed
	batch.Status = model.StatusCommitted

	s.audit(auditlog.Entry{
		Timestamp: time.Now(),
		BatchID:   batch.ID,
		AccountID: fmt.Sprintf("%d", batch.AccountID),
		Event:     auditlog.EventCommitted,
		Format:    batch.SourceFormat,
		Accepted:  len(batch.Candidates),
		Rejected:  len(batch.Rejected),
		Details:   batch.FileName,
	})
	s.autoCommitGit(batch)

	s.log.Info().
		Str("batch_id", batch.ID).
		Int("committed", len(batch.Candidates)).
		Msg("batch committed")

	return batch, nil
}

// Discard marks a pending batch as discarded. Nothing reaches the
// store.
func (s *Service) Discard(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	s.mu.Lock()
	batch, ok := s.batches[batchID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", batchID, ErrBatchNotFound)
	}
	if !batch.Pending() {
		return nil, fmt.Errorf("batch %s is already %s: %w", batchID, batch.Status, ErrBatchNotPending)
	}

	batch.Status = model.StatusDiscarded

	s.audit(auditlog.Entry{
		Timestamp: time.Now(),
		BatchID:   batch.ID,
		AccountID: fmt.Sprintf("%d", batch.AccountID),
		Event:     auditlog.EventDiscarded,
		Format:    batch.SourceFormat,
		Accepted:  len(batch.Candidates),
		Rejected:  len(batch.Rejected),
		Details:   batch.FileName,
	})

	s.log.Info().Str("batch_id", batch.ID).Msg("batch discarded")
	return batch, nil
}

func (s *Service) pickHandler(raw []byte, declaredFormat string) (statement.Handler, error) {
	if declaredFormat != "" {
		h := s.registry.Get(declaredFormat)
		if h == nil {
			return nil, &statement.ParseError{
				Kind: statement.ErrUnsupportedFormat,
				Msg:  fmt.Sprintf("unknown format %q, supported: %s", declaredFormat, strings.Join(s.registry.Formats(), ", ")),
			}
		}
		return h, nil
	}
	return s.registry.Detect(raw)
}

func (s *Service) normalizeAll(ctx context.Context, classifier *classify.Classifier, accountID int, records []model.RawStatementRecord) ([]model.CanonicalTransaction, []model.RejectedRecord, error) {
	var candidates []model.CanonicalTransaction
	var rejected []model.RejectedRecord
	for _, rec := range records {
		txn, rej := s.norm.Normalize(rec)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		txn.AccountID = accountID

		categoryID, err := classifier.Classify(ctx, txn)
		if err != nil {
			return nil, nil, fmt.Errorf("classifying row %d: %w", rec.Row, err)
		}
		txn.CategoryID = categoryID
		candidates = append(candidates, txn)
	}
	return candidates, rejected, nil
}

// deduplicate drops candidates already committed for the account, and
// repeated references within the same file.
func (s *Service) deduplicate(ctx context.Context, accountID int, candidates []model.CanonicalTransaction) ([]model.CanonicalTransaction, []model.RejectedRecord, error) {
	existing, err := s.store.LookupExisting(ctx, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading committed transactions: %w", err)
	}
	detector := dedup.NewDetector(s.cfg.Dedup, existing)

	var kept []model.CanonicalTransaction
	var rejected []model.RejectedRecord
	seenRefs := make(map[string]struct{})
	for _, c := range candidates {
		if dup, detail := detector.IsDuplicate(c); dup {
			rejected = append(rejected, rejectionFor(c, detail))
			continue
		}
		if c.Reference != "" {
			if _, seen := seenRefs[c.Reference]; seen {
				rejected = append(rejected, rejectionFor(c, fmt.Sprintf("reference %s repeated in file", c.Reference)))
				continue
			}
			seenRefs[c.Reference] = struct{}{}
		}
		kept = append(kept, c)
	}
	return kept, rejected, nil
}

func rejectionFor(c model.CanonicalTransaction, detail string) model.RejectedRecord {
	return model.RejectedRecord{
		Reference:   c.Reference,
		Description: c.Description,
		Reason:      model.ReasonDuplicate,
		Detail:      detail,
	}
}

func (s *Service) resolveContacts(ctx context.Context, candidates []model.CanonicalTransaction) error {
	for i := range candidates {
		contact, err := s.resolver.Resolve(ctx, candidates[i])
		if err != nil {
			return fmt.Errorf("resolving contact: %w", err)
		}
		if contact != nil {
			candidates[i].ContactID = contact.ID
		}
	}
	return nil
}

// enrichCounterparts adds a credit-leg candidate on the receiving
// household account for outgoing fast-payment transfers whose phone
// belongs to another configured account. Counterparts are classified
// like any other candidate; the transfer description keeps them out of
// the uncategorized fallback.
func (s *Service) enrichCounterparts(ctx context.Context, classifier *classify.Classifier, accountID int, candidates []model.CanonicalTransaction) ([]model.CanonicalTransaction, error) {
	var added []model.CanonicalTransaction
	for _, c := range candidates {
		if c.Direction != model.DirectionDebit || !mentionsFastPayment(c.Description) {
			continue
		}
		phone, ok := contacts.ExtractPhone(c.Description)
		if !ok {
			continue
		}
		target, err := s.store.AccountByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("looking up account by phone: %w", err)
		}
		if target == nil || target.ID == accountID {
			continue
		}

		counterpart := c
		counterpart.CandidateID = uuid.NewString()
		counterpart.AccountID = target.ID
		counterpart.Amount = c.Magnitude()
		counterpart.Direction = model.DirectionCredit
		counterpart.ContactID = ""
		if c.Reference != "" {
			counterpart.Reference = "auto_" + c.Reference
		}
		categoryID, err := classifier.Classify(ctx, counterpart)
		if err != nil {
			return nil, fmt.Errorf("classifying counterpart for %s: %w", c.Reference, err)
		}
		counterpart.CategoryID = categoryID
		added = append(added, counterpart)
	}
	return append(candidates, added...), nil
}

func mentionsFastPayment(desc string) bool {
	lower := strings.ToLower(desc)
	return strings.Contains(lower, "сбп") || strings.Contains(lower, "sbp") ||
		strings.Contains(lower, "быстрых платежей")
}

// commitGroup commits one account's slice of a batch, converting raced
// candidates to duplicate rejections and retrying once.
func (s *Service) commitGroup(ctx context.Context, batch *model.ImportBatch, accountID int, group []model.CanonicalTransaction) ([]model.CanonicalTransaction, error) {
	committed, conflicts, err := s.store.CommitBatch(ctx, accountID, batch.ID, group)
	if err != nil {
		return nil, fmt.Errorf("committing batch %s: %w", batch.ID, err)
	}
	if len(conflicts) == 0 {
		return committed, nil
	}

	conflicted := make(map[string]struct{}, len(conflicts))
	for _, id := range conflicts {
		conflicted[id] = struct{}{}
	}
	var remainder []model.CanonicalTransaction
	for _, c := range group {
		if _, ok := conflicted[c.CandidateID]; ok {
			batch.Rejected = append(batch.Rejected, rejectionFor(c, "committed by a concurrent import"))
			continue
		}
		remainder = append(remainder, c)
	}
	if len(remainder) == 0 {
		return nil, nil
	}

	committed, conflicts, err = s.store.CommitBatch(ctx, accountID, batch.ID, remainder)
	if err != nil {
		return nil, fmt.Errorf("committing batch %s: %w", batch.ID, err)
	}
	if len(conflicts) > 0 {
		return nil, &CommitConflict{CandidateIDs: conflicts}
	}
	return committed, nil
}

// audit appends a lifecycle row; failures are logged, never fatal.
func (s *Service) audit(e auditlog.Entry) {
	if s.cfg.DataDir == "" {
		return
	}
	if err := auditlog.Append(s.cfg.DataDir, []auditlog.Entry{e}); err != nil {
		s.log.Warn().Err(err).Msg("writing import log")
	}
}

// autoCommitGit snapshots the data directory after a successful batch
// commit; best effort.
func (s *Service) autoCommitGit(batch *model.ImportBatch) {
	if !s.cfg.Git.Enabled || s.cfg.DataDir == "" || !gitops.IsRepo(s.cfg.DataDir) {
		return
	}
	msg := fmt.Sprintf("import: commit batch %s (%s, %d transactions)", batch.ID, batch.SourceFormat, len(batch.Candidates))
	if _, err := gitops.CommitAll(s.cfg.DataDir, msg, s.cfg.Git.AuthorName, s.cfg.Git.AuthorEmail); err != nil {
		s.log.Warn().Err(err).Msg("git auto-commit")
	}
}
