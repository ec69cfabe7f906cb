package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"puttr/internal/model"
	"puttr/internal/repository"
	"puttr/internal/storage"
	"puttr/internal/token"
	"puttr/internal/upload"
)

var (
	// ErrUnauthorized covers missing, unknown and expired tokens alike.
	ErrUnauthorized    = errors.New("invalid or expired token")
	ErrContentRequired = errors.New("content is required")
	// ErrStorage wraps every backend or ledger failure of an upload. It is
	// never retried.
	ErrStorage        = errors.New("storage failure")
	ErrLedgerDisabled = errors.New("upload ledger is not configured")
)

// UploadListResult is the service-level DTO for paginated ledger records.
type UploadListResult struct {
	Items []model.Upload `json:"data"`
	Total int            `json:"total"`
}

// UploadService defines the use cases behind the HTTP endpoints.
type UploadService interface {
	// IssueToken mints a fresh bearer token.
	IssueToken(ctx context.Context) string

	// Upload validates tok, then writes content to a path derived from the
	// current time, tok and the extension resolved from contentType. The
	// returned record's Path is the backend-relative key.
	Upload(ctx context.Context, tok string, content []byte, contentType string) (*model.Upload, error)

	// List returns ledger records using limit and offset.
	List(ctx context.Context, limit, offset int) (*UploadListResult, error)

	// Ping checks the storage backend and, when configured, the ledger.
	Ping(ctx context.Context) error
}

type uploadService struct {
	tokens  *token.Authority
	store   storage.Storage
	repo    repository.UploadRepository
	metrics *Metrics
	now     func() time.Time
	tracer  trace.Tracer
}

// Option configures the upload service.
type Option func(*uploadService)

// WithLedger records every upload in repo. Without it List returns
// ErrLedgerDisabled.
func WithLedger(repo repository.UploadRepository) Option {
	return func(s *uploadService) { s.repo = repo }
}

// WithMetrics reports token and upload counters to m.
func WithMetrics(m *Metrics) Option {
	return func(s *uploadService) { s.metrics = m }
}

// WithClock replaces time.Now when deriving upload paths.
func WithClock(now func() time.Time) Option {
	return func(s *uploadService) { s.now = now }
}

// NewUploadService constructs a new UploadService. The token authority is
// owned by the caller and may be shared with other components.
func NewUploadService(tokens *token.Authority, store storage.Storage, opts ...Option) UploadService {
	s := &uploadService{
		tokens: tokens,
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer("puttr/internal/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *uploadService) IssueToken(ctx context.Context) string {
	_, span := s.tracer.Start(ctx, "service.IssueToken")
	defer span.End()

	tok := s.tokens.Issue()
	s.metrics.tokenIssued()
	return tok
}

func (s *uploadService) Upload(ctx context.Context, tok string, content []byte, contentType string) (*model.Upload, error) {
	ctx, span := s.tracer.Start(ctx, "service.Upload")
	defer span.End()

	if !s.tokens.Validate(tok) {
		s.metrics.upload(resultUnauthorized, 0)
		return nil, ErrUnauthorized
	}
	if len(content) == 0 {
		s.metrics.upload(resultEmpty, 0)
		return nil, ErrContentRequired
	}

	now := s.now().UTC()
	ext := upload.ResolveExtension(contentType)
	key := upload.DerivePath("", tok, now, ext)
	span.SetAttributes(
		attribute.String("upload.extension", ext),
		attribute.Int("upload.size", len(content)),
	)

	info, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: contentType,
		Metadata:    map[string]string{"extension": ext},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage put failed")
		s.metrics.upload(resultFailed, 0)
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	rec := &model.Upload{
		ID:          uuid.New().String(),
		Path:        filepath.ToSlash(key),
		Token:       tok,
		Size:        info.Size,
		ContentType: contentType,
		Extension:   ext,
		CreatedAt:   now,
	}

	if s.repo != nil {
		stored, err := s.repo.Create(ctx, rec)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "ledger insert failed")
			s.metrics.upload(resultFailed, 0)
			// Roll back so that the ledger and the backend agree.
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				return nil, fmt.Errorf("%w: ledger save failed: %v; rollback delete failed: %v", ErrStorage, err, delErr)
			}
			return nil, fmt.Errorf("%w: ledger save failed: %w", ErrStorage, err)
		}
		rec = stored
	}

	s.metrics.upload(resultStored, rec.Size)
	return rec, nil
}

func (s *uploadService) List(ctx context.Context, limit, offset int) (*UploadListResult, error) {
	if s.repo == nil {
		return nil, ErrLedgerDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UploadListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *uploadService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if s.repo != nil {
		if err := s.repo.Ping(ctx); err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
	}
	return nil
}
