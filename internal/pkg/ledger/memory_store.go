package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quotebeam/quotebeam/app/models"
	"github.com/quotebeam/quotebeam/internal/pkg/checkout"
	"github.com/quotebeam/quotebeam/internal/pkg/provisioning"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*models.WebhookEvent
	nextID  uint
}

// NewMemoryStore creates an in-process ledger with the same first-writer
// semantics as the GORM store. Used by tests and single-node dev setups.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]*models.WebhookEvent)}
}

func (s *memoryStore) Begin(ctx context.Context, ev *checkout.Event) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(ev.ID)
	if existing, ok := s.records[id]; ok {
		cp := *existing
		return &Outcome{ShouldProcess: false, Prior: &cp}, nil
	}

	s.nextID++
	rec := &models.WebhookEvent{
		ID:          s.nextID,
		EventID:     id,
		EventType:   ev.Type,
		Livemode:    ev.Livemode,
		Status:      models.WebhookStatusProcessing,
		PayloadJSON: string(ev.Payload),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.records[id] = rec
	cp := *rec
	return &Outcome{ShouldProcess: true, Prior: &cp}, nil
}

func (s *memoryStore) Complete(ctx context.Context, eventID string, result *provisioning.Result, procErr error) error {
	resultJSON, err := encodeResult(result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[strings.TrimSpace(eventID)]
	if !ok {
		return ErrUnknownEvent
	}
	if procErr != nil {
		rec.Status = models.WebhookStatusFailed
		rec.ProcessingError = procErr.Error()
	} else {
		rec.Status = models.WebhookStatusSucceeded
		rec.ProcessingError = ""
	}
	rec.ResultJSON = resultJSON
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[strings.TrimSpace(eventID)]
	if !ok {
		return nil, ErrUnknownEvent
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryStore) List(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]models.WebhookEvent, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
