package masterdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

// Repository stores registry records.
type Repository interface {
	List(ctx context.Context, kind Kind, f ListFilters) ([]Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

// Service exposes the registries.
type Service interface {
	List(ctx context.Context, kind Kind, f ListFilters) ([]Record, error)
	CreateParty(ctx context.Context, kind Kind, in PartyInput) (Record, error)
	CreateProduct(ctx context.Context, in ProductInput) (Record, error)
	Delete(ctx context.Context, kind Kind, id string) error
	ProducerNames(ctx context.Context) (map[string]string, error)
}

// service implements Service interface
type service struct {
	repo  Repository
	now   shared.Clock
	newID func() string
}

// NewService creates a new master data service
func NewService(repo Repository) Service {
	return &service{repo: repo, now: shared.SystemClock, newID: uuid.NewString}
}

func (s *service) List(ctx context.Context, kind Kind, f ListFilters) ([]Record, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.List(ctx, kind, f)
}

func (s *service) CreateParty(ctx context.Context, kind Kind, in PartyInput) (Record, error) {
	if kind == KindProducts {
		return Record{}, fmt.Errorf("%w: products take a product payload", shared.ErrValidation)
	}
	in.Name = strings.TrimSpace(in.Name)
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	if err := shared.Validate(in); err != nil {
		return Record{}, err
	}
	return s.repo.Create(ctx, Record{
		ID:        s.newID(),
		Kind:      kind,
		Name:      in.Name,
		Document:  shared.Digits(in.Document),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		City:      strings.TrimSpace(in.City),
		State:     in.State,
		CreatedAt: s.now().UTC(),
	})
}

func (s *service) CreateProduct(ctx context.Context, in ProductInput) (Record, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if err := shared.Validate(in); err != nil {
		return Record{}, err
	}
	rec := Record{ID: s.newID(), Kind: KindProducts, Name: in.Name, Unit: in.Unit, CreatedAt: s.now().UTC()}
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return Record{}, fmt.Errorf("%w: unit_price must not be negative", shared.ErrValidation)
		}
		price := shared.Round2(*in.UnitPrice)
		rec.UnitPrice = &price
	}
	return s.repo.Create(ctx, rec)
}

func (s *service) Delete(ctx context.Context, kind Kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, kind, id)
}

// ProducerNames maps producer ids to names for the payment ledger.
func (s *service) ProducerNames(ctx context.Context) (map[string]string, error) {
	producers, err := s.repo.List(ctx, KindProducers, ListFilters{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(producers))
	for _, p := range producers {
		names[p.ID] = p.Name
	}
	return names, nil
}
