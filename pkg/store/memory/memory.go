// Package memory provides in-memory record and entity stores. They back
// `fern autolink --fixtures` offline runs and the linking tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

var (
	ErrAlreadyLinked   = errors.New("service is already linked")
	ErrServiceNotFound = errors.New("service not found")
	ErrDuplicateSlug   = errors.New("provider slug already exists")
)

// Service is a stored service listing.
type Service struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Provider   string  `json:"provider"`
	Location   *string `json:"location,omitempty"`
	ProviderID string  `json:"provider_id,omitempty"`
}

// Store implements the record store, entity store and transactor on maps.
// Transactions snapshot the whole store and restore it on error; they do not
// isolate concurrent writers.
type Store struct {
	mu        sync.Mutex
	services  map[string]*Service
	providers map[string]models.Provider
	nextID    func() string
	mutations int

	listErr    error
	createErrs map[string]error
	linkErrs   map[string]error
}

func NewStore() *Store {
	return &Store{
		services:   make(map[string]*Service),
		providers:  make(map[string]models.Provider),
		nextID:     uuid.NewString,
		createErrs: make(map[string]error),
		linkErrs:   make(map[string]error),
	}
}

// WithIDs replaces uuid generation, e.g. for deterministic tests.
func (s *Store) WithIDs(next func() string) *Store {
	s.nextID = next
	return s
}

// AddProvider seeds a provider.
func (s *Store) AddProvider(p models.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
}

// AddService seeds a service listing.
func (s *Store) AddService(svc Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := svc
	s.services[svc.ID] = &cp
}

// FailList makes ListUnlinked and ListAll return err.
func (s *Store) FailList(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// FailCreate makes Create fail for providers with this folded name.
func (s *Store) FailCreate(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErrs[normalizers.Fold(name)] = err
}

// FailLink makes SetLink fail for this service.
func (s *Store) FailLink(serviceID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkErrs[serviceID] = err
}

// Mutations counts writes. Writes undone by a rolled back WithinTx are not counted.
func (s *Store) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

// Providers returns all providers ordered by id.
func (s *Store) Providers() []models.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LinkOf returns the provider id a service is linked to.
func (s *Store) LinkOf(serviceID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc, ok := s.services[serviceID]; ok {
		return svc.ProviderID
	}
	return ""
}

func sortServices(services []Service) {
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
}

func (s *Store) ListUnlinked(ctx context.Context) ([]models.UnlinkedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.UnlinkedRecord, 0)
	for _, svc := range s.services {
		if svc.ProviderID != "" {
			continue
		}
		out = append(out, models.UnlinkedRecord{
			ID:           svc.ID,
			Title:        svc.Title,
			RawName:      svc.Provider,
			LocationHint: svc.Location,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetLink(ctx context.Context, recordID, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.linkErrs[recordID]; ok {
		return err
	}
	svc, ok := s.services[recordID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, recordID)
	}
	if svc.ProviderID != "" {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, recordID)
	}
	svc.ProviderID = entityID
	s.mutations++
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.CandidateEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.CandidateEntity, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, models.CandidateEntity{
			ID:            p.ID,
			CanonicalName: p.Name,
			Slug:          p.Slug,
			Location:      p.Location,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Create(ctx context.Context, entity models.NewEntity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.createErrs[normalizers.Fold(entity.CanonicalName)]; ok {
		return "", err
	}
	for _, p := range s.providers {
		if p.Slug == entity.Slug {
			return "", fmt.Errorf("%w: %s", ErrDuplicateSlug, entity.Slug)
		}
	}

	now := time.Now().UTC()
	id := s.nextID()
	s.providers[id] = models.Provider{
		ID:          id,
		Name:        entity.CanonicalName,
		Slug:        entity.Slug,
		Location:    entity.Location,
		Email:       entity.Email,
		Phone:       entity.Phone,
		Description: entity.Description,
		AutoCreated: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mutations++
	return id, nil
}

// WithinTx restores the store to its state before fn when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	services := make(map[string]Service, len(s.services))
	for id, svc := range s.services {
		services[id] = *svc
	}
	providers := make(map[string]models.Provider, len(s.providers))
	for id, p := range s.providers {
		providers[id] = p
	}
	mutations := s.mutations
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.services = make(map[string]*Service, len(services))
		for id, svc := range services {
			cp := svc
			s.services[id] = &cp
		}
		s.providers = providers
		s.mutations = mutations
		s.mu.Unlock()
		return err
	}
	return nil
}
