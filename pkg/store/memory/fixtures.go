package memory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Fixtures is the JSON document accepted by LoadFixtures.
type Fixtures struct {
	Providers []models.Provider `json:"providers"`
	Services  []Service         `json:"services"`
}

// LoadFixtures builds a store seeded from a JSON fixtures document.
func LoadFixtures(r io.Reader) (*Store, error) {
	var f Fixtures
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	store := NewStore()
	for _, p := range f.Providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider %q has no id", p.Name)
		}
		store.AddProvider(p)
	}
	for _, svc := range f.Services {
		if svc.ID == "" {
			return nil, fmt.Errorf("service %q has no id", svc.Title)
		}
		store.AddService(svc)
	}
	return store, nil
}

// Snapshot returns the store's current contents as fixtures.
func (s *Store) Snapshot() Fixtures {
	s.mu.Lock()
	services := make([]Service, 0, len(s.services))
	for _, svc := range s.services {
		services = append(services, *svc)
	}
	s.mu.Unlock()

	sortServices(services)
	return Fixtures{Providers: s.Providers(), Services: services}
}
