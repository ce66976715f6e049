package book

import (
	"context"
	"fmt"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/jmehdipour/ratebook/internal/repository"
)

// Quote is a priced lane, answered from the customer's rates or the tariff table.
type Quote struct {
	Customer string       `json:"customer,omitempty"`
	Source   model.Kind   `json:"source"`
	Record   model.Record `json:"record"`
}

// Quote looks key up in the customer's rates and falls back to the tariff table.
// An empty customer goes straight to the tariffs.
func (s *Service) Quote(ctx context.Context, customer string, key model.Key) (Quote, error) {
	key = key.Normalize()
	if name := model.NormalizeName(customer); name != "" {
		r, err := s.store.Find(ctx, model.CustomerScope(name), key)
		if err != nil {
			return Quote{}, err
		}
		if r != nil {
			return Quote{Customer: name, Source: model.KindRate, Record: *r}, nil
		}
	}
	r, err := s.store.Find(ctx, model.GlobalScope, key)
	if err != nil {
		return Quote{}, err
	}
	if r == nil {
		return Quote{}, fmt.Errorf("no rate or tariff for %s: %w", key, repository.ErrNotFound)
	}
	return Quote{Customer: model.NormalizeName(customer), Source: model.KindTariff, Record: *r}, nil
}
