package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"modelhaus/api/internal/catalog"
	"modelhaus/api/internal/config"
)

const catalogCacheKey = "catalog:cards"

// CatalogService serves the storefront listing: the static product
// source filtered and mapped to cards, cached in redis between reads.
type CatalogService struct {
	cache *redis.Client
	cfg   config.CatalogConfig
	log   zerolog.Logger
}

func NewCatalogService(cache *redis.Client, cfg config.CatalogConfig, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		cache: cache,
		cfg:   cfg,
		log:   log.With().Str("component", "catalog").Logger(),
	}
}

// Cards returns the rendered product cards, from cache when fresh.
func (s *CatalogService) Cards(ctx context.Context) ([]catalog.Card, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, catalogCacheKey).Bytes(); err == nil {
			var cards []catalog.Card
			if err := json.Unmarshal(raw, &cards); err == nil {
				return cards, nil
			}
		}
	}

	records, err := s.loadSource()
	if err != nil {
		return nil, err
	}
	cards := catalog.BuildCards(records, s.cfg.Categories, s.cfg.ViewerPage)

	if s.cache != nil {
		if raw, err := json.Marshal(cards); err == nil {
			if err := s.cache.Set(ctx, catalogCacheKey, raw, s.cfg.CacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("catalog cache write failed")
			}
		}
	}

	return cards, nil
}

func (s *CatalogService) loadSource() ([]catalog.Record, error) {
	raw, err := os.ReadFile(s.cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read catalog source: %w", err)
	}
	var records []catalog.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse catalog source: %w", err)
	}
	return records, nil
}
