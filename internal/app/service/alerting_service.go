package service

import (
	"context"
	"time"

	"whalewatch/internal/app/port"
	"whalewatch/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

const alertingCacheKey = "telegram_status"

// AlertingService exposes the upstream Telegram alerting status. The
// probe result is cached for a TTL; any probe failure is reported as
// inactive rather than an error.
type AlertingService struct {
	api    port.WhaleAPI
	store  *Store
	logger port.Logger
	cache  *cache.Cache
}

// NewAlertingService creates the service with the given cache TTL.
func NewAlertingService(api port.WhaleAPI, store *Store, ttl time.Duration, logger port.Logger) *AlertingService {
	return &AlertingService{
		api:    api,
		store:  store,
		logger: logger,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Status returns the current alerting status, probing upstream only when
// the cached result has expired.
func (s *AlertingService) Status(ctx context.Context) entity.AlertingStatus {
	if cached, ok := s.cache.Get(alertingCacheKey); ok {
		return cached.(entity.AlertingStatus)
	}

	status, err := s.api.AlertingStatus(ctx)
	if err != nil {
		s.logger.Debug("Alerting status probe failed, reporting inactive", "error", err)
		status = entity.AlertingStatus{}
	}

	s.cache.Set(alertingCacheKey, status, cache.DefaultExpiration)
	s.store.SetAlertingStatus(status)
	return status
}
