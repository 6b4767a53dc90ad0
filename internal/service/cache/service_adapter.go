package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "VitaPull/pkg/cache"
)

// ServiceCache adapts a pkg/cache Service (redis, memory or layered) to the
// BytesCache API used by handlers. Values are stored as strings, the one
// representation every Service backend round-trips unchanged.
type ServiceCache struct {
	svc pkgcache.Service
}

func NewServiceCache(svc pkgcache.Service) *ServiceCache {
	return &ServiceCache{svc: svc}
}

func (s *ServiceCache) GetBytes(key string) ([]byte, bool, error) {
	var raw string
	err := s.svc.Get(context.Background(), key, &raw)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *ServiceCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	return s.svc.Set(context.Background(), key, string(value), ttl)
}

var _ BytesCache = (*ServiceCache)(nil)
