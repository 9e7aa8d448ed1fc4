package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goeta/internal/features"
	"goeta/internal/models"
	"goeta/pkg/logger"
	"goeta/pkg/traffic"
	"goeta/pkg/weather"
)

// memCache is an in-memory Cache for tests. TTLs are accepted and ignored.
type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
	lists    map[string][][]byte
	fail     bool
}

func newMemCache() *memCache {
	return &memCache{
		data:     make(map[string][]byte),
		counters: make(map[string]int64),
		lists:    make(map[string][][]byte),
	}
}

var errMemCacheDown = errors.New("cache down")

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.fail {
		return errMemCacheDown
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.fail {
		return errMemCacheDown
	}
	m.mu.Lock()
	data, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return errors.New("cache: key not found")
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.counters, k)
		delete(m.lists, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memCache) Increment(_ context.Context, key string) (int64, error) {
	if m.fail {
		return 0, errMemCacheDown
	}
	m.mu.Lock()
	m.counters[key]++
	val := m.counters[key]
	m.mu.Unlock()
	return val, nil
}

func (m *memCache) GetCounter(_ context.Context, key string) (int64, error) {
	if m.fail {
		return 0, errMemCacheDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[key], nil
}

func (m *memCache) PushList(_ context.Context, key string, value interface{}, _ time.Duration) (int64, error) {
	if m.fail {
		return 0, errMemCacheDown
	}
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.lists[key] = append(m.lists[key], data)
	length := int64(len(m.lists[key]))
	m.mu.Unlock()
	return length, nil
}

func (m *memCache) GetList(_ context.Context, key string) ([]string, error) {
	if m.fail {
		return nil, errMemCacheDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.lists[key]))
	for _, entry := range m.lists[key] {
		out = append(out, string(entry))
	}
	return out, nil
}

func (m *memCache) ListLength(_ context.Context, key string) (int64, error) {
	if m.fail {
		return 0, errMemCacheDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

func (m *memCache) Ping(_ context.Context) error {
	if m.fail {
		return errMemCacheDown
	}
	return nil
}

// stubTrafficProvider returns a fixed conditions value or an error.
type stubTrafficProvider struct {
	conditions *traffic.Conditions
	err        error
	calls      int
}

func (s *stubTrafficProvider) GetConditions(context.Context, float64, float64, float64, float64) (*traffic.Conditions, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.conditions, nil
}

type stubWeatherProvider struct {
	conditions *weather.Conditions
	err        error
	calls      int
}

func (s *stubWeatherProvider) GetCurrent(context.Context, float64, float64) (*weather.Conditions, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.conditions, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	require.NoError(t, err)
	return log
}

var (
	testPickup  = models.Location{Latitude: -1.2850, Longitude: 36.8200}
	testDropoff = models.Location{Latitude: -1.2630, Longitude: 36.8030}
)

func testExtractor() *features.Extractor {
	return features.NewExtractor()
}
