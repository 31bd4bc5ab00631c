package services

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"file-vault-api/config"
	"file-vault-api/internal/application/ports"
	"file-vault-api/internal/infrastructure/db/memory"
	"file-vault-api/internal/infrastructure/localfs"
	"file-vault-api/internal/infrastructure/mq"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []mq.Event
}

func (p *recordingPublisher) Publish(e mq.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

func (p *recordingPublisher) Events() []mq.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mq.Event(nil), p.events...)
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counters"}, []string{"result"})
}

type fixture struct {
	files   *FileService
	stats   ports.StatsService
	store   *memory.Store
	blobs   *localfs.Store
	events  *recordingPublisher
	counter *prometheus.CounterVec
}

func testVault() config.Vault {
	return config.Vault{
		QuotaBytes:      10 << 20,
		MaxUploadBytes:  50 << 20,
		DefaultPageSize: 50,
		MaxPageSize:     200,
	}
}

func newFixture(t *testing.T, mutate ...func(*config.Vault)) *fixture {
	t.Helper()

	cfg := testVault()
	for _, m := range mutate {
		m(&cfg)
	}

	logger := zap.NewNop()
	store := memory.New()
	blobs, err := localfs.New(t.TempDir(), logger)
	require.NoError(t, err)

	events := &recordingPublisher{}
	counter := newCounter()
	ledger := NewQuotaLedger(cfg.QuotaBytes)
	contents := NewContentStore(store, blobs, logger)

	return &fixture{
		files:   NewFileService(store, contents, ledger, events, cfg, logger, counter).(*FileService),
		stats:   NewStatsService(store, ledger, counter),
		store:   store,
		blobs:   blobs,
		events:  events,
		counter: counter,
	}
}
