package storage

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func init() {
	log.SetOutput(io.Discard)
}

// mockSaver implements the Saver interface for testing.
type mockSaver struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (ms *mockSaver) Save(msg Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.err != nil {
		return ms.err
	}
	ms.saved = append(ms.saved, msg.Subject())
	return nil
}

func (ms *mockSaver) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.saved)
}

type testEvent struct {
	subject string
}

func (e testEvent) Subject() string          { return e.subject }
func (e testEvent) ToBytes() ([]byte, error) { return []byte(`{"event":"` + e.subject + `"}`), nil }

func TestRepositorySaveFansOutToAllStores(t *testing.T) {
	a := &mockSaver{}
	b := &mockSaver{}

	repo := NewRepository()
	repo.AddStore(a)
	repo.AddStore(b)

	assert.NoError(t, repo.Save(testEvent{subject: "fleet:location"}))
	assert.Equal(t, []string{"fleet:location"}, a.saved)
	assert.Equal(t, []string{"fleet:location"}, b.saved)
}

func TestRepositorySaveContinuesPastFailingMirror(t *testing.T) {
	failing := &mockSaver{err: errors.New("broker down")}
	healthy := &mockSaver{}

	repo := NewRepository()
	repo.AddStore(failing)
	repo.AddStore(healthy)

	err := repo.Save(testEvent{subject: "vehicle:accident-zone-alert"})
	assert.Error(t, err)
	assert.Equal(t, 1, healthy.count(), "healthy mirror must still receive the event")
}

func TestLoadStoragesEmptyConfig(t *testing.T) {
	repo := NewRepository()
	assert.ErrorIs(t, repo.LoadStorages(nil), ErrInvalidStorage)
}

func TestLoadStoragesUnknownBackend(t *testing.T) {
	repo := NewRepository()
	err := repo.LoadStorages(map[string]map[string]string{"carrier_pigeon": {}})
	assert.ErrorIs(t, err, ErrUnknownStorage)
}

func TestLoadStoragesSkipsNonMirrorSections(t *testing.T) {
	repo := NewRepository()
	err := repo.LoadStorages(map[string]map[string]string{
		"postgresql": {"host": "localhost"},
		"redis":      {"host": "localhost"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, repo.Len())
}

func TestAsyncRepositoryDelivers(t *testing.T) {
	saver := &mockSaver{}
	repo := NewRepository()
	repo.AddStore(saver)

	async := NewAsyncRepository(repo, 16, 2)
	for i := 0; i < 10; i++ {
		assert.True(t, async.Save(testEvent{subject: "fleet:location"}))
	}
	async.Close()

	assert.Equal(t, 10, saver.count())
	assert.Equal(t, int64(0), async.Dropped())
}

func TestAsyncRepositorySaveRacingCloseDoesNotPanic(t *testing.T) {
	saver := &mockSaver{}
	repo := NewRepository()
	repo.AddStore(saver)

	async := NewAsyncRepository(repo, 4, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				async.Save(testEvent{subject: "fleet:location"})
			}
		}()
	}

	async.Close()
	wg.Wait()

	// After Close every Save is refused outright.
	assert.False(t, async.Save(testEvent{subject: "fleet:location"}))
}

type slowSaver struct {
	release chan struct{}
	mockSaver
}

func (s *slowSaver) Save(msg Message) error {
	<-s.release
	return s.mockSaver.Save(msg)
}

func TestAsyncRepositoryDropsOnFullBuffer(t *testing.T) {
	saver := &slowSaver{release: make(chan struct{})}
	repo := NewRepository()
	repo.AddStore(saver)

	async := NewAsyncRepository(repo, 1, 1)

	// First message occupies the worker, second fills the buffer; the rest
	// must be dropped without blocking.
	deadline := time.After(2 * time.Second)
	accepted := 0
	for i := 0; i < 10; i++ {
		select {
		case <-deadline:
			t.Fatal("Save blocked on a slow mirror")
		default:
		}
		if async.Save(testEvent{subject: "fleet:location"}) {
			accepted++
		}
	}

	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, async.Dropped(), int64(8))

	close(saver.release)
	async.Close()
}
