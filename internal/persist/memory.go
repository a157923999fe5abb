package persist

import (
	"context"
	"sync"

	pkgerrors "github.com/distroflow/cartcore/pkg/errors"
	"github.com/distroflow/cartcore/pkg/logger"
)

// Memory is a volatile Adapter used for tests and the memory storage
// driver. It still round-trips through the serialized form so callers
// exercise the same encoding boundary as the durable store.
type Memory struct {
	mu   sync.Mutex
	blob []byte
	logg *logger.Logger
}

// NewMemory returns an empty in-memory adapter.
func NewMemory(logg *logger.Logger) *Memory {
	return &Memory{logg: logg}
}

// Load decodes the held blob with the same per-entry recovery as Store.
func (m *Memory) Load(ctx context.Context) ([]LineRecord, error) {
	m.mu.Lock()
	raw := m.blob
	m.mu.Unlock()

	records, dropped := decodeRecords(raw)
	if dropped != nil && m.logg != nil {
		m.logg.Warn(m.logg.WithField(ctx, "dropped", pkgerrors.Dump(dropped)), "dropped corrupted cart snapshot entries")
	}
	return records, nil
}

// Save replaces the held blob.
func (m *Memory) Save(ctx context.Context, records []LineRecord) error {
	payload, err := encodeRecords(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blob = payload
	m.mu.Unlock()
	return nil
}

// SeedBlob installs a raw payload, bypassing encoding. Test hook for
// exercising corrupted-snapshot recovery.
func (m *Memory) SeedBlob(raw []byte) {
	m.mu.Lock()
	m.blob = append([]byte(nil), raw...)
	m.mu.Unlock()
}
