package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
)

// LineRecord is the serialized shape of one cart line. Only settled values
// cross this boundary; the transient editing marker is resolved upstream.
type LineRecord struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	CaseCount int    `json:"case_count,omitempty"`
}

// Adapter snapshots the full cart line collection as one blob under a
// well-known key. Both operations are synchronous and local.
type Adapter interface {
	Load(ctx context.Context) ([]LineRecord, error)
	Save(ctx context.Context, records []LineRecord) error
}

func encodeRecords(records []LineRecord) ([]byte, error) {
	if records == nil {
		records = []LineRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding cart snapshot: %w", err)
	}
	return payload, nil
}

// decodeRecords recovers as many entries as possible from a stored blob.
// Structurally invalid entries are dropped; their reasons are aggregated so
// the caller can log a single warning. A blob that is not a JSON array at
// all yields no records and a single aggregate error.
func decodeRecords(raw []byte) ([]LineRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding cart snapshot: %w", err)
	}

	var (
		records []LineRecord
		dropped error
	)
	for i, entry := range entries {
		var record LineRecord
		if err := json.Unmarshal(entry, &record); err != nil {
			dropped = multierr.Append(dropped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		if err := validateRecord(record); err != nil {
			dropped = multierr.Append(dropped, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		records = append(records, record)
	}
	return records, dropped
}

func validateRecord(record LineRecord) error {
	if record.ProductID == "" {
		return fmt.Errorf("missing product id")
	}
	if record.Quantity < 0 {
		return fmt.Errorf("negative quantity %d", record.Quantity)
	}
	if record.CaseCount < 0 {
		return fmt.Errorf("negative case count %d", record.CaseCount)
	}
	return nil
}
