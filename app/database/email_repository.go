package database

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

// EmailRepository provides typed access to the emails store over an open
// connection.
type EmailRepository struct {
	conn *Conn
}

func NewEmailRepository(conn *Conn) *EmailRepository {
	return &EmailRepository{conn: conn}
}

// Get returns the processing record for the message id, or ErrKeyNotFound.
func (r *EmailRepository) Get(id string) (*contrib.EmailProcessingRecord, error) {
	value, err := r.conn.Get(id)
	if err != nil {
		return nil, err
	}

	var rec contrib.EmailProcessingRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode email record %s: %w", id, err)
	}
	return &rec, nil
}

// GetAll returns every processing record.
func (r *EmailRepository) GetAll() ([]contrib.EmailProcessingRecord, error) {
	values, err := r.conn.GetAll()
	if err != nil {
		return nil, err
	}

	records := make([]contrib.EmailProcessingRecord, 0, len(values))
	for _, value := range values {
		var rec contrib.EmailProcessingRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode email record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// FinalIDs returns the message ids with the given source prefix whose
// records are terminal at the given processing-logic version. These are the
// ids a corpus pass must not reprocess; unsupported/failure records and
// records from older versions are deliberately left out so the next pass
// picks them up again.
func (r *EmailRepository) FinalIDs(prefix string, version int) (map[string]bool, error) {
	records, err := r.GetAll()
	if err != nil {
		return nil, err
	}

	final := make(map[string]bool)
	for _, rec := range records {
		if !strings.HasPrefix(rec.ID, prefix) {
			continue
		}
		if rec.Final(version) {
			final[rec.ID] = true
		}
	}
	return final, nil
}

// Put stages a write of the processing record keyed by message id.
func (r *EmailRepository) Put(rec *contrib.EmailProcessingRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode email record %s: %w", rec.ID, err)
	}
	return r.conn.Put(rec.ID, value)
}

// Clear stages removal of every processing record.
func (r *EmailRepository) Clear() error {
	return r.conn.Clear()
}
