package database

import (
	"encoding/json"
	"fmt"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

// HistoryRepository provides typed access to the history store over an open
// connection. The connection's transaction semantics apply unchanged: puts
// are staged until the caller commits.
type HistoryRepository struct {
	conn *Conn
}

func NewHistoryRepository(conn *Conn) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// Get returns the stored contribution for id, or ErrKeyNotFound.
func (r *HistoryRepository) Get(id string) (*contrib.StoredContribution, error) {
	value, err := r.conn.Get(id)
	if err != nil {
		return nil, err
	}

	var sc contrib.StoredContribution
	if err := json.Unmarshal(value, &sc); err != nil {
		return nil, fmt.Errorf("failed to decode contribution %s: %w", id, err)
	}
	return &sc, nil
}

// GetAll returns every stored contribution.
func (r *HistoryRepository) GetAll() ([]contrib.StoredContribution, error) {
	values, err := r.conn.GetAll()
	if err != nil {
		return nil, err
	}

	contributions := make([]contrib.StoredContribution, 0, len(values))
	for _, value := range values {
		var sc contrib.StoredContribution
		if err := json.Unmarshal(value, &sc); err != nil {
			return nil, fmt.Errorf("failed to decode contribution: %w", err)
		}
		contributions = append(contributions, sc)
	}
	return contributions, nil
}

// Put stages a write of the stored contribution keyed by its ID.
func (r *HistoryRepository) Put(sc *contrib.StoredContribution) error {
	value, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to encode contribution %s: %w", sc.ID, err)
	}
	return r.conn.Put(sc.ID, value)
}

// Clear stages removal of every stored contribution.
func (r *HistoryRepository) Clear() error {
	return r.conn.Clear()
}
