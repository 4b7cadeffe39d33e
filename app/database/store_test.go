package database

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wayspot-tools/contribtrack/app/contrib"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestStoreRoundTrip(t *testing.T) {
	db := testDB(t)

	value := []byte(`{"id":"abc","statusHistory":[{"timestamp":1700000000000,"status":"NOMINATED"}]}`)

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		if err := conn.Put("abc", value); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreHistory, func(conn *Conn) error {
		got, err := conn.Get("abc")
		if err != nil {
			return err
		}
		if !bytes.Equal(got, value) {
			t.Errorf("Expected stored bytes to round-trip unchanged, got %s", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStoreGetMissingKey(t *testing.T) {
	db := testDB(t)

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		_, err := conn.Get("nope")
		return err
	})
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestStoreUncommittedWritesRollBack(t *testing.T) {
	db := testDB(t)

	// No Commit inside: Close must roll the staged put back.
	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		return conn.Put("abc", []byte("staged"))
	})
	if err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreHistory, func(conn *Conn) error {
		_, err := conn.Get("abc")
		return err
	})
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected staged write to be rolled back, got %v", err)
	}
}

func TestStoreCommitMakesWritesDurable(t *testing.T) {
	db := testDB(t)

	err := WithStore(db, StoreEmails, func(conn *Conn) error {
		if err := conn.Put("G-1", []byte("one")); err != nil {
			return err
		}
		if err := conn.Put("G-2", []byte("two")); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreEmails, func(conn *Conn) error {
		keys, err := conn.Keys()
		if err != nil {
			return err
		}
		if len(keys) != 2 {
			t.Errorf("Expected 2 keys, got %v", keys)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStoresAreSeparate(t *testing.T) {
	db := testDB(t)

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		if err := conn.Put("shared-key", []byte("history value")); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreEmails, func(conn *Conn) error {
		_, err := conn.Get("shared-key")
		return err
	})
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected key to be invisible in the other store, got %v", err)
	}
}

func TestStorePutOverwrites(t *testing.T) {
	db := testDB(t)

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		if err := conn.Put("abc", []byte("v1")); err != nil {
			return err
		}
		if err := conn.Put("abc", []byte("v2")); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	WithStore(db, StoreHistory, func(conn *Conn) error {
		got, err := conn.Get("abc")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v2" {
			t.Errorf("Expected 'v2', got '%s'", got)
		}
		return nil
	})
}

func TestStoreClear(t *testing.T) {
	db := testDB(t)

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		if err := conn.Put("a", []byte("1")); err != nil {
			return err
		}
		if err := conn.Put("b", []byte("2")); err != nil {
			return err
		}
		if err := conn.Commit(); err != nil {
			return err
		}
		if err := conn.Clear(); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	WithStore(db, StoreHistory, func(conn *Conn) error {
		keys, err := conn.Keys()
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 0 {
			t.Errorf("Expected empty store, got %v", keys)
		}
		return nil
	})
}

func TestOnCommitFiresExactlyOnce(t *testing.T) {
	db := testDB(t)

	fired := 0
	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		conn.OnCommit(func() { fired++ })
		if err := conn.Put("abc", []byte("v")); err != nil {
			return err
		}
		if err := conn.Commit(); err != nil {
			return err
		}
		// A second commit must not replay the consumed callback.
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	if fired != 1 {
		t.Errorf("Expected callback to fire exactly once, fired %d times", fired)
	}
}

func TestOnCommitNotFiredWithoutCommit(t *testing.T) {
	db := testDB(t)

	fired := 0
	WithStore(db, StoreHistory, func(conn *Conn) error {
		conn.OnCommit(func() { fired++ })
		return conn.Put("abc", []byte("v"))
	})

	if fired != 0 {
		t.Errorf("Expected callback to stay pending on rollback, fired %d times", fired)
	}
}

func TestCommitWithNothingStaged(t *testing.T) {
	db := testDB(t)

	fired := false
	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		conn.OnCommit(func() { fired = true })
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}
	if !fired {
		t.Error("Expected no-op commit to still complete the callback")
	}
}

func TestOpenStoreUnknownName(t *testing.T) {
	db := testDB(t)
	if _, err := OpenStore(db, StoreName("bogus")); err == nil {
		t.Error("Expected error for unknown store name")
	}
}

func TestConnReusableAfterCommit(t *testing.T) {
	db := testDB(t)

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		if err := conn.Put("a", []byte("1")); err != nil {
			return err
		}
		if err := conn.Commit(); err != nil {
			return err
		}
		// A fresh transaction begins lazily after a commit.
		if err := conn.Put("b", []byte("2")); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	WithStore(db, StoreHistory, func(conn *Conn) error {
		keys, err := conn.Keys()
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 2 {
			t.Errorf("Expected both writes committed, got %v", keys)
		}
		return nil
	})
}

func TestWithStoresInterleavedWrites(t *testing.T) {
	db := testDB(t)

	// One pass reads the email ledger first, then stages writes to both
	// stores and commits batch-style. This must run to completion.
	done := make(chan error, 1)
	go func() {
		done <- WithStores(db, func(history, emails *Conn) error {
			if _, err := emails.Keys(); err != nil {
				return err
			}
			if err := history.Put("abc", []byte("merged")); err != nil {
				return err
			}
			if err := emails.Put("G-1", []byte("processed")); err != nil {
				return err
			}
			if err := history.Commit(); err != nil {
				return err
			}
			return emails.Commit()
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Interleaved store writes did not complete")
	}

	WithStore(db, StoreHistory, func(conn *Conn) error {
		if _, err := conn.Get("abc"); err != nil {
			t.Errorf("Expected history write to be committed, got %v", err)
		}
		return nil
	})
	WithStore(db, StoreEmails, func(conn *Conn) error {
		if _, err := conn.Get("G-1"); err != nil {
			t.Errorf("Expected email write to be committed, got %v", err)
		}
		return nil
	})
}

func TestWithStoresSharedCommitCallbacks(t *testing.T) {
	db := testDB(t)

	var order []string
	err := WithStores(db, func(history, emails *Conn) error {
		history.OnCommit(func() { order = append(order, "history") })
		emails.OnCommit(func() { order = append(order, "emails") })
		if err := emails.Put("G-1", []byte("v")); err != nil {
			return err
		}
		if err := history.Commit(); err != nil {
			return err
		}
		// The shared transaction is already final; this only fires the
		// email connection's callback.
		return emails.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "history" || order[1] != "emails" {
		t.Errorf("Expected each callback to fire once in commit order, got %v", order)
	}
}

func TestReaderDoesNotSeeStagedWrites(t *testing.T) {
	db := testDB(t)

	writer, err := OpenStore(db, StoreHistory)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()

	if err := writer.Put("abc", []byte("staged")); err != nil {
		t.Fatal(err)
	}

	// A reader opened mid-write sees the pre-commit state.
	err = WithStore(db, StoreHistory, func(reader *Conn) error {
		_, err := reader.Get("abc")
		return err
	})
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected reader to miss the staged write, got %v", err)
	}

	if err := writer.Commit(); err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreHistory, func(reader *Conn) error {
		got, err := reader.Get("abc")
		if err != nil {
			return err
		}
		if string(got) != "staged" {
			t.Errorf("Expected committed value, got '%s'", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestHistoryRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)

	stored := &contrib.StoredContribution{
		ID:     "abc",
		Type:   contrib.TypeNomination,
		Status: contrib.StatusVoting,
		Title:  "Old Fountain",
		Day:    "2025-03-01",
		StatusHistory: []contrib.StatusHistoryEntry{
			{Timestamp: 1740787200000, Status: contrib.StatusNominated},
			{Timestamp: 1741000000000, Status: contrib.StatusVoting, Verified: true, Email: "G-9"},
		},
	}

	err := WithStore(db, StoreHistory, func(conn *Conn) error {
		if err := NewHistoryRepository(conn).Put(stored); err != nil {
			return err
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreHistory, func(conn *Conn) error {
		got, err := NewHistoryRepository(conn).Get("abc")
		if err != nil {
			return err
		}
		if got.Title != "Old Fountain" || got.Status != contrib.StatusVoting {
			t.Errorf("Unexpected projection %+v", got)
		}
		if len(got.StatusHistory) != 2 {
			t.Fatalf("Expected 2 history entries, got %d", len(got.StatusHistory))
		}
		if got.StatusHistory[1].Email != "G-9" {
			t.Errorf("Expected email ref 'G-9', got '%s'", got.StatusHistory[1].Email)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEmailRepositoryFinalIDs(t *testing.T) {
	db := testDB(t)

	records := []contrib.EmailProcessingRecord{
		{ID: "G-1", TS: 1, Result: contrib.ResultSuccess, Version: 3},
		{ID: "G-2", TS: 2, Result: contrib.ResultUnsupported, Version: 3},
		{ID: "G-3", TS: 3, Result: contrib.ResultFailure, Version: 3},
		{ID: "G-4", TS: 4, Result: contrib.ResultSuccess, Version: 2}, // stale version
		{ID: "G-5", TS: 5, Result: contrib.ResultSkipped, Version: 3},
		{ID: "H-1", TS: 6, Result: contrib.ResultSuccess, Version: 3}, // other source prefix
	}

	err := WithStore(db, StoreEmails, func(conn *Conn) error {
		repo := NewEmailRepository(conn)
		for i := range records {
			if err := repo.Put(&records[i]); err != nil {
				return err
			}
		}
		return conn.Commit()
	})
	if err != nil {
		t.Fatal(err)
	}

	err = WithStore(db, StoreEmails, func(conn *Conn) error {
		final, err := NewEmailRepository(conn).FinalIDs("G-", 3)
		if err != nil {
			return err
		}

		want := map[string]bool{"G-1": true, "G-5": true}
		if len(final) != len(want) {
			t.Errorf("Expected final ids %v, got %v", want, final)
		}
		for id := range want {
			if !final[id] {
				t.Errorf("Expected %s to be final", id)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
