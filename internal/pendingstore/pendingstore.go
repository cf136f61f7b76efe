// Package pendingstore keeps the per-user verification records that exist
// only between ID submission and commit (or cancel). Records live in a
// sqlite file under the data directory; presence of a user's row is the
// duplicate-submission check.
package pendingstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/model"
)

type store struct {
	db *sqlx.DB
}

func New(config *boot.Config) (*store, error) {
	dbName := path.Join(config.DataDir, "pending.db")

	isCreating := false
	_, err := os.Stat(dbName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			isCreating = true
		}
	}

	db, err := sqlx.Connect("sqlite3", "file:"+dbName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pendingstore := &store{db}
	if isCreating {
		if err := pendingstore.createTables(); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}

	return pendingstore, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// Create opens a pending record for the user. A record already in progress
// is refused; presence of the row is the check, there is no lock here.
func (s *store) Create(userID string, externalID model.ExternalID) error {
	exists, err := s.Exists(userID)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrorPendingExists
	}

	_, err = s.db.Exec(`insert into pending(UserID, CreatedAt, ExternalID, Selections)
		values(?, ?, ?, '')`, userID, time.Now().UTC(), externalID)
	if err != nil {
		return fmt.Errorf("creating pending record: %w", err)
	}
	return nil
}

func (s *store) Exists(userID string) (bool, error) {
	count := 0
	err := s.db.Get(&count, `select count(*) from pending where UserID = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("checking pending record: %w", err)
	}
	return count > 0, nil
}

func (s *store) Get(userID string) (*model.Pending, error) {
	pending := &model.Pending{}
	err := s.db.Get(pending, `select * from pending where UserID = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrorNoPendingRecord
		}
		return nil, fmt.Errorf("fetching pending record: %w", err)
	}
	return pending, nil
}

// AppendSelection concatenates an accepted selection token onto the record.
func (s *store) AppendSelection(userID, token string) error {
	result, err := s.db.Exec(`update pending set Selections = Selections || ? where UserID = ?`, token, userID)
	if err != nil {
		return fmt.Errorf("appending selection: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("appending selection: %w", err)
	}
	if rows == 0 {
		return model.ErrorNoPendingRecord
	}
	return nil
}

// Discard removes the user's record, reporting whether one existed.
func (s *store) Discard(userID string) (bool, error) {
	result, err := s.db.Exec(`delete from pending where UserID = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("discarding pending record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("discarding pending record: %w", err)
	}
	return rows > 0, nil
}

func (s *store) createTables() error {
	_, err := s.db.Exec(`create table pending(
		UserID     text not null primary key,
		CreatedAt  DATETIME not null,
		ExternalID text not null,
		Selections text not null default ''
	)`)
	if err != nil {
		return fmt.Errorf("creating pending table: %w", err)
	}
	return nil
}
