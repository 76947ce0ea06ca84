package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

type DatabaseConfig interface {
	DBUrl() string
}

// DatabaseService stores the most recently saved grid snapshot (an encoded
// protocol.Frame). The engine itself never touches storage; persistence is
// strictly this collaborator's concern.
type DatabaseService interface {
	Close() error
	GetSnapshot() ([]byte, error)
	WriteSnapshot(ctx context.Context, snapshot []byte) error
}

type service struct {
	cfg DatabaseConfig
	db  *sql.DB
}

func NewDatabaseService(cfg DatabaseConfig) DatabaseService {
	db, err := sql.Open("sqlite3", cfg.DBUrl())
	if err != nil {
		panic(fmt.Sprintf("could not open database %s", err))
	}

	s := &service{cfg, db}

	_, err = db.Exec("CREATE TABLE IF NOT EXISTS gol (id INTEGER PRIMARY KEY AUTOINCREMENT, snapshot blob NOT NULL)")
	if err != nil {
		panic(fmt.Sprintf("could not initialise database %s", err))
	}

	return s
}

func (s *service) Close() error {
	log.Printf("disconnected from database: %s", s.cfg.DBUrl())
	return s.db.Close()
}

func (s *service) GetSnapshot() ([]byte, error) {
	rows, err := s.db.Query("SELECT snapshot FROM gol WHERE id=0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var snapshot []byte
	for rows.Next() {
		if err := rows.Scan(&snapshot); err != nil {
			return nil, err
		}
	}
	return snapshot, nil
}

func (s *service) WriteSnapshot(ctx context.Context, snapshot []byte) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO gol (id, snapshot) VALUES (0, ?) ON CONFLICT (id) DO UPDATE SET snapshot=?", snapshot, snapshot)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
