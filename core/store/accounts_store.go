package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"stocwatch/core/utils"
)

var ErrDuplicateAccount = errors.New("account already exists")

// STOCAccount is an oversight-authority login. Password hashes never leave
// the process through JSON.
type STOCAccount struct {
	ID           int64     `json:"stoc_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Contact      string    `json:"stoc_contact"`
	Email        string    `json:"stoc_email"`
	Location     string    `json:"stoc_location"`
	CreatedAt    time.Time `json:"created_at"`
}

type StoreAccount struct {
	ID            int64     `json:"store_id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	StoreName     string    `json:"store_name"`
	StoreLocation string    `json:"store_location"`
	StoreContact  string    `json:"store_contact"`
	StoreAddress  string    `json:"store_address"`
	LiveURL       string    `json:"live_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type AccountsStore interface {
	CreateSTOC(ctx context.Context, acct *STOCAccount) (int64, error)
	CreateStore(ctx context.Context, acct *StoreAccount) (int64, error)
	GetSTOCByUsername(ctx context.Context, username string) (*STOCAccount, error)
	GetStoreByUsername(ctx context.Context, username string) (*StoreAccount, error)
	GetStoreAccount(ctx context.Context, id int64) (*StoreAccount, error)
	ListSTOC(ctx context.Context) ([]STOCAccount, error)
	ListStore(ctx context.Context) ([]StoreAccount, error)
	DeleteSTOC(ctx context.Context, id int64) error
	DeleteStore(ctx context.Context, id int64) error
	// PasswordHashes feeds the admin-password verification path, which
	// accepts any existing account's password for the given party.
	PasswordHashes(ctx context.Context, party Party) ([]string, error)
}

type accountsStore struct {
	db *sql.DB
}

func NewAccountsStore(db *sql.DB) AccountsStore {
	return &accountsStore{db: db}
}

func (s *accountsStore) CreateSTOC(ctx context.Context, acct *STOCAccount) (int64, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM stoc_accounts WHERE username=? OR stoc_email=?`,
		acct.Username, acct.Email).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrDuplicateAccount
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stoc_accounts(username, password_hash, stoc_contact, stoc_email, stoc_location, created_at)
		VALUES(?,?,?,?,?,?)`,
		acct.Username, acct.PasswordHash, acct.Contact, acct.Email, acct.Location, utils.NowUTC())
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	acct.ID = id
	return id, nil
}

func (s *accountsStore) CreateStore(ctx context.Context, acct *StoreAccount) (int64, error) {
	// (username, store name, store address) is the identity of a store,
	// compared case-insensitively.
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM store_accounts
		WHERE LOWER(username)=LOWER(?) AND LOWER(store_name)=LOWER(?) AND LOWER(store_address)=LOWER(?)`,
		acct.Username, acct.StoreName, acct.StoreAddress).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrDuplicateAccount
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO store_accounts(username, password_hash, store_name, store_location, store_contact, store_address, live_url, created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		acct.Username, acct.PasswordHash, acct.StoreName, acct.StoreLocation, acct.StoreContact, acct.StoreAddress, strings.TrimSpace(acct.LiveURL), utils.NowUTC())
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	acct.ID = id
	return id, nil
}

const stocAccountColumns = "stoc_id, username, password_hash, stoc_contact, stoc_email, stoc_location, created_at"
const storeAccountColumns = "store_id, username, password_hash, store_name, store_location, store_contact, store_address, live_url, created_at"

func (s *accountsStore) GetSTOCByUsername(ctx context.Context, username string) (*STOCAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+stocAccountColumns+` FROM stoc_accounts WHERE username=?`, username)
	var a STOCAccount
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Contact, &a.Email, &a.Location, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *accountsStore) GetStoreByUsername(ctx context.Context, username string) (*StoreAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+storeAccountColumns+` FROM store_accounts WHERE username=?`, username)
	return scanStoreAccount(row)
}

func (s *accountsStore) GetStoreAccount(ctx context.Context, id int64) (*StoreAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+storeAccountColumns+` FROM store_accounts WHERE store_id=?`, id)
	return scanStoreAccount(row)
}

func scanStoreAccount(row *sql.Row) (*StoreAccount, error) {
	var a StoreAccount
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.StoreName, &a.StoreLocation, &a.StoreContact, &a.StoreAddress, &a.LiveURL, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *accountsStore) ListSTOC(ctx context.Context) ([]STOCAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+stocAccountColumns+` FROM stoc_accounts ORDER BY stoc_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []STOCAccount
	for rows.Next() {
		var a STOCAccount
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Contact, &a.Email, &a.Location, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *accountsStore) ListStore(ctx context.Context) ([]StoreAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+storeAccountColumns+` FROM store_accounts ORDER BY store_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []StoreAccount
	for rows.Next() {
		var a StoreAccount
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.StoreName, &a.StoreLocation, &a.StoreContact, &a.StoreAddress, &a.LiveURL, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *accountsStore) DeleteSTOC(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stoc_accounts WHERE stoc_id=?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *accountsStore) DeleteStore(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM store_accounts WHERE store_id=?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *accountsStore) PasswordHashes(ctx context.Context, party Party) ([]string, error) {
	table := "stoc_accounts"
	if party == PartyStore {
		table = "store_accounts"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT password_hash FROM `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}
