package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// pgUniqueViolation is the SQLSTATE code for unique constraint violations
const pgUniqueViolation = "23505"

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens a connection pool for the given DSN, runs pending migrations,
// and verifies connectivity
func New(ctx context.Context, dsn string) (*Storage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB creates a Storage over an existing pool (for testing)
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, "migrations")
}

// Close closes the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// storeErr shapes a driver error: not-found sentinels pass through, unique
// violations become the conflict sentinel, and everything else is wrapped
// with the backend's SQLSTATE code for operator diagnostics
func storeErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return model.ErrUsernameTaken
		}
		return model.NewStoreError(pgErr.Code, err)
	}
	return model.NewStoreError("", err)
}

const accountColumns = "id, username, role, password_hash, salt, created_at, banned, banned_at"

func scanAccount(row *sql.Row) (*model.Account, error) {
	var account model.Account
	var role string
	err := row.Scan(&account.ID, &account.Username, &role, &account.PasswordHash,
		&account.Salt, &account.CreatedAt, &account.Banned, &account.BannedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, storeErr(err)
	}
	account.Role = model.Role(role)
	return &account, nil
}

// Account operations

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`, username)
	return scanAccount(row)
}

func (s *Storage) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE lower(username) = lower($1))`, username).
		Scan(&taken)
	if err != nil {
		return false, storeErr(err)
	}
	return taken, nil
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, role, password_hash, salt, created_at, banned, banned_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.Username, string(account.Role), account.PasswordHash,
		account.Salt, account.CreatedAt, account.Banned, account.BannedAt)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Storage) UpdatePassword(ctx context.Context, id model.AccountID, hash, salt []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $1, salt = $2 WHERE id = $3`, hash, salt, id)
	if err != nil {
		return storeErr(err)
	}
	return requireRow(res)
}

func (s *Storage) SetBanned(ctx context.Context, id model.AccountID, banned bool, at *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET banned = $1, banned_at = $2 WHERE id = $3`, banned, at, id)
	if err != nil {
		return storeErr(err)
	}
	return requireRow(res)
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.AccountID) error {
	// save_data and transactions rows go with the account (ON DELETE CASCADE)
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return storeErr(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// Listing

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}

func (s *Storage) ListAccounts(ctx context.Context, page int) ([]model.Account, error) {
	offset := (page - 1) * storage.PageSize
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		storage.PageSize, offset)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var account model.Account
		var role string
		err := rows.Scan(&account.ID, &account.Username, &role, &account.PasswordHash,
			&account.Salt, &account.CreatedAt, &account.Banned, &account.BannedAt)
		if err != nil {
			return nil, storeErr(err)
		}
		account.Role = model.Role(role)
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return accounts, nil
}

// Upgrade

func (s *Storage) UpgradeAccount(ctx context.Context, id model.AccountID, mtx *model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (tx_id, account_id, first_name, last_name, address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		mtx.ID, mtx.AccountID, mtx.FirstName, mtx.LastName, mtx.Address, mtx.CreatedAt)
	if err != nil {
		return storeErr(err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET role = $1 WHERE id = $2`, string(model.RoleUpgraded), id)
	if err != nil {
		return storeErr(err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO save_data (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`, id)
	if err != nil {
		return storeErr(err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}

// Save data operations

func (s *Storage) CreateSaveData(ctx context.Context, id model.AccountID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO save_data (account_id) VALUES ($1) ON CONFLICT (account_id) DO NOTHING`, id)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Storage) SaveSlot(ctx context.Context, id model.AccountID, slot model.SaveSlot, blob model.SaveBlob, at time.Time) error {
	// Column names come from a fixed switch, never from input
	var query string
	switch slot {
	case model.SlotOne:
		query = `UPDATE save_data SET save_one = $1, timestamp_one = $2 WHERE account_id = $3`
	case model.SlotTwo:
		query = `UPDATE save_data SET save_two = $1, timestamp_two = $2 WHERE account_id = $3`
	case model.SlotThree:
		query = `UPDATE save_data SET save_three = $1, timestamp_three = $2 WHERE account_id = $3`
	default:
		return model.ErrInvalidSlot
	}

	res, err := s.db.ExecContext(ctx, query, []byte(blob), at, id)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if n == 0 {
		return model.ErrSaveDataNotFound
	}
	return nil
}

func (s *Storage) LoadSaveData(ctx context.Context, id model.AccountID) (*model.SaveData, error) {
	var (
		data            model.SaveData
		one, two, three []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT save_one, save_two, save_three, timestamp_one, timestamp_two, timestamp_three
		 FROM save_data WHERE account_id = $1`, id).
		Scan(&one, &two, &three, &data.SavedOne, &data.SavedTwo, &data.SavedThree)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSaveDataNotFound
		}
		return nil, storeErr(err)
	}

	data.AccountID = id
	data.SlotOne = model.SaveBlob(one)
	data.SlotTwo = model.SaveBlob(two)
	data.SlotThree = model.SaveBlob(three)
	return &data, nil
}
