package storage

import (
	"context"
	"time"

	"github.com/karstgames/savepoint/internal/model"
)

// PageSize is the fixed number of accounts per listing page
const PageSize = 20

// Store defines the interface for account and save-data persistence.
// Implementations return model sentinel errors for not-found conditions and
// wrap backend failures in model.StoreError.
type Store interface {
	// Account operations
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	UpdatePassword(ctx context.Context, id model.AccountID, hash, salt []byte) error
	SetBanned(ctx context.Context, id model.AccountID, banned bool, at *time.Time) error
	DeleteAccount(ctx context.Context, id model.AccountID) error

	// Listing. Pages are 1-based, PageSize rows each, in a stable
	// creation order.
	CountAccounts(ctx context.Context) (int, error)
	ListAccounts(ctx context.Context, page int) ([]model.Account, error)

	// UpgradeAccount records the transaction, flips the role to upgraded,
	// and initializes the account's save data as a single atomic unit.
	UpgradeAccount(ctx context.Context, id model.AccountID, tx *model.Transaction) error

	// CreateSaveData initializes an empty save record (used for
	// admin-created accounts, which skip the upgrade flow)
	CreateSaveData(ctx context.Context, id model.AccountID) error

	// Save slot operations
	SaveSlot(ctx context.Context, id model.AccountID, slot model.SaveSlot, blob model.SaveBlob, at time.Time) error
	LoadSaveData(ctx context.Context, id model.AccountID) (*model.SaveData, error)
}
