package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts      map[model.AccountID]*model.Account
	usernameIndex map[string]model.AccountID
	saveData      map[model.AccountID]*model.SaveData
	transactions  map[string]*model.Transaction
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:      make(map[model.AccountID]*model.Account),
		usernameIndex: make(map[string]model.AccountID),
		saveData:      make(map[model.AccountID]*model.SaveData),
		transactions:  make(map[string]*model.Transaction),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Account operations

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[strings.ToLower(username)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Storage) UsernameTaken(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.usernameIndex[strings.ToLower(username)]
	return ok, nil
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Username)
	if _, ok := s.usernameIndex[key]; ok {
		return model.ErrUsernameTaken
	}
	copied := *account
	s.accounts[account.ID] = &copied
	s.usernameIndex[key] = account.ID
	return nil
}

func (s *Storage) UpdatePassword(ctx context.Context, id model.AccountID, hash, salt []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.PasswordHash = append([]byte(nil), hash...)
	account.Salt = append([]byte(nil), salt...)
	return nil
}

func (s *Storage) SetBanned(ctx context.Context, id model.AccountID, banned bool, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.Banned = banned
	account.BannedAt = at
	return nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	delete(s.usernameIndex, strings.ToLower(account.Username))
	delete(s.accounts, id)
	delete(s.saveData, id)
	for txID, tx := range s.transactions {
		if tx.AccountID == id {
			delete(s.transactions, txID)
		}
	}
	return nil
}

// Listing

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *Storage) ListAccounts(ctx context.Context, page int) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := make([]*model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		ordered = append(ordered, account)
	}
	// Stable order: creation time, then id as tiebreaker
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	offset := (page - 1) * storage.PageSize
	if offset >= len(ordered) {
		return []model.Account{}, nil
	}
	end := offset + storage.PageSize
	if end > len(ordered) {
		end = len(ordered)
	}

	result := make([]model.Account, 0, end-offset)
	for _, account := range ordered[offset:end] {
		result = append(result, *account)
	}
	return result, nil
}

// Upgrade

func (s *Storage) UpgradeAccount(ctx context.Context, id model.AccountID, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	copied := *tx
	s.transactions[tx.ID] = &copied
	account.Role = model.RoleUpgraded
	if _, ok := s.saveData[id]; !ok {
		s.saveData[id] = &model.SaveData{AccountID: id}
	}
	return nil
}

// Save data operations

func (s *Storage) CreateSaveData(ctx context.Context, id model.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saveData[id]; !ok {
		s.saveData[id] = &model.SaveData{AccountID: id}
	}
	return nil
}

func (s *Storage) SaveSlot(ctx context.Context, id model.AccountID, slot model.SaveSlot, blob model.SaveBlob, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saveData[id]
	if !ok {
		return model.ErrSaveDataNotFound
	}
	data.SetSlot(slot, append(model.SaveBlob(nil), blob...), at)
	return nil
}

func (s *Storage) LoadSaveData(ctx context.Context, id model.AccountID) (*model.SaveData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.saveData[id]
	if !ok {
		return nil, model.ErrSaveDataNotFound
	}
	copied := *data
	return &copied, nil
}

// GetTransaction returns a recorded upgrade transaction (test helper)
func (s *Storage) GetTransaction(txID string) (*model.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[txID]
	if !ok {
		return nil, false
	}
	copied := *tx
	return &copied, true
}

// TransactionsFor returns recorded transactions for an account (test helper)
func (s *Storage) TransactionsFor(id model.AccountID) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == id {
			result = append(result, *tx)
		}
	}
	return result
}
