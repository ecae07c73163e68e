package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/karstgames/savepoint/internal/dependencies/clock"
	"github.com/karstgames/savepoint/internal/dependencies/random"
	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/services/password"
	"github.com/karstgames/savepoint/internal/services/token"
	"github.com/karstgames/savepoint/internal/storage"
)

// Service implements the account lifecycle: registration, authentication,
// password changes, the upgrade purchase, save slots, and admin management
type Service struct {
	store     storage.Store
	passwords *password.Service
	tokens    *token.Service
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

func New(
	store storage.Store,
	passwords *password.Service,
	tokens *token.Service,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		clock:     clk,
		random:    rnd,
		logger:    logger,
	}
}

// Credentials is a username/password pair as submitted by a client
type Credentials struct {
	Username string
	Password string
}

// AuthResult is a sanitized account plus a freshly issued token for it
type AuthResult struct {
	Account model.Account
	Token   string
}

// Page is one page of an account listing
type Page struct {
	Page     int             `json:"page"`
	Pages    int             `json:"pages"`
	Count    int             `json:"count"`
	Accounts []model.Account `json:"accounts"`
}

// Register creates a standard account and logs it in
func (s *Service) Register(ctx context.Context, creds Credentials) (*AuthResult, error) {
	acct, err := s.create(ctx, creds, model.RoleStandard)
	if err != nil {
		return nil, err
	}
	tok, err := s.tokens.Issue(acct.Username, acct.Role, acct.ID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", acct.ID.String()),
		slog.String("username", acct.Username))
	return &AuthResult{Account: acct.Sanitized(), Token: tok}, nil
}

// RegisterAdmin creates an admin account. Admins get their save data
// initialized immediately since they never go through the upgrade flow.
// No token is issued; the new admin logs in normally.
func (s *Service) RegisterAdmin(ctx context.Context, creds Credentials) (*model.Account, error) {
	acct, err := s.create(ctx, creds, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSaveData(ctx, acct.ID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin account registered",
		slog.String("account_id", acct.ID.String()),
		slog.String("username", acct.Username))
	sanitized := acct.Sanitized()
	return &sanitized, nil
}

func (s *Service) create(ctx context.Context, creds Credentials, role model.Role) (*model.Account, error) {
	if err := ValidateUsername(creds.Username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(creds.Password); err != nil {
		return nil, err
	}
	taken, err := s.store.UsernameTaken(ctx, creds.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.ErrUsernameTaken
	}
	hash, salt, err := s.passwords.Hash(ctx, creds.Password)
	if err != nil {
		return nil, err
	}
	acct := &model.Account{
		ID:           uuid.New(),
		Username:     creds.Username,
		Role:         role,
		CreatedAt:    s.clock.Now(),
		PasswordHash: hash,
		Salt:         salt,
	}
	// The store enforces uniqueness again, so a racing registration for
	// the same username still surfaces as ErrUsernameTaken
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Authenticate verifies credentials and issues a token. Unknown usernames
// and wrong passwords both report ErrInvalidCredentials; banned accounts are
// told so.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	acct, err := s.store.GetAccountByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}
	if acct.Banned {
		return nil, model.ErrAccountBanned
	}
	ok, err := s.passwords.Verify(ctx, creds.Password, acct.PasswordHash, acct.Salt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(acct.Username, acct.Role, acct.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: acct.Sanitized(), Token: tok}, nil
}

// ChangePassword verifies the current password before setting the new one
func (s *Service) ChangePassword(ctx context.Context, id model.AccountID, current, next string) error {
	if err := ValidatePassword(next); err != nil {
		return err
	}
	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.passwords.Verify(ctx, current, acct.PasswordHash, acct.Salt)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrInvalidCredentials
	}
	hash, salt, err := s.passwords.Hash(ctx, next)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, hash, salt); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password changed",
		slog.String("account_id", id.String()))
	return nil
}

// Upgrade moves a standard account to upgraded after a structural payment
// check. The stored role is consulted, not the caller's token, so a stale
// token can't double-upgrade. The transaction record, role change, and save
// data initialization land atomically, and a token with the new role is
// issued.
func (s *Service) Upgrade(ctx context.Context, id model.AccountID, payment Payment) (*AuthResult, error) {
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	acct, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct.Role != model.RoleStandard {
		return nil, model.ErrAlreadyUpgraded
	}
	tx := &model.Transaction{
		ID:        s.transactionID(id),
		AccountID: id,
		FirstName: payment.FirstName,
		LastName:  payment.LastName,
		Address:   payment.Address,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.UpgradeAccount(ctx, id, tx); err != nil {
		return nil, err
	}
	tok, err := s.tokens.Issue(acct.Username, model.RoleUpgraded, id)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account upgraded",
		slog.String("account_id", id.String()),
		slog.String("transaction_id", tx.ID))
	upgraded := acct.Sanitized()
	upgraded.Role = model.RoleUpgraded
	return &AuthResult{Account: upgraded, Token: tok}, nil
}

// transactionID builds a payment transaction reference: a 5-digit random
// number plus the edges of the account id
func (s *Service) transactionID(id model.AccountID) string {
	idStr := id.String()
	n := 10000 + s.random.Intn(90000)
	return fmt.Sprintf("tx_%d%s%s", n, idStr[:6], idStr[len(idStr)-6:])
}

// Save writes a blob into one of the account's save slots
func (s *Service) Save(ctx context.Context, id model.AccountID, slot model.SaveSlot, blob model.SaveBlob) error {
	if !slot.Valid() {
		return model.ErrInvalidSlot
	}
	err := s.store.SaveSlot(ctx, id, slot, blob, s.clock.Now())
	if errors.Is(err, model.ErrSaveDataNotFound) {
		return model.ErrNotUpgraded
	}
	return err
}

// Load returns all of the account's save slots
func (s *Service) Load(ctx context.Context, id model.AccountID) (*model.SaveData, error) {
	data, err := s.store.LoadSaveData(ctx, id)
	if errors.Is(err, model.ErrSaveDataNotFound) {
		return nil, model.ErrNotUpgraded
	}
	return data, err
}

// Ban marks an account banned, invalidating future logins. Tokens already
// in flight stay valid until they expire.
func (s *Service) Ban(ctx context.Context, ident Identifier) (*model.Account, error) {
	acct, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if acct.Banned {
		return nil, model.ErrAlreadyBanned
	}
	now := s.clock.Now()
	if err := s.store.SetBanned(ctx, acct.ID, true, &now); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account banned",
		slog.String("account_id", acct.ID.String()),
		slog.String("username", acct.Username))
	acct.Banned = true
	acct.BannedAt = &now
	sanitized := acct.Sanitized()
	return &sanitized, nil
}

// Unban lifts a ban
func (s *Service) Unban(ctx context.Context, ident Identifier) (*model.Account, error) {
	acct, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !acct.Banned {
		return nil, model.ErrNotBanned
	}
	if err := s.store.SetBanned(ctx, acct.ID, false, nil); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account unbanned",
		slog.String("account_id", acct.ID.String()),
		slog.String("username", acct.Username))
	acct.Banned = false
	acct.BannedAt = nil
	sanitized := acct.Sanitized()
	return &sanitized, nil
}

// Delete removes an account along with its save data and transaction
// records, and returns the deleted account
func (s *Service) Delete(ctx context.Context, ident Identifier) (*model.Account, error) {
	acct, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteAccount(ctx, acct.ID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account deleted",
		slog.String("account_id", acct.ID.String()),
		slog.String("username", acct.Username))
	sanitized := acct.Sanitized()
	return &sanitized, nil
}

// List returns one page of accounts in creation order. Pages are 1-based;
// asking past the end is ErrPageNotFound, except that page 1 of an empty
// store is an empty page.
func (s *Service) List(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, model.ErrInvalidPage
	}
	total, err := s.store.CountAccounts(ctx)
	if err != nil {
		return nil, err
	}
	pages := (total + storage.PageSize - 1) / storage.PageSize
	if pages == 0 {
		pages = 1
	}
	if page > pages {
		return nil, model.ErrPageNotFound
	}
	accounts, err := s.store.ListAccounts(ctx, page)
	if err != nil {
		return nil, err
	}
	sanitized := make([]model.Account, len(accounts))
	for i, a := range accounts {
		sanitized[i] = a.Sanitized()
	}
	return &Page{
		Page:     page,
		Pages:    pages,
		Count:    len(sanitized),
		Accounts: sanitized,
	}, nil
}

// Get fetches one account by id or username
func (s *Service) Get(ctx context.Context, ident Identifier) (*model.Account, error) {
	acct, err := s.resolve(ctx, ident)
	if err != nil {
		return nil, err
	}
	sanitized := acct.Sanitized()
	return &sanitized, nil
}

func (s *Service) resolve(ctx context.Context, ident Identifier) (*model.Account, error) {
	if ident.id != nil {
		return s.store.GetAccount(ctx, *ident.id)
	}
	return s.store.GetAccountByUsername(ctx, ident.username)
}
