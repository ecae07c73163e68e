package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/karstgames/savepoint/internal/model"
)

// The postgres suite needs a real database. Point TEST_DATABASE_URL at a
// scratch database to run it; otherwise it is skipped.
type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}

	store, err := New(context.Background(), dsn)
	s.Require().NoError(err)
	s.storage = store
}

func (s *StorageSuite) TearDownSuite() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	_, err := s.storage.db.ExecContext(s.ctx, `TRUNCATE accounts CASCADE`)
	s.Require().NoError(err)
}

func (s *StorageSuite) newAccount(username string) *model.Account {
	return &model.Account{
		ID:           uuid.New(),
		Username:     username,
		Role:         model.RoleStandard,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		PasswordHash: []byte("hash"),
		Salt:         []byte("salt"),
	}
}

func (s *StorageSuite) TestCreateAndGetAccount() {
	account := s.newAccount("alice")
	s.Require().NoError(s.storage.CreateAccount(s.ctx, account))

	retrieved, err := s.storage.GetAccount(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)
	s.Equal([]byte("hash"), retrieved.PasswordHash)
}

func (s *StorageSuite) TestDuplicateUsernameIsConflict() {
	s.Require().NoError(s.storage.CreateAccount(s.ctx, s.newAccount("alice")))

	err := s.storage.CreateAccount(s.ctx, s.newAccount("ALICE"))
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *StorageSuite) TestGetAccountByUsernameIsCaseInsensitive() {
	account := s.newAccount("Alice")
	s.Require().NoError(s.storage.CreateAccount(s.ctx, account))

	retrieved, err := s.storage.GetAccountByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(account.ID, retrieved.ID)
}

func (s *StorageSuite) TestUpgradeAccountIsAtomic() {
	account := s.newAccount("alice")
	s.Require().NoError(s.storage.CreateAccount(s.ctx, account))

	// A transaction id collision forces a failure on the first statement;
	// nothing else from the unit may be visible afterwards
	mtx := &model.Transaction{ID: "tx_dup", AccountID: account.ID, CreatedAt: time.Now().UTC()}
	s.Require().NoError(s.storage.UpgradeAccount(s.ctx, account.ID, mtx))

	other := s.newAccount("bob")
	s.Require().NoError(s.storage.CreateAccount(s.ctx, other))
	dup := &model.Transaction{ID: "tx_dup", AccountID: other.ID, CreatedAt: time.Now().UTC()}
	s.Require().Error(s.storage.UpgradeAccount(s.ctx, other.ID, dup))

	retrieved, err := s.storage.GetAccount(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Equal(model.RoleStandard, retrieved.Role)
	_, err = s.storage.LoadSaveData(s.ctx, other.ID)
	s.ErrorIs(err, model.ErrSaveDataNotFound)
}

func (s *StorageSuite) TestSaveAndLoadSlots() {
	account := s.newAccount("alice")
	s.Require().NoError(s.storage.CreateAccount(s.ctx, account))
	s.Require().NoError(s.storage.CreateSaveData(s.ctx, account.ID))

	at := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.storage.SaveSlot(s.ctx, account.ID, model.SlotOne, model.SaveBlob(`{"hp": 10}`), at))

	data, err := s.storage.LoadSaveData(s.ctx, account.ID)
	s.Require().NoError(err)
	s.JSONEq(`{"hp": 10}`, string(data.SlotOne))
	s.Nil(data.SlotTwo)
	s.Require().NotNil(data.SavedOne)
}

func (s *StorageSuite) TestDeleteAccountCascades() {
	account := s.newAccount("alice")
	s.Require().NoError(s.storage.CreateAccount(s.ctx, account))
	s.Require().NoError(s.storage.CreateSaveData(s.ctx, account.ID))

	s.Require().NoError(s.storage.DeleteAccount(s.ctx, account.ID))

	_, err := s.storage.GetAccount(s.ctx, account.ID)
	s.ErrorIs(err, model.ErrAccountNotFound)
	_, err = s.storage.LoadSaveData(s.ctx, account.ID)
	s.ErrorIs(err, model.ErrSaveDataNotFound)
}
