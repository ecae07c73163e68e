package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) newAccount(username string) *model.Account {
	return &model.Account{
		ID:           uuid.New(),
		Username:     username,
		Role:         model.RoleStandard,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		PasswordHash: []byte("hash"),
		Salt:         []byte("salt"),
	}
}

// Account tests

func (s *StorageSuite) TestCreateAndGetAccount() {
	account := s.newAccount("alice")
	err := s.storage.CreateAccount(s.ctx, account)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Equal(account.Username, retrieved.Username)
	s.Equal(model.RoleStandard, retrieved.Role)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, uuid.New())
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestGetAccountByUsernameIsCaseInsensitive() {
	account := s.newAccount("Alice")
	_ = s.storage.CreateAccount(s.ctx, account)

	retrieved, err := s.storage.GetAccountByUsername(s.ctx, "aLiCe")
	s.Require().NoError(err)
	s.Equal(account.ID, retrieved.ID)
}

func (s *StorageSuite) TestUsernameTakenIsCaseInsensitive() {
	_ = s.storage.CreateAccount(s.ctx, s.newAccount("alice"))

	taken, err := s.storage.UsernameTaken(s.ctx, "ALICE")
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.storage.UsernameTaken(s.ctx, "bob")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *StorageSuite) TestCreateAccountRejectsDuplicateUsername() {
	_ = s.storage.CreateAccount(s.ctx, s.newAccount("alice"))

	err := s.storage.CreateAccount(s.ctx, s.newAccount("Alice"))
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *StorageSuite) TestUpdatePassword() {
	account := s.newAccount("alice")
	_ = s.storage.CreateAccount(s.ctx, account)

	err := s.storage.UpdatePassword(s.ctx, account.ID, []byte("newhash"), []byte("newsalt"))
	s.Require().NoError(err)

	retrieved, _ := s.storage.GetAccount(s.ctx, account.ID)
	s.Equal([]byte("newhash"), retrieved.PasswordHash)
	s.Equal([]byte("newsalt"), retrieved.Salt)
}

func (s *StorageSuite) TestSetBanned() {
	account := s.newAccount("alice")
	_ = s.storage.CreateAccount(s.ctx, account)

	now := time.Now().UTC()
	err := s.storage.SetBanned(s.ctx, account.ID, true, &now)
	s.Require().NoError(err)

	retrieved, _ := s.storage.GetAccount(s.ctx, account.ID)
	s.True(retrieved.Banned)
	s.Require().NotNil(retrieved.BannedAt)

	err = s.storage.SetBanned(s.ctx, account.ID, false, nil)
	s.Require().NoError(err)

	retrieved, _ = s.storage.GetAccount(s.ctx, account.ID)
	s.False(retrieved.Banned)
	s.Nil(retrieved.BannedAt)
}

func (s *StorageSuite) TestDeleteAccountRemovesSavesAndTransactions() {
	account := s.newAccount("alice")
	_ = s.storage.CreateAccount(s.ctx, account)
	_ = s.storage.UpgradeAccount(s.ctx, account.ID, &model.Transaction{
		ID:        "tx_1",
		AccountID: account.ID,
	})

	err := s.storage.DeleteAccount(s.ctx, account.ID)
	s.Require().NoError(err)

	_, err = s.storage.GetAccount(s.ctx, account.ID)
	s.ErrorIs(err, model.ErrAccountNotFound)
	_, err = s.storage.LoadSaveData(s.ctx, account.ID)
	s.ErrorIs(err, model.ErrSaveDataNotFound)
	_, ok := s.storage.GetTransaction("tx_1")
	s.False(ok)

	taken, _ := s.storage.UsernameTaken(s.ctx, "alice")
	s.False(taken)
}

// Listing tests

func (s *StorageSuite) TestListAccountsPagination() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < storage.PageSize+5; i++ {
		account := s.newAccount(usernameFor(i))
		account.CreatedAt = base.Add(time.Duration(i) * time.Second)
		s.Require().NoError(s.storage.CreateAccount(s.ctx, account))
	}

	count, err := s.storage.CountAccounts(s.ctx)
	s.Require().NoError(err)
	s.Equal(storage.PageSize+5, count)

	first, err := s.storage.ListAccounts(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(first, storage.PageSize)
	s.Equal(usernameFor(0), first[0].Username)

	second, err := s.storage.ListAccounts(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(second, 5)
	s.Equal(usernameFor(storage.PageSize), second[0].Username)

	third, err := s.storage.ListAccounts(s.ctx, 3)
	s.Require().NoError(err)
	s.Empty(third)
}

func usernameFor(i int) string {
	return "user_" + string(rune('a'+i/10)) + string(rune('a'+i%10))
}

// Upgrade tests

func (s *StorageSuite) TestUpgradeAccountFlipsRoleAndInitializesSaves() {
	account := s.newAccount("alice")
	_ = s.storage.CreateAccount(s.ctx, account)

	tx := &model.Transaction{ID: "tx_42", AccountID: account.ID, FirstName: "Alice"}
	err := s.storage.UpgradeAccount(s.ctx, account.ID, tx)
	s.Require().NoError(err)

	retrieved, _ := s.storage.GetAccount(s.ctx, account.ID)
	s.Equal(model.RoleUpgraded, retrieved.Role)

	data, err := s.storage.LoadSaveData(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Nil(data.SlotOne)
	s.Nil(data.SlotTwo)
	s.Nil(data.SlotThree)

	recorded, ok := s.storage.GetTransaction("tx_42")
	s.Require().True(ok)
	s.Equal("Alice", recorded.FirstName)
}

func (s *StorageSuite) TestUpgradeAccountUnknownAccount() {
	err := s.storage.UpgradeAccount(s.ctx, uuid.New(), &model.Transaction{ID: "tx_x"})
	s.ErrorIs(err, model.ErrAccountNotFound)

	// A failed upgrade leaves no partial writes behind
	_, ok := s.storage.GetTransaction("tx_x")
	s.False(ok)
}

// Save slot tests

func (s *StorageSuite) TestSaveAndLoadSlots() {
	account := s.newAccount("alice")
	_ = s.storage.CreateAccount(s.ctx, account)
	_ = s.storage.CreateSaveData(s.ctx, account.ID)

	blob := model.SaveBlob(`{"room":"cavern"}`)
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	err := s.storage.SaveSlot(s.ctx, account.ID, model.SlotTwo, blob, at)
	s.Require().NoError(err)

	data, err := s.storage.LoadSaveData(s.ctx, account.ID)
	s.Require().NoError(err)
	s.Nil(data.SlotOne)
	s.JSONEq(`{"room":"cavern"}`, string(data.SlotTwo))
	s.Require().NotNil(data.SavedTwo)
	s.True(data.SavedTwo.Equal(at))
	s.Nil(data.SlotThree)
}

func (s *StorageSuite) TestSaveSlotOverwrites() {
	account := s.newAccount("alice")
	_ = s.storage.CreateAccount(s.ctx, account)
	_ = s.storage.CreateSaveData(s.ctx, account.ID)

	_ = s.storage.SaveSlot(s.ctx, account.ID, model.SlotOne, model.SaveBlob(`{"v":1}`), time.Now())
	err := s.storage.SaveSlot(s.ctx, account.ID, model.SlotOne, model.SaveBlob(`{"v":2}`), time.Now())
	s.Require().NoError(err)

	data, _ := s.storage.LoadSaveData(s.ctx, account.ID)
	s.JSONEq(`{"v":2}`, string(data.SlotOne))
}

func (s *StorageSuite) TestSaveSlotWithoutSaveData() {
	err := s.storage.SaveSlot(s.ctx, uuid.New(), model.SlotOne, model.SaveBlob(`{}`), time.Now())
	s.ErrorIs(err, model.ErrSaveDataNotFound)
}
