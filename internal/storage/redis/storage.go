package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// storedAccount is the persisted form of an Account. model.Account excludes
// credential fields from JSON, so the store keeps its own representation.
type storedAccount struct {
	ID           model.AccountID `json:"id"`
	Username     string          `json:"username"`
	Role         model.Role      `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
	Banned       bool            `json:"banned"`
	BannedAt     *time.Time      `json:"banned_at,omitempty"`
	PasswordHash []byte          `json:"password_hash"`
	Salt         []byte          `json:"salt"`
}

func toStored(a *model.Account) *storedAccount {
	return &storedAccount{
		ID:           a.ID,
		Username:     a.Username,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
		Banned:       a.Banned,
		BannedAt:     a.BannedAt,
		PasswordHash: a.PasswordHash,
		Salt:         a.Salt,
	}
}

func (sa *storedAccount) toModel() *model.Account {
	return &model.Account{
		ID:           sa.ID,
		Username:     sa.Username,
		Role:         sa.Role,
		CreatedAt:    sa.CreatedAt,
		Banned:       sa.Banned,
		BannedAt:     sa.BannedAt,
		PasswordHash: sa.PasswordHash,
		Salt:         sa.Salt,
	}
}

func storeErr(err error) error {
	return model.NewStoreError("REDIS", err)
}

// Account operations

func (s *Storage) getStored(ctx context.Context, id model.AccountID) (*storedAccount, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, storeErr(err)
	}

	var sa storedAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, storeErr(err)
	}
	return &sa, nil
}

func (s *Storage) putStored(ctx context.Context, pipe redis.Pipeliner, sa *storedAccount) error {
	data, err := json.Marshal(sa)
	if err != nil {
		return storeErr(err)
	}
	pipe.Set(ctx, accountKey(sa.ID), data, 0)
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	sa, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}
	return sa.toModel(), nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	idStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, storeErr(err)
	}

	id, err := parseAccountID(idStr)
	if err != nil {
		return nil, storeErr(err)
	}
	return s.GetAccount(ctx, id)
}

func (s *Storage) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		return false, storeErr(err)
	}
	return n > 0, nil
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(toStored(account))
	if err != nil {
		return storeErr(err)
	}

	// Claim the username first so two concurrent registrations cannot both
	// succeed for the same name
	ok, err := s.client.SetNX(ctx, usernameIndexKey(account.Username), account.ID.String(), 0).Result()
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return model.ErrUsernameTaken
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, accountKey(account.ID), data, 0)
	pipe.ZAdd(ctx, accountsByCreationKey(), redis.Z{
		Score:  float64(account.CreatedAt.UnixNano()),
		Member: account.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Storage) UpdatePassword(ctx context.Context, id model.AccountID, hash, salt []byte) error {
	return s.updateAccount(ctx, id, func(sa *storedAccount) {
		sa.PasswordHash = append([]byte(nil), hash...)
		sa.Salt = append([]byte(nil), salt...)
	})
}

func (s *Storage) SetBanned(ctx context.Context, id model.AccountID, banned bool, at *time.Time) error {
	return s.updateAccount(ctx, id, func(sa *storedAccount) {
		sa.Banned = banned
		sa.BannedAt = at
	})
}

// updateAccount applies a read-modify-write under WATCH so concurrent updates
// to the same account retry instead of clobbering each other
func (s *Storage) updateAccount(ctx context.Context, id model.AccountID, mutate func(*storedAccount)) error {
	key := accountKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrAccountNotFound
			}
			return err
		}

		var sa storedAccount
		if err := json.Unmarshal(data, &sa); err != nil {
			return err
		}
		mutate(&sa)

		updated, err := json.Marshal(&sa)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return err
		}
		return storeErr(err)
	}
	return nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.AccountID) error {
	sa, err := s.getStored(ctx, id)
	if err != nil {
		return err
	}

	txIDs, err := s.client.SMembers(ctx, transactionsForAccountKey(id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storeErr(err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, accountKey(id))
	pipe.Del(ctx, usernameIndexKey(sa.Username))
	pipe.ZRem(ctx, accountsByCreationKey(), id.String())
	pipe.Del(ctx, saveDataKey(id))
	for _, txID := range txIDs {
		pipe.Del(ctx, transactionKey(txID))
	}
	pipe.Del(ctx, transactionsForAccountKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

// Listing

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, accountsByCreationKey()).Result()
	if err != nil {
		return 0, storeErr(err)
	}
	return int(n), nil
}

func (s *Storage) ListAccounts(ctx context.Context, page int) ([]model.Account, error) {
	offset := int64(page-1) * storage.PageSize
	ids, err := s.client.ZRange(ctx, accountsByCreationKey(), offset, offset+storage.PageSize-1).Result()
	if err != nil {
		return nil, storeErr(err)
	}

	accounts := make([]model.Account, 0, len(ids))
	for _, idStr := range ids {
		id, err := parseAccountID(idStr)
		if err != nil {
			return nil, storeErr(err)
		}
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			// Index can briefly outlive a deleted account row
			if errors.Is(err, model.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// Upgrade

func (s *Storage) UpgradeAccount(ctx context.Context, id model.AccountID, mtx *model.Transaction) error {
	key := accountKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrAccountNotFound
			}
			return err
		}

		var sa storedAccount
		if err := json.Unmarshal(data, &sa); err != nil {
			return err
		}
		sa.Role = model.RoleUpgraded

		updated, err := json.Marshal(&sa)
		if err != nil {
			return err
		}
		txData, err := json.Marshal(mtx)
		if err != nil {
			return err
		}
		saveData, err := json.Marshal(&model.SaveData{AccountID: id})
		if err != nil {
			return err
		}

		// The three upgrade effects commit together (MULTI/EXEC)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, transactionKey(mtx.ID), txData, 0)
			pipe.SAdd(ctx, transactionsForAccountKey(id), mtx.ID)
			pipe.Set(ctx, key, updated, 0)
			pipe.SetNX(ctx, saveDataKey(id), saveData, 0)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return err
		}
		return storeErr(err)
	}
	return nil
}

// Save data operations

func (s *Storage) CreateSaveData(ctx context.Context, id model.AccountID) error {
	data, err := json.Marshal(&model.SaveData{AccountID: id})
	if err != nil {
		return storeErr(err)
	}
	if err := s.client.SetNX(ctx, saveDataKey(id), data, 0).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *Storage) SaveSlot(ctx context.Context, id model.AccountID, slot model.SaveSlot, blob model.SaveBlob, at time.Time) error {
	key := saveDataKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrSaveDataNotFound
			}
			return err
		}

		var sd model.SaveData
		if err := json.Unmarshal(data, &sd); err != nil {
			return err
		}
		sd.SetSlot(slot, blob, at)

		updated, err := json.Marshal(&sd)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, model.ErrSaveDataNotFound) {
			return err
		}
		return storeErr(err)
	}
	return nil
}

func (s *Storage) LoadSaveData(ctx context.Context, id model.AccountID) (*model.SaveData, error) {
	data, err := s.client.Get(ctx, saveDataKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSaveDataNotFound
		}
		return nil, storeErr(err)
	}

	var sd model.SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, storeErr(err)
	}
	return &sd, nil
}
