package redis

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/karstgames/savepoint/internal/model"
)

// parseAccountID parses an account id stored as a string index member
func parseAccountID(s string) (model.AccountID, error) {
	return uuid.Parse(s)
}

// Key prefix for all account-related data
const keyPrefix = "savepoint"

// Key generation functions for each entity type

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> account_id index.
// Usernames are lowercased so lookups stay case-insensitive.
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, strings.ToLower(username))
}

// accountsByCreationKey returns the Redis key for the sorted set of account
// ids ordered by creation time (listing order)
func accountsByCreationKey() string {
	return fmt.Sprintf("%s:idx:accounts_by_creation", keyPrefix)
}

// saveDataKey returns the Redis key for an account's SaveData
func saveDataKey(id model.AccountID) string {
	return fmt.Sprintf("%s:savedata:%s", keyPrefix, id)
}

// transactionKey returns the Redis key for an upgrade Transaction
func transactionKey(txID string) string {
	return fmt.Sprintf("%s:tx:%s", keyPrefix, txID)
}

// transactionsForAccountKey returns the Redis key for the SET of transaction
// ids recorded for an account
func transactionsForAccountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:idx:tx_for_account:%s", keyPrefix, id)
}
