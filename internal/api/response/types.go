package response

import (
	"encoding/json"
	"time"

	"github.com/karstgames/savepoint/internal/model"
	"github.com/karstgames/savepoint/internal/services/account"
)

// Account represents an account in API responses. Credentials never appear.
type Account struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	Banned    bool       `json:"banned"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		ID:        a.ID.String(),
		Username:  a.Username,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
		Banned:    a.Banned,
		BannedAt:  a.BannedAt,
	}
}

// AuthResponse is the response for endpoints that log the caller in
type AuthResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// AuthResponseFromResult creates an AuthResponse from a service auth result
func AuthResponseFromResult(res *account.AuthResult) AuthResponse {
	return AuthResponse{
		Account: AccountFromModel(&res.Account),
		Token:   res.Token,
	}
}

// TokenResponse carries a refreshed token
type TokenResponse struct {
	Token string `json:"token"`
}

// SaveData represents the three save slots in API responses
type SaveData struct {
	SlotOne    json.RawMessage `json:"save_one,omitempty"`
	SlotTwo    json.RawMessage `json:"save_two,omitempty"`
	SlotThree  json.RawMessage `json:"save_three,omitempty"`
	SavedOne   *time.Time      `json:"saved_one,omitempty"`
	SavedTwo   *time.Time      `json:"saved_two,omitempty"`
	SavedThree *time.Time      `json:"saved_three,omitempty"`
}

// SaveDataFromModel converts model.SaveData
func SaveDataFromModel(d *model.SaveData) SaveData {
	return SaveData{
		SlotOne:    json.RawMessage(d.SlotOne),
		SlotTwo:    json.RawMessage(d.SlotTwo),
		SlotThree:  json.RawMessage(d.SlotThree),
		SavedOne:   d.SavedOne,
		SavedTwo:   d.SavedTwo,
		SavedThree: d.SavedThree,
	}
}

// AccountPage is one page of an account listing
type AccountPage struct {
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Count    int       `json:"count"`
	Accounts []Account `json:"accounts"`
}

// AccountPageFromService converts a service listing page
func AccountPageFromService(p *account.Page) AccountPage {
	accounts := make([]Account, len(p.Accounts))
	for i := range p.Accounts {
		accounts[i] = AccountFromModel(&p.Accounts[i])
	}
	return AccountPage{
		Page:     p.Page,
		Pages:    p.Pages,
		Count:    p.Count,
		Accounts: accounts,
	}
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
