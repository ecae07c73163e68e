package request

import "encoding/json"

// RegisterRequest is the request body for registering an account. The same
// shape serves admin creation.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the request body for changing a password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpgradeRequest is the request body for the upgrade purchase. Card fields
// are validated structurally and discarded.
type UpgradeRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	CardNumber string `json:"card_number"`
	CVC        string `json:"cvc"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
}

// SaveRequest is the request body for writing a save slot. Data is kept as
// raw JSON; the service stores it opaquely.
type SaveRequest struct {
	Slot int             `json:"slot"`
	Data json.RawMessage `json:"data"`
}

// IdentifierRequest is the request body for admin operations that target an
// account by id or username
type IdentifierRequest struct {
	Identifier string `json:"identifier"`
}
