package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Account:
		o.printAccount(v)
	case AuthResult:
		o.printAuthResult(v)
	case TokenResult:
		fmt.Printf("Token: %s\n", v.Token)
	case SaveData:
		o.printSaveData(v)
	case AccountPage:
		o.printAccountPage(v)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	Banned    bool       `json:"banned"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`
}

// AuthResult combines account and token
type AuthResult struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// TokenResult carries a refreshed token
type TokenResult struct {
	Token string `json:"token"`
}

// SaveData response type
type SaveData struct {
	SlotOne    json.RawMessage `json:"save_one,omitempty"`
	SlotTwo    json.RawMessage `json:"save_two,omitempty"`
	SlotThree  json.RawMessage `json:"save_three,omitempty"`
	SavedOne   *time.Time      `json:"saved_one,omitempty"`
	SavedTwo   *time.Time      `json:"saved_two,omitempty"`
	SavedThree *time.Time      `json:"saved_three,omitempty"`
}

// AccountPage response type
type AccountPage struct {
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Count    int       `json:"count"`
	Accounts []Account `json:"accounts"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAccount(a Account) {
	fmt.Printf("Account: %s (%s)\n", a.Username, a.ID)
	fmt.Printf("Role: %s\n", a.Role)
	fmt.Printf("Created: %s\n", a.CreatedAt.Format(time.RFC3339))
	if a.Banned {
		banned := "yes"
		if a.BannedAt != nil {
			banned = "since " + a.BannedAt.Format(time.RFC3339)
		}
		fmt.Printf("Banned: %s\n", banned)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printAccount(a.Account)
	fmt.Printf("Token: %s\n", a.Token)
}

func (o *Output) printSaveData(d SaveData) {
	printSlot := func(name string, blob json.RawMessage, at *time.Time) {
		if len(blob) == 0 {
			fmt.Printf("Slot %s: empty\n", name)
			return
		}
		fmt.Printf("Slot %s (%s): %s\n", name, at.Format(time.RFC3339), string(blob))
	}
	printSlot("1", d.SlotOne, d.SavedOne)
	printSlot("2", d.SlotTwo, d.SavedTwo)
	printSlot("3", d.SlotThree, d.SavedThree)
}

func (o *Output) printAccountPage(p AccountPage) {
	fmt.Printf("Page %d of %d (%d accounts):\n", p.Page, p.Pages, p.Count)
	for _, a := range p.Accounts {
		status := ""
		if a.Banned {
			status = " [banned]"
		}
		fmt.Printf("  %s  %-15s %-8s%s\n", a.ID, a.Username, a.Role, status)
	}
}
