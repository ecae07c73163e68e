package model

import (
	"encoding/json"
	"time"
)

// SaveSlot selects one of the three save slots
type SaveSlot int

const (
	SlotOne   SaveSlot = 1
	SlotTwo   SaveSlot = 2
	SlotThree SaveSlot = 3
)

// Valid reports whether the slot selector is in range
func (s SaveSlot) Valid() bool {
	return s >= SlotOne && s <= SlotThree
}

// SaveBlob is an opaque game save payload. The server stores and returns it
// verbatim; its internal shape belongs to the game client.
type SaveBlob = json.RawMessage

// SaveData holds an account's three save slots. Slots start empty and are
// written independently.
type SaveData struct {
	AccountID  AccountID  `json:"id"`
	SlotOne    SaveBlob   `json:"save_one,omitempty"`
	SlotTwo    SaveBlob   `json:"save_two,omitempty"`
	SlotThree  SaveBlob   `json:"save_three,omitempty"`
	SavedOne   *time.Time `json:"timestamp_one,omitempty"`
	SavedTwo   *time.Time `json:"timestamp_two,omitempty"`
	SavedThree *time.Time `json:"timestamp_three,omitempty"`
}

// Slot returns the blob and write time for the given slot
func (d *SaveData) Slot(slot SaveSlot) (SaveBlob, *time.Time) {
	switch slot {
	case SlotOne:
		return d.SlotOne, d.SavedOne
	case SlotTwo:
		return d.SlotTwo, d.SavedTwo
	case SlotThree:
		return d.SlotThree, d.SavedThree
	}
	return nil, nil
}

// SetSlot overwrites the blob and write time for the given slot
func (d *SaveData) SetSlot(slot SaveSlot, blob SaveBlob, at time.Time) {
	switch slot {
	case SlotOne:
		d.SlotOne, d.SavedOne = blob, &at
	case SlotTwo:
		d.SlotTwo, d.SavedTwo = blob, &at
	case SlotThree:
		d.SlotThree, d.SavedThree = blob, &at
	}
}

// Transaction is the record persisted for an account upgrade. The payment
// itself is a placeholder; no card details are ever stored.
type Transaction struct {
	ID        string    `json:"tx_id"`
	AccountID AccountID `json:"account_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
