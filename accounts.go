package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"staffLookupPortal/internal/session"
)

// ErrInvalidCredentials is returned for any username/password mismatch. The
// caller gets no hint whether the username exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is one entry of the static credential table. Either Password or
// PasswordHash (bcrypt) must be set; when both are present the hash wins.
type Account struct {
	Username     string `json:"username"`
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
	Role         string `json:"role"`
	DisplayName  string `json:"display_name,omitempty"`
}

// defaultAccounts is the built-in credential table, used when no accounts file
// is configured. Deployments that care should point ACCOUNTS_FILE at a JSON
// list with bcrypt hashes instead.
var defaultAccounts = []Account{
	{Username: "admin", Password: "admin@2024", Role: session.RoleAdmin, DisplayName: "Administrator"},
	{Username: "hr", Password: "hr#2024", Role: session.RoleAdmin, DisplayName: "HR Office"},
	{Username: "staff", Password: "staff@2024", Role: session.RoleUser, DisplayName: "Staff"},
}

// AccountTable resolves login attempts against a fixed set of accounts.
// Username matching is case- and whitespace-tolerant; the password match is
// exact.
type AccountTable struct {
	byUser map[string]Account
}

func NewAccountTable(accounts []Account) (*AccountTable, error) {
	byUser := make(map[string]Account, len(accounts))
	for _, acct := range accounts {
		key := normalizeUsername(acct.Username)
		if key == "" {
			return nil, fmt.Errorf("account with empty username")
		}
		if acct.Password == "" && acct.PasswordHash == "" {
			return nil, fmt.Errorf("account %q has no password or password hash", acct.Username)
		}
		if acct.Role == "" {
			return nil, fmt.Errorf("account %q has no role", acct.Username)
		}
		byUser[key] = acct
	}
	return &AccountTable{byUser: byUser}, nil
}

// LoadAccounts builds the table from the configured accounts file, falling
// back to the built-in table when none is set.
func LoadAccounts(config *Config) (*AccountTable, error) {
	if config.AccountsFile == "" {
		return NewAccountTable(defaultAccounts)
	}

	data, err := os.ReadFile(config.AccountsFile)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("accounts file %s has no entries", config.AccountsFile)
	}
	return NewAccountTable(accounts)
}

// Authenticate checks a credential pair against the table.
func (t *AccountTable) Authenticate(username, password string) (Account, error) {
	acct, ok := t.byUser[normalizeUsername(username)]
	if !ok {
		return Account{}, ErrInvalidCredentials
	}

	if acct.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
			return Account{}, ErrInvalidCredentials
		}
		return acct, nil
	}

	if subtle.ConstantTimeCompare([]byte(acct.Password), []byte(password)) != 1 {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
