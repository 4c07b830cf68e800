package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/afowler-mm/support-reports/internal/contracts"
)

// ErrBadCredentials covers every login failure: unknown user, wrong password,
// unreadable credentials tab. Callers never learn which.
var ErrBadCredentials = errors.New("invalid username or password")

// User is a resolved login from the credentials tab.
type User struct {
	Username   string
	ClientCode string
	Role       string
}

// Layout of the credentials tab: a header row, then one row per login with
// username in column 0, password in column 1, client code in column 2.
const (
	credUsernameColumn   = 0
	credPasswordColumn   = 1
	credClientCodeColumn = 2
)

// CredentialStore authenticates logins against the workbook's credentials
// tab. The tab is maintained alongside the contract tabs by the operations
// team; a row whose client code is "admin" grants the admin role.
type CredentialStore struct {
	source contracts.Source
	tab    string
}

// NewCredentialStore creates a store reading the named tab.
func NewCredentialStore(source contracts.Source, tab string) *CredentialStore {
	if tab == "" {
		tab = "Login credentials"
	}
	return &CredentialStore{source: source, tab: tab}
}

// Authenticate checks a username and password against the credentials tab.
// Usernames are matched case-insensitively; passwords byte for byte in
// constant time.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	grid, err := s.source.Grid(ctx, s.tab)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCredentials, err)
	}

	username = strings.TrimSpace(username)
	for i, row := range grid {
		if i == 0 || len(row) <= credClientCodeColumn {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(row[credUsernameColumn]), username) {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(row[credPasswordColumn]), []byte(password)) != 1 {
			return nil, ErrBadCredentials
		}

		code := strings.TrimSpace(row[credClientCodeColumn])
		role := RoleClient
		if strings.EqualFold(code, RoleAdmin) {
			role = RoleAdmin
		}
		return &User{Username: username, ClientCode: code, Role: role}, nil
	}

	return nil, ErrBadCredentials
}
