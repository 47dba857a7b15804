package auditware_test

import (
	"context"
	"net/http"

	auditware "github.com/goliatone/go-auditware"
	"github.com/stretchr/testify/mock"
)

// MockUserStore mocks the UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) UpsertUser(ctx context.Context, identity *auditware.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// MockAccessLogStore mocks the AccessLogStore interface
type MockAccessLogStore struct {
	mock.Mock
}

func (m *MockAccessLogStore) InsertAccessLog(ctx context.Context, entry *auditware.AccessLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockOAuthClient mocks the external OAuth client boundary
type MockOAuthClient struct {
	mock.Mock
}

func (m *MockOAuthClient) AuthorizeRedirect(w http.ResponseWriter, r *http.Request) error {
	args := m.Called(w, r)
	if args.Error(0) == nil {
		http.Redirect(w, r, "https://provider.example/authorize", http.StatusFound)
	}
	return args.Error(0)
}

func (m *MockOAuthClient) AuthorizeAccessToken(r *http.Request) (*auditware.Token, error) {
	args := m.Called(r)
	if token := args.Get(0); token != nil {
		return token.(*auditware.Token), args.Error(1)
	}
	return nil, args.Error(1)
}
