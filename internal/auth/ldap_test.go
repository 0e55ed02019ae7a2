package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/config"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

const (
	testBaseDN  = "dc=example,dc=com"
	testUserDN  = "cn=jdoe,dc=example,dc=com"
	testQueryDN = "cn=svc,dc=example,dc=com"
)

type bindCall struct {
	dn       string
	password string
}

// fakeConn is a scripted directory that records every call
type fakeConn struct {
	passwords map[string]string
	entries   []*ldap.Entry
	admin     bool

	bindErr   map[string]error
	searchErr error
	adminErr  error

	binds    []bindCall
	searches []*ldap.SearchRequest
	timeout  time.Duration
	startTLS int

	// block makes the user search wait until the connection is closed
	block chan struct{}

	mu      sync.Mutex
	unbinds int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		passwords: map[string]string{
			testQueryDN: "svc-secret",
			testUserDN:  "hunter2",
		},
		entries: []*ldap.Entry{
			ldap.NewEntry(testUserDN, map[string][]string{
				"uid":  {"jdoe"},
				"name": {"Jane Doe"},
				"mail": {"jane@example.com"},
			}),
		},
		bindErr: map[string]error{},
	}
}

func (f *fakeConn) Bind(dn, password string) error {
	f.binds = append(f.binds, bindCall{dn: dn, password: password})
	if err, ok := f.bindErr[dn]; ok {
		return err
	}
	if want, ok := f.passwords[dn]; !ok || want != password {
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
	}
	return nil
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.searches = append(f.searches, req)
	if req.Scope == ldap.ScopeBaseObject {
		if f.adminErr != nil {
			return nil, f.adminErr
		}
		if f.admin {
			return &ldap.SearchResult{Entries: []*ldap.Entry{ldap.NewEntry(req.BaseDN, nil)}}, nil
		}
		return &ldap.SearchResult{}, nil
	}
	if f.block != nil {
		<-f.block
		return nil, ldap.NewError(ldap.ErrorNetwork, errors.New("connection closed"))
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeConn) StartTLS(*tls.Config) error {
	f.startTLS++
	return nil
}

func (f *fakeConn) SetTimeout(timeout time.Duration) { f.timeout = timeout }

func (f *fakeConn) Unbind() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbinds++
	if f.block != nil && f.unbinds == 1 {
		close(f.block)
	}
	return nil
}

func testLDAPConfig() config.LDAPConfig {
	return config.LDAPConfig{
		Enabled:       true,
		ServerURL:     "ldap://directory:389",
		BaseDN:        testBaseDN,
		QueryBind:     "svc",
		QueryPassword: "svc-secret",
		UserFilter:    "(&(objectClass=user)(|({id_attribute}={input})({mail_attribute}={input})))",
		IDAttribute:   "uid",
		NameAttribute: "name",
		MailAttribute: "mail",
		Timeout:       5 * time.Second,
	}
}

func newTestAdapter(cfg config.LDAPConfig, conn *fakeConn) (*DirectoryAdapter, *int) {
	dials := 0
	dial := func(context.Context, config.LDAPConfig) (DirectoryConn, error) {
		dials++
		return conn, nil
	}
	return NewDirectoryAdapter(cfg, dial, logger.Discard()), &dials
}

func TestDirectoryAdapterVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		conn := newFakeConn()
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		identity, err := adapter.Verify(ctx, "jdoe", "hunter2")
		require.NoError(t, err)

		assert.Equal(t, "jdoe", identity.Username)
		assert.Equal(t, "jane@example.com", identity.Email)
		assert.Equal(t, "Jane Doe", identity.FullName)
		assert.Equal(t, testUserDN, identity.DN)
		assert.False(t, identity.Admin)
		assert.False(t, identity.AdminChecked)

		require.Len(t, conn.binds, 2)
		assert.Equal(t, bindCall{dn: testQueryDN, password: "svc-secret"}, conn.binds[0])
		assert.Equal(t, bindCall{dn: testUserDN, password: "hunter2"}, conn.binds[1])

		require.Len(t, conn.searches, 1)
		search := conn.searches[0]
		assert.Equal(t, testBaseDN, search.BaseDN)
		assert.Equal(t, ldap.ScopeWholeSubtree, search.Scope)
		assert.Equal(t, "(&(objectClass=user)(|(uid=jdoe)(mail=jdoe)))", search.Filter)
		assert.Equal(t, []string{"uid", "name", "mail"}, search.Attributes)

		assert.Equal(t, 5*time.Second, conn.timeout)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("AdminFilterMatches", func(t *testing.T) {
		cfg := testLDAPConfig()
		cfg.AdminFilter = "(memberOf=cn=admins,dc=example,dc=com)"
		conn := newFakeConn()
		conn.admin = true
		adapter, _ := newTestAdapter(cfg, conn)

		identity, err := adapter.Verify(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.True(t, identity.Admin)
		assert.True(t, identity.AdminChecked)

		require.Len(t, conn.searches, 2)
		adminSearch := conn.searches[1]
		assert.Equal(t, testUserDN, adminSearch.BaseDN)
		assert.Equal(t, ldap.ScopeBaseObject, adminSearch.Scope)
		assert.Equal(t, cfg.AdminFilter, adminSearch.Filter)
		assert.Empty(t, adminSearch.Attributes)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("AdminFilterNoMatch", func(t *testing.T) {
		cfg := testLDAPConfig()
		cfg.AdminFilter = "(memberOf=cn=admins,dc=example,dc=com)"
		conn := newFakeConn()
		adapter, _ := newTestAdapter(cfg, conn)

		identity, err := adapter.Verify(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.False(t, identity.Admin)
		assert.True(t, identity.AdminChecked)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		conn := newFakeConn()
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "jdoe", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		conn := newFakeConn()
		conn.entries = nil
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "nobody", "hunter2")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Len(t, conn.binds, 1)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("AmbiguousMatch", func(t *testing.T) {
		conn := newFakeConn()
		conn.entries = append(conn.entries, ldap.NewEntry("cn=jdoe2,dc=example,dc=com", map[string][]string{
			"uid": {"jdoe2"},
		}))
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Len(t, conn.binds, 1, "must not bind as any of the matches")
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("UserBindTransportError", func(t *testing.T) {
		conn := newFakeConn()
		conn.bindErr[testUserDN] = ldap.NewError(ldap.LDAPResultUnavailable, errors.New("server going down"))
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		var transportErr *DirectoryTransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "user bind", transportErr.Op)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("SearchTransportError", func(t *testing.T) {
		conn := newFakeConn()
		conn.searchErr = errors.New("connection reset")
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		var transportErr *DirectoryTransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("AdminSearchTransportError", func(t *testing.T) {
		cfg := testLDAPConfig()
		cfg.AdminFilter = "(memberOf=cn=admins,dc=example,dc=com)"
		conn := newFakeConn()
		conn.adminErr = errors.New("connection reset")
		adapter, _ := newTestAdapter(cfg, conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		var transportErr *DirectoryTransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "admin search", transportErr.Op)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("ServiceBindFailure", func(t *testing.T) {
		conn := newFakeConn()
		conn.passwords[testQueryDN] = "rotated"
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		var configErr *DirectoryConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "service bind", configErr.Op)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, conn.searches)
		assert.Equal(t, 1, conn.unbinds)
	})

	t.Run("DialFailure", func(t *testing.T) {
		dial := func(context.Context, config.LDAPConfig) (DirectoryConn, error) {
			return nil, errors.New("connection refused")
		}
		adapter := NewDirectoryAdapter(testLDAPConfig(), dial, logger.Discard())

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		var configErr *DirectoryConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "dial", configErr.Op)
	})

	t.Run("CancelledDial", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		dial := func(ctx context.Context, _ config.LDAPConfig) (DirectoryConn, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}
		adapter := NewDirectoryAdapter(testLDAPConfig(), dial, logger.Discard())

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		assert.ErrorIs(t, err, context.Canceled)
		var configErr *DirectoryConfigurationError
		assert.False(t, errors.As(err, &configErr))
	})

	t.Run("CancelClosesConnection", func(t *testing.T) {
		conn := newFakeConn()
		conn.block = make(chan struct{})
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(20*time.Millisecond, cancel)
		defer timer.Stop()

		start := time.Now()
		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), testLDAPConfig().Timeout)
	})

	t.Run("EmptyPasswordNeverDials", func(t *testing.T) {
		conn := newFakeConn()
		adapter, dials := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "jdoe", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Zero(t, *dials)
	})

	t.Run("FilterInputIsEscaped", func(t *testing.T) {
		conn := newFakeConn()
		conn.entries = nil
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		_, err := adapter.Verify(ctx, "*)(uid=*", "hunter2")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		require.Len(t, conn.searches, 1)
		assert.Equal(t, `(&(objectClass=user)(|(uid=\2a\29\28uid=\2a)(mail=\2a\29\28uid=\2a)))`, conn.searches[0].Filter)
	})

	t.Run("QueryBindIsDN", func(t *testing.T) {
		cfg := testLDAPConfig()
		cfg.QueryBind = "uid=reader,ou=system,dc=example,dc=com"
		conn := newFakeConn()
		conn.passwords[cfg.QueryBind] = "svc-secret"
		adapter, _ := newTestAdapter(cfg, conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, cfg.QueryBind, conn.binds[0].dn)
	})

	t.Run("StartTLS", func(t *testing.T) {
		cfg := testLDAPConfig()
		cfg.EnableStartTLS = true
		conn := newFakeConn()
		adapter, _ := newTestAdapter(cfg, conn)

		_, err := adapter.Verify(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, 1, conn.startTLS)
	})

	t.Run("InvalidUTF8Attribute", func(t *testing.T) {
		conn := newFakeConn()
		entry := ldap.NewEntry(testUserDN, map[string][]string{"uid": {"jdoe"}})
		entry.Attributes = append(entry.Attributes, &ldap.EntryAttribute{
			Name:       "name",
			Values:     []string{"J\xffne"},
			ByteValues: [][]byte{[]byte("J\xffne")},
		})
		conn.entries = []*ldap.Entry{entry}
		adapter, _ := newTestAdapter(testLDAPConfig(), conn)

		identity, err := adapter.Verify(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "J\uFFFDne", identity.FullName)
		assert.Empty(t, identity.Email)
	})
}

func TestDialLDAP(t *testing.T) {
	t.Run("UnsupportedScheme", func(t *testing.T) {
		cfg := testLDAPConfig()
		cfg.ServerURL = "http://directory"
		_, err := DialLDAP(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported directory URL scheme")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cfg := testLDAPConfig()
		cfg.ServerURL = "ldap://127.0.0.1:1"
		_, err := DialLDAP(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestHostPort(t *testing.T) {
	for _, tc := range []struct {
		raw, port, want string
	}{
		{"ldap://directory", ldap.DefaultLdapPort, "directory:389"},
		{"ldaps://directory", ldap.DefaultLdapsPort, "directory:636"},
		{"ldap://directory:1389", ldap.DefaultLdapPort, "directory:1389"},
	} {
		u, err := url.Parse(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, tc.want, hostPort(u, tc.port), tc.raw)
	}
}
