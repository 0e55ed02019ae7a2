package auth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/config"
)

// DirectoryConn is the subset of *ldap.Conn the adapter needs
type DirectoryConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	StartTLS(cfg *tls.Config) error
	SetTimeout(timeout time.Duration)
	Unbind() error
}

// DialFunc opens a directory connection. The context bounds the dial only.
type DialFunc func(ctx context.Context, cfg config.LDAPConfig) (DirectoryConn, error)

// DirectoryIdentity is what a successful directory login yields
type DirectoryIdentity struct {
	DN       string
	Username string
	Email    string
	FullName string
	Admin    bool
	// AdminChecked is false when no admin filter is configured, in which
	// case Admin carries no information.
	AdminChecked bool
}

// DirectoryAdapter verifies credentials against an LDAP directory
type DirectoryAdapter struct {
	cfg    config.LDAPConfig
	dial   DialFunc
	logger *logrus.Logger
}

// NewDirectoryAdapter creates an adapter. A nil dial uses DialLDAP.
func NewDirectoryAdapter(cfg config.LDAPConfig, dial DialFunc, logger *logrus.Logger) *DirectoryAdapter {
	if dial == nil {
		dial = DialLDAP
	}
	return &DirectoryAdapter{cfg: cfg, dial: dial, logger: logger}
}

// Verify locates the user with the service account, re-binds as the user to
// check the password and optionally tests admin membership. The connection
// is released on every return path.
func (a *DirectoryAdapter) Verify(ctx context.Context, identifier, password string) (*DirectoryIdentity, error) {
	// An empty password turns a simple bind into an unauthenticated bind,
	// which most servers accept.
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := a.logger.WithFields(logrus.Fields{
		"identifier": identifier,
		"server":     a.cfg.ServerURL,
	})

	conn, err := a.dial(ctx, a.cfg)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &DirectoryConfigurationError{Op: "dial", Err: err}
	}
	// Cancelling ctx closes the connection, failing any request in flight.
	stop := context.AfterFunc(ctx, func() { _ = conn.Unbind() })
	defer func() {
		if !stop() {
			return
		}
		if err := conn.Unbind(); err != nil {
			log.WithError(err).Debug("Failed to unbind directory connection")
		}
	}()
	conn.SetTimeout(a.cfg.Timeout)

	identity, err := a.verify(conn, log, identifier, password)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return identity, nil
}

func (a *DirectoryAdapter) verify(conn DirectoryConn, log *logrus.Entry, identifier, password string) (*DirectoryIdentity, error) {
	if a.cfg.EnableStartTLS {
		tlsCfg, err := tlsConfig(a.cfg)
		if err != nil {
			return nil, &DirectoryConfigurationError{Op: "starttls", Err: err}
		}
		if err := conn.StartTLS(tlsCfg); err != nil {
			return nil, &DirectoryConfigurationError{Op: "starttls", Err: err}
		}
	}

	if a.cfg.QueryBind != "" {
		if err := conn.Bind(a.queryDN(), a.cfg.QueryPassword); err != nil {
			return nil, &DirectoryConfigurationError{Op: "service bind", Err: err}
		}
	}

	result, err := conn.Search(ldap.NewSearchRequest(
		a.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		a.timeLimit(),
		false,
		a.userFilter(identifier),
		[]string{a.cfg.IDAttribute, a.cfg.NameAttribute, a.cfg.MailAttribute},
		nil,
	))
	if err != nil {
		return nil, &DirectoryTransportError{Op: "user search", Err: err}
	}

	switch len(result.Entries) {
	case 0:
		log.Info("Directory user not found")
		return nil, ErrInvalidCredentials
	case 1:
	default:
		log.WithField("matches", len(result.Entries)).Warn("Directory user filter is ambiguous, rejecting login")
		return nil, ErrInvalidCredentials
	}
	entry := result.Entries[0]

	if err := conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			log.Info("Directory rejected user credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, &DirectoryTransportError{Op: "user bind", Err: err}
	}

	identity := &DirectoryIdentity{
		DN:       entry.DN,
		Username: decodeAttribute(entry, a.cfg.IDAttribute),
		Email:    decodeAttribute(entry, a.cfg.MailAttribute),
		FullName: decodeAttribute(entry, a.cfg.NameAttribute),
	}
	if identity.Username == "" {
		identity.Username = identifier
	}

	if a.cfg.AdminFilter != "" {
		adminResult, err := conn.Search(ldap.NewSearchRequest(
			entry.DN,
			ldap.ScopeBaseObject,
			ldap.NeverDerefAliases,
			0,
			a.timeLimit(),
			false,
			a.cfg.AdminFilter,
			[]string{},
			nil,
		))
		if err != nil {
			return nil, &DirectoryTransportError{Op: "admin search", Err: err}
		}
		identity.Admin = len(adminResult.Entries) > 0
		identity.AdminChecked = true
	}

	log.WithField("admin", identity.Admin).Debug("Directory login verified")
	return identity, nil
}

// queryDN returns the service account DN. A bare account name is placed
// under the base DN.
func (a *DirectoryAdapter) queryDN() string {
	if strings.Contains(a.cfg.QueryBind, "=") {
		return a.cfg.QueryBind
	}
	return fmt.Sprintf("cn=%s,%s", a.cfg.QueryBind, a.cfg.BaseDN)
}

func (a *DirectoryAdapter) userFilter(identifier string) string {
	return strings.NewReplacer(
		"{id_attribute}", a.cfg.IDAttribute,
		"{mail_attribute}", a.cfg.MailAttribute,
		"{input}", ldap.EscapeFilter(identifier),
	).Replace(a.cfg.UserFilter)
}

func (a *DirectoryAdapter) timeLimit() int {
	return int(a.cfg.Timeout / time.Second)
}

// decodeAttribute returns the first value of an attribute as text
func decodeAttribute(entry *ldap.Entry, name string) string {
	raw := entry.GetRawAttributeValue(name)
	if len(raw) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

// DialLDAP connects to cfg.ServerURL (ldap:// or ldaps://) with the
// configured timeout and TLS settings.
func DialLDAP(ctx context.Context, cfg config.LDAPConfig) (DirectoryConn, error) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.ServerURL, err)
	}
	tlsCfg, err := tlsConfig(cfg)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: cfg.Timeout}
	var nc net.Conn
	switch u.Scheme {
	case "ldap":
		nc, err = dialer.DialContext(ctx, "tcp", hostPort(u, ldap.DefaultLdapPort))
	case "ldaps":
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsCfg}
		nc, err = tlsDialer.DialContext(ctx, "tcp", hostPort(u, ldap.DefaultLdapsPort))
	default:
		return nil, fmt.Errorf("unsupported directory URL scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.ServerURL, err)
	}

	conn := ldap.NewConn(nc, u.Scheme == "ldaps")
	conn.Start()
	return conn, nil
}

func hostPort(u *url.URL, defaultPort string) string {
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), defaultPort)
}

func tlsConfig(cfg config.LDAPConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLSInsecure,
		MinVersion:         tls.VersionTLS12,
	}
	if u, err := url.Parse(cfg.ServerURL); err == nil {
		tlsCfg.ServerName = u.Hostname()
	}

	if cfg.TLSCACertFile != "" {
		pem, err := os.ReadFile(cfg.TLSCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCACertFile)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}
