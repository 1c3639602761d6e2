package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service holding connection passwords.
const KeyringService = "tablescope"

// SavedConnection is a named DSN. When PasswordInKeyring is set the DSN is
// stored without its password, which is read back from the OS keyring under
// the connection's name.
type SavedConnection struct {
	Name              string `koanf:"name" yaml:"name"`
	Driver            string `koanf:"driver" yaml:"driver,omitempty"`
	DSN               string `koanf:"dsn" yaml:"dsn"`
	PasswordInKeyring bool   `koanf:"password_in_keyring" yaml:"password_in_keyring,omitempty"`
}

// ResolveDSN returns the DSN to open, with the keyring password spliced in
// when there is one.
func (sc SavedConnection) ResolveDSN() (string, error) {
	if !sc.PasswordInKeyring {
		return sc.DSN, nil
	}
	pw, err := keyring.Get(KeyringService, sc.Name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("connection %q: no password in keyring", sc.Name)
		}
		return "", fmt.Errorf("connection %q: keyring: %w", sc.Name, err)
	}
	return WithPassword(sc.DSN, pw)
}

// StorePassword saves pw in the keyring and strips any password from the
// connection's DSN.
func (sc *SavedConnection) StorePassword(pw string) error {
	if err := keyring.Set(KeyringService, sc.Name, pw); err != nil {
		return fmt.Errorf("connection %q: keyring: %w", sc.Name, err)
	}
	dsn, err := WithPassword(sc.DSN, "")
	if err != nil {
		return err
	}
	sc.DSN = dsn
	sc.PasswordInKeyring = true
	return nil
}

// ForgetPassword removes the connection's keyring entry, if any.
func (sc SavedConnection) ForgetPassword() error {
	if !sc.PasswordInKeyring {
		return nil
	}
	err := keyring.Delete(KeyringService, sc.Name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("connection %q: keyring: %w", sc.Name, err)
	}
	return nil
}

// Display is the DSN with any password masked.
func (sc SavedConnection) Display() string {
	return Redact(sc.DSN)
}

// WithPassword sets the password of a URL DSN (scheme://user@host/db) or a
// MySQL driver DSN (user@tcp(host)/db). An empty pw removes it. DSNs
// without a user part are returned unchanged.
func WithPassword(dsn, pw string) (string, error) {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		if u.User == nil {
			return dsn, nil
		}
		if pw == "" {
			u.User = url.User(u.User.Username())
		} else {
			u.User = url.UserPassword(u.User.Username(), pw)
		}
		return u.String(), nil
	}
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn, nil
	}
	user := dsn[:at]
	if i := strings.Index(user, ":"); i >= 0 {
		user = user[:i]
	}
	if pw == "" {
		return user + dsn[at:], nil
	}
	return user + ":" + pw + dsn[at:], nil
}

// Redact masks the password of a DSN for display and logs.
func Redact(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
			}
			return u.String()
		}
		return dsn
	}
	if keywordPassword.MatchString(dsn) {
		return keywordPassword.ReplaceAllString(dsn, "${1}xxxxx")
	}
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	user := dsn[:at]
	if i := strings.Index(user, ":"); i >= 0 {
		return user[:i] + ":xxxxx" + dsn[at:]
	}
	return dsn
}

// keywordPassword matches the password of a key=value DSN such as
// "host=db user=app password=secret".
var keywordPassword = regexp.MustCompile(`(?i)\b(password=)\S+`)
