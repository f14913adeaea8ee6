// Package statestore persists browser storage state (cookies and local
// storage) between runs, sealed with an authenticated cipher so a copied
// state file is useless without the secret.
package statestore

import (
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrNoSecret = errors.New("statestore: secret is empty")
	ErrNotFound = errors.New("statestore: no saved state")
)

// MaxAge bounds how long a saved state is accepted.
const MaxAge = 30 * 24 * time.Hour

const fileExt = ".state"

type Store struct {
	sc  *securecookie.SecureCookie
	dir string
}

// DeriveKeys expands secret into the HMAC and AES keys used for sealing.
func DeriveKeys(secret []byte) (hashKey, blockKey []byte, err error) {
	if len(secret) == 0 {
		return nil, nil, ErrNoSecret
	}
	r := hkdf.New(sha256.New, secret, nil, []byte("tablebook browser state"))
	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, errors.Wrap(err, "derive hash key")
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, errors.Wrap(err, "derive block key")
	}
	return hashKey, blockKey, nil
}

func New(dir string, secret []byte) (*Store, error) {
	hashKey, blockKey, err := DeriveKeys(secret)
	if err != nil {
		return nil, err
	}
	sc := securecookie.New(hashKey, blockKey)
	// state is raw JSON, and can be far larger than a cookie
	sc.SetSerializer(securecookie.NopEncoder{})
	sc.MaxLength(0)
	sc.MaxAge(int(MaxAge.Seconds()))
	return &Store{sc: sc, dir: dir}, nil
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *Store) Save(name string, state []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	encoded, err := s.sc.Encode(name, state)
	if err != nil {
		return errors.Wrap(err, "seal state")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Wrapf(err, "create state dir %s", s.dir)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp state file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(encoded); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write state")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close state")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.Path(name)), "replace state file")
}

// Load returns the state saved under name. A tampered, foreign or expired
// file is reported as an error, a missing one as ErrNotFound.
func (s *Store) Load(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read state")
	}
	var state []byte
	if err := s.sc.Decode(name, string(data), &state); err != nil {
		return nil, errors.Wrap(err, "open state")
	}
	return state, nil
}

func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return errors.Newf("statestore: invalid name %q", name)
	}
	return nil
}
