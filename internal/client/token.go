package client

import (
	"sync"
	"time"

	"github.com/boltdb/bolt"
)

var (
	sessionBucket = []byte("session")
	tokenKey      = []byte("access_token")
)

// TokenStore keeps the bearer token between console runs.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	Clear() error
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.SetToken("")
}

// BoltTokenStore persists the token in a single-bucket bolt file.
type BoltTokenStore struct {
	db *bolt.DB
}

func NewBoltTokenStore(path string) (*BoltTokenStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltTokenStore{db: db}, nil
}

func (s *BoltTokenStore) Token() (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(sessionBucket).Get(tokenKey); v != nil {
			token = string(v)
		}
		return nil
	})
	return token, err
}

func (s *BoltTokenStore) SetToken(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(tokenKey, []byte(token))
	})
}

func (s *BoltTokenStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(tokenKey)
	})
}

func (s *BoltTokenStore) Close() error {
	return s.db.Close()
}
