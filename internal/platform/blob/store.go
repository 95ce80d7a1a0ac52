package blob

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

const handlePrefix = "blob:"

// Handle is an opaque reference to a stored payload.
type Handle string

func (h Handle) Valid() bool {
	return strings.HasPrefix(string(h), handlePrefix) && len(h) > len(handlePrefix)
}

// Sealer encrypts payloads before they are held in memory.
type Sealer interface {
	Seal(plain, additional []byte) ([]byte, error)
	Open(ciphertext, additional []byte) ([]byte, error)
}

// Store keeps composed PDFs for the lifetime of the process. Handles are
// never invalidated.
type Store struct {
	mu     sync.RWMutex
	items  map[Handle][]byte
	sealer Sealer
	newID  func() string
}

func NewStore(sealer Sealer) *Store {
	return &Store{
		items:  make(map[Handle][]byte),
		sealer: sealer,
		newID:  func() string { return uuid.NewString() },
	}
}

func (s *Store) Put(data []byte) (Handle, error) {
	h := Handle(handlePrefix + s.newID())
	payload := append([]byte(nil), data...)
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(payload, []byte(h))
		if err != nil {
			return "", err
		}
		payload = sealed
	}
	s.mu.Lock()
	s.items[h] = payload
	s.mu.Unlock()
	return h, nil
}

func (s *Store) Get(h Handle) ([]byte, error) {
	s.mu.RLock()
	payload, ok := s.items[h]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.sealer != nil {
		return s.sealer.Open(payload, []byte(h))
	}
	return append([]byte(nil), payload...), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
