package vault

import (
	"runtime"
	"sync"
)

// secret wraps sensitive byte slices (private keys, the vault's own
// decrypted blob) with mlocked memory and explicit zeroing on destroy.
type secret struct {
	data   []byte
	locked bool
	mu     sync.Mutex
}

// newSecret creates a secret of the given size, attempting to mlock the
// backing memory. Locking failure is not fatal — it degrades to an
// unlocked (but still zeroed-on-destroy) buffer.
func newSecret(size int) *secret {
	data := make([]byte, size)

	s := &secret{data: data}
	s.locked = mlock(data)

	runtime.SetFinalizer(s, func(s *secret) {
		s.Destroy()
	})

	return s
}

// secretFromSlice copies data into a new secret.
func secretFromSlice(data []byte) *secret {
	s := newSecret(len(data))
	copy(s.data, data)
	return s
}

// Bytes returns the underlying slice, or nil once destroyed.
func (s *secret) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// IsLocked reports whether the backing memory is mlocked.
func (s *secret) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Len returns the length of the held data, or 0 once destroyed.
func (s *secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return 0
	}
	return len(s.data)
}

// Destroy zeros and unlocks the memory. Safe to call multiple times.
func (s *secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}

	for i := range s.data {
		s.data[i] = 0
	}

	if s.locked {
		munlock(s.data)
		s.locked = false
	}

	s.data = nil
	runtime.SetFinalizer(s, nil)
}
