// Package launch provides the durable launch registry: an append-only
// record of tokens created through the control plane, used to protect
// the wallets that created them from accidental cleanup (§3, §4.8).
package launch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/fileutil"
)

const registryFilePerm = 0o600

// Record is a durable note appended on successful token creation (§3
// LaunchRecord). Wallets referenced by any Record are protected:
// Orchestrator-initiated cleanup must not delete them.
type Record struct {
	WalletAddress string `json:"wallet_address"`
	TokenMint     string `json:"token_mint"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	CreatedAt     string `json:"created_at"`
}

// Registry is an append-only JSON-lines log of Records, with an
// in-memory index kept current on every Append so IsProtected is O(1).
type Registry struct {
	mu   sync.RWMutex
	path string

	records   []Record
	protected map[string]bool
}

// Open loads an existing registry file, or starts an empty one if none
// exists yet.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, protected: map[string]bool{}}

	//nolint:gosec // G304: registry path comes from validated configuration
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("opening launch registry: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing launch registry line: %w", err)
		}
		r.records = append(r.records, rec)
		r.protected[rec.WalletAddress] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading launch registry: %w", err)
	}

	return r, nil
}

// Append adds a new Record to the registry and to disk. The common case
// opens the file in append mode so a single new record never requires
// rewriting the whole log; Compact below performs the periodic full
// rewrite.
func (r *Registry) Append(rec Record) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling launch record: %w", err)
	}
	data = append(data, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating launch registry directory: %w", err)
		}
	}

	//nolint:gosec // G304: registry path comes from validated configuration
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, registryFilePerm)
	if err != nil {
		return fmt.Errorf("opening launch registry for append: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending launch record: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing launch registry: %w", err)
	}

	r.records = append(r.records, rec)
	r.protected[rec.WalletAddress] = true

	return nil
}

// IsProtected reports whether address is referenced by any Record.
func (r *Registry) IsProtected(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.protected[address]
}

// Records returns a copy of every Record in the registry.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Compact rewrites the registry file from the in-memory record set via
// write-temp-then-rename, collapsing however many small appends have
// accumulated into one sequential write.
func (r *Registry) Compact() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := make([]byte, 0, 256*len(r.records))
	for _, rec := range r.records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling launch record: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	return fileutil.WriteAtomic(r.path, buf, registryFilePerm)
}
