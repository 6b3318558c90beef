package vault

import (
	"encoding/json"
	"fmt"

	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// blobVersion is the current on-disk schema version.
const blobVersion = 1

// envelope is the single self-describing record persisted to disk (§4.1).
// KDF id, work factor, and salt are carried inside Ciphertext itself — the
// age scrypt stanza embeds them in its header, so the envelope does not
// duplicate them. Integrity comes from age's authentication tag; there is
// no separate MAC.
type envelope struct {
	Version    int    `json:"version"`
	CreatedAt  string `json:"created_at"`
	Plaintext  bool   `json:"plaintext"` // never true in production; test-only escape hatch
	Ciphertext []byte `json:"ciphertext"`
}

// payload is the decrypted body of the envelope: the full wallet set.
type payload struct {
	Wallets []wallet `json:"wallets"`
}

func marshalEnvelope(env envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshaling vault envelope: %w", err)
	}
	return data, nil
}

func unmarshalEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", sniperr.ErrCorruptVault, err)
	}
	if env.Version != blobVersion {
		return envelope{}, fmt.Errorf("%w: unsupported schema version %d", sniperr.ErrCorruptVault, env.Version)
	}
	return env, nil
}

func marshalPayload(p payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling vault payload: %w", err)
	}
	return data, nil
}

func unmarshalPayload(data []byte) (payload, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return payload{}, fmt.Errorf("%w: %v", sniperr.ErrCorruptVault, err)
	}
	return p, nil
}
