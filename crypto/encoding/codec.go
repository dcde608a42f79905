// Package encoding provides a stable JSON envelope for public keys so that
// they survive round-trips through the RPC layer and the persistent light
// store without an external type registry.
package encoding

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/corvuschain/corvus-light/crypto"
	"github.com/corvuschain/corvus-light/crypto/ed25519"
	"github.com/corvuschain/corvus-light/crypto/secp256k1"
)

type pubKeyJSON struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

// PubKeyToJSON marshals a public key into its {type, value} envelope.
func PubKeyToJSON(k crypto.PubKey) (json.RawMessage, error) {
	if k == nil {
		return nil, errors.New("nil PubKey")
	}
	return json.Marshal(pubKeyJSON{Type: k.Type(), Value: k.Bytes()})
}

// PubKeyFromJSON unmarshals a public key from its {type, value} envelope.
func PubKeyFromJSON(bz []byte) (crypto.PubKey, error) {
	var pk pubKeyJSON
	if err := json.Unmarshal(bz, &pk); err != nil {
		return nil, errors.Wrap(err, "invalid pubkey envelope")
	}

	switch pk.Type {
	case ed25519.KeyType:
		if len(pk.Value) != ed25519.PubKeySize {
			return nil, errors.Errorf("invalid size for PubKeyEd25519, got %d", len(pk.Value))
		}
		return ed25519.PubKey(pk.Value), nil
	case secp256k1.KeyType:
		if len(pk.Value) != secp256k1.PubKeySize {
			return nil, errors.Errorf("invalid size for PubKeySecp256k1, got %d", len(pk.Value))
		}
		return secp256k1.PubKey(pk.Value), nil
	default:
		return nil, errors.Errorf("unknown pubkey type %q", pk.Type)
	}
}
