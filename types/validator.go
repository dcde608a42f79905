package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/corvuschain/corvus-light/crypto"
	cryptoenc "github.com/corvuschain/corvus-light/crypto/encoding"
)

// Validator holds one validator's public identity and voting power.
// NOTE: The ProposerPriority is not included in Validator.Bytes();
// make sure to update that method if changes are made here
type Validator struct {
	Address     crypto.Address `json:"address"`
	PubKey      crypto.PubKey  `json:"pub_key"`
	VotingPower int64          `json:"voting_power"`

	ProposerPriority int64 `json:"proposer_priority"`
}

// NewValidator returns a new validator with the given pubkey and voting power.
func NewValidator(pubKey crypto.PubKey, votingPower int64) *Validator {
	return &Validator{
		Address:          pubKey.Address(),
		PubKey:           pubKey,
		VotingPower:      votingPower,
		ProposerPriority: 0,
	}
}

// ValidateBasic performs basic validation.
func (v *Validator) ValidateBasic() error {
	if v == nil {
		return errors.New("nil validator")
	}
	if v.PubKey == nil {
		return errors.New("validator does not have a public key")
	}

	if v.VotingPower < 0 {
		return errors.New("validator has negative voting power")
	}

	if len(v.Address) != crypto.AddressSize {
		return fmt.Errorf("validator address is the wrong size: %v", v.Address)
	}

	return nil
}

// Copy creates a new copy of the validator so we can mutate ProposerPriority.
// Panics if the validator is nil.
func (v *Validator) Copy() *Validator {
	vCopy := *v
	return &vCopy
}

// Bytes computes the unique encoding of a validator with a given voting
// power. These are the bytes that gets hashed in consensus. It excludes
// address as its redundant with the pubkey. This also excludes
// ProposerPriority which changes every round.
func (v *Validator) Bytes() []byte {
	var buf []byte
	buf = append(buf, 0x0a) // field 1 (pub_key), length-delimited
	buf = appendLengthPrefixed(buf, canonicalPubKeyBytes(v.PubKey))
	if v.VotingPower != 0 {
		buf = append(buf, 0x10) // field 2 (voting_power), varint
		buf = appendUvarint(buf, uint64(v.VotingPower))
	}
	return buf
}

// canonicalPubKeyBytes encodes a public key as a one-of message keyed by the
// key type: (ed25519: bytes, 1), (secp256k1: bytes, 2).
func canonicalPubKeyBytes(pubKey crypto.PubKey) []byte {
	var buf []byte
	switch pubKey.Type() {
	case "ed25519":
		buf = append(buf, 0x0a)
	case "secp256k1":
		buf = append(buf, 0x12)
	default:
		panic(fmt.Sprintf("unknown pubkey type %q", pubKey.Type()))
	}
	return appendLengthPrefixed(buf, pubKey.Bytes())
}

// String returns a string representation of String.
//
// 1. address
// 2. public key
// 3. voting power
// 4. proposer priority
func (v *Validator) String() string {
	if v == nil {
		return "nil-Validator"
	}
	return fmt.Sprintf("Validator{%v %v VP:%v A:%v}",
		v.Address,
		v.PubKey,
		v.VotingPower,
		v.ProposerPriority)
}

type validatorJSON struct {
	Address          crypto.Address  `json:"address"`
	PubKey           json.RawMessage `json:"pub_key"`
	VotingPower      int64           `json:"voting_power"`
	ProposerPriority int64           `json:"proposer_priority"`
}

// MarshalJSON encodes the validator with its public key wrapped in the
// {type, value} envelope, since crypto.PubKey is an interface.
func (v Validator) MarshalJSON() ([]byte, error) {
	pk, err := cryptoenc.PubKeyToJSON(v.PubKey)
	if err != nil {
		return nil, err
	}
	return json.Marshal(validatorJSON{
		Address:          v.Address,
		PubKey:           pk,
		VotingPower:      v.VotingPower,
		ProposerPriority: v.ProposerPriority,
	})
}

func (v *Validator) UnmarshalJSON(bz []byte) error {
	var vj validatorJSON
	if err := json.Unmarshal(bz, &vj); err != nil {
		return err
	}
	pk, err := cryptoenc.PubKeyFromJSON(vj.PubKey)
	if err != nil {
		return err
	}
	v.Address = vj.Address
	v.PubKey = pk
	v.VotingPower = vj.VotingPower
	v.ProposerPriority = vj.ProposerPriority
	if len(v.Address) == 0 {
		v.Address = pk.Address()
	} else if !bytes.Equal(v.Address, pk.Address().Bytes()) {
		return errors.New("validator address does not match its public key")
	}
	return nil
}
