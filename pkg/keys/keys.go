// Package keys handles the deployer key material and the signer variants
// used for address derivation and message signing.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// KeyPair is the on-disk key format: hex-encoded ed25519 material with
// "public" and "secret" fields. The secret may be a 32-byte seed or a
// 64-byte expanded private key.
type KeyPair struct {
	Public string `json:"public"`
	Secret string `json:"secret"`
}

// Parse decodes the pair into usable ed25519 keys and checks they match.
func (kp KeyPair) Parse() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, err := hex.DecodeString(kp.Public)
	if err != nil {
		return nil, nil, fmt.Errorf("public key is not valid hex: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}

	sec, err := hex.DecodeString(kp.Secret)
	if err != nil {
		return nil, nil, fmt.Errorf("secret key is not valid hex: %w", err)
	}
	var priv ed25519.PrivateKey
	switch len(sec) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(sec)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(sec)
	default:
		return nil, nil, fmt.Errorf("secret key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(sec))
	}

	derived := priv.Public().(ed25519.PublicKey)
	if !ed25519.PublicKey(pub).Equal(derived) {
		return nil, nil, fmt.Errorf("public key does not match the secret key")
	}
	return pub, priv, nil
}

// Generate produces a fresh random pair in the on-disk format.
func Generate() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		Public: hex.EncodeToString(pub),
		Secret: hex.EncodeToString(priv.Seed()),
	}, nil
}

// Signer authorizes a deployment message. PublicKey reports the key that
// participates in address derivation; a nil key means the unsigned variant.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Sign(data []byte) ([]byte, error)
}

// KeysSigner signs with a full keypair.
type KeysSigner struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func NewKeysSigner(kp KeyPair) (*KeysSigner, error) {
	pub, priv, err := kp.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair: %w", err)
	}
	return &KeysSigner{pub: pub, priv: priv}, nil
}

func (s *KeysSigner) PublicKey() ed25519.PublicKey { return s.pub }

func (s *KeysSigner) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

// ExternalSigner knows the public key but cannot sign. It is used for
// address derivation when only the public key is available.
type ExternalSigner struct {
	pub ed25519.PublicKey
}

func NewExternalSigner(pub ed25519.PublicKey) *ExternalSigner {
	return &ExternalSigner{pub: pub}
}

func (s *ExternalSigner) PublicKey() ed25519.PublicKey { return s.pub }

func (s *ExternalSigner) Sign([]byte) ([]byte, error) {
	return nil, fmt.Errorf("external signer holds no secret key")
}

// NoneSigner is the unsigned variant: no key in the init data, no signature
// on the message body.
type NoneSigner struct{}

func (NoneSigner) PublicKey() ed25519.PublicKey { return nil }

func (NoneSigner) Sign([]byte) ([]byte, error) { return nil, nil }
