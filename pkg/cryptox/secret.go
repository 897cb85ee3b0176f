package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrSecretMismatch = errors.New("cryptox: secret does not match")
	ErrHashFormat     = errors.New("cryptox: invalid hash format")
)

// Argon2Params are the Argon2id cost parameters encoded into every hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultArgon2Params follows the OWASP minimum for Argon2id (19 MiB, t=2, p=1).
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

// SecretHasher derives salted, peppered Argon2id hashes for client secrets.
// The pepper lives outside the database so a leaked table alone is not enough
// to brute force secrets offline.
type SecretHasher struct {
	pepper []byte
	params Argon2Params

	// decoy is verified against when the caller has no stored hash, so an
	// unknown client costs the same as a wrong secret.
	decoy string
}

// NewSecretHasher returns a hasher using DefaultArgon2Params.
func NewSecretHasher(pepper string) (*SecretHasher, error) {
	return NewSecretHasherWithParams(pepper, DefaultArgon2Params)
}

// NewSecretHasherWithParams is NewSecretHasher with explicit cost parameters.
// Tests use it to keep hashing cheap.
func NewSecretHasherWithParams(pepper string, params Argon2Params) (*SecretHasher, error) {
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 ||
		params.KeyLength == 0 || params.SaltLength == 0 {
		return nil, fmt.Errorf("cryptox: argon2 parameters must be positive")
	}

	h := &SecretHasher{pepper: []byte(pepper), params: params}

	decoySecret, err := GenerateToken(TokenSize256)
	if err != nil {
		return nil, err
	}
	h.decoy, err = h.Hash(decoySecret)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Hash returns a PHC string: $argon2id$v=19$m=<m>,t=<t>,p=<p>$<salt>$<hash>.
func (h *SecretHasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: failed to read salt: %w", err)
	}

	sum := argon2.IDKey(h.peppered(secret), salt,
		h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify re-derives the hash of secret with the parameters and salt stored in
// encoded and compares in constant time. An empty encoded hash is checked
// against the decoy and always fails.
func (h *SecretHasher) Verify(secret, encoded string) error {
	if encoded == "" {
		_ = h.verify(secret, h.decoy)
		return ErrSecretMismatch
	}
	return h.verify(secret, encoded)
}

func (h *SecretHasher) verify(secret, encoded string) error {
	params, salt, want, err := decodePHC(encoded)
	if err != nil {
		return err
	}

	got := argon2.IDKey(h.peppered(secret), salt,
		params.Iterations, params.Memory, params.Parallelism, uint32(len(want))) // #nosec G115

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrSecretMismatch
	}
	return nil
}

func (h *SecretHasher) peppered(secret string) []byte {
	out := make([]byte, 0, len(secret)+len(h.pepper))
	out = append(out, secret...)
	return append(out, h.pepper...)
}

func decodePHC(encoded string) (Argon2Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, ErrHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: unsupported version", ErrHashFormat)
	}

	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: %v", ErrHashFormat, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: salt: %v", ErrHashFormat, err)
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: hash", ErrHashFormat)
	}

	return p, salt, sum, nil
}
