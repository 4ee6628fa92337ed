package liqpay

import (
	"crypto/sha1" //nolint:gosec // the digest is fixed by the LiqPay protocol
	"crypto/subtle"
	"encoding/base64"
	"hash"
)

type (
	// Signer computes and checks envelope signatures:
	// base64(digest(private_key + data + private_key)).
	Signer struct {
		privateKey []byte
		digest     func() hash.Hash
	}

	// SignerOption configures a Signer.
	SignerOption func(*Signer)
)

// NewSigner returns a signer bound to the merchant private key.
// The digest defaults to SHA-1, which the processor protocol mandates.
func NewSigner(privateKey string, opts ...SignerOption) *Signer {
	s := &Signer{
		privateKey: []byte(privateKey),
		digest:     sha1.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithDigest overrides the signature digest.
// Only useful against a processor that speaks a different protocol revision.
func WithDigest(fn func() hash.Hash) SignerOption {
	return func(s *Signer) {
		s.digest = fn
	}
}

// Sign returns the signature of the base64 encoded data.
func (s *Signer) Sign(data string) string {
	h := s.digest()
	h.Write(s.privateKey)
	h.Write([]byte(data))
	h.Write(s.privateKey)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify recomputes the signature of data and compares it with the given one in constant time.
func (s *Signer) Verify(data, signature string) bool {
	if data == "" || signature == "" {
		return false
	}
	expected := s.Sign(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// Seal encodes params canonically and signs the result.
func (s *Signer) Seal(params interface{}) (Envelope, error) {
	data, err := EncodeParams(params)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Data: data, Signature: s.Sign(data)}, nil
}

// Open verifies the envelope and decodes its data into v.
// The payload is never decoded when the signature does not match.
func (s *Signer) Open(env Envelope, v interface{}) error {
	if !s.Verify(env.Data, env.Signature) {
		return ErrInvalidSignature
	}
	return DecodeParams(env.Data, v)
}

// Sign is a shorthand for NewSigner(secret).Sign(data).
func Sign(secret, data string) string {
	return NewSigner(secret).Sign(data)
}

// Verify is a shorthand for NewSigner(secret).Verify(data, signature).
func Verify(secret, data, signature string) bool {
	return NewSigner(secret).Verify(data, signature)
}
