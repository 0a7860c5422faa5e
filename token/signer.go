package token

import (
	"crypto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs access token claims and publishes the key that verifies them
type Signer interface {
	// Sign creates a signed JWT from claims
	Sign(claims jwt.Claims) (string, error)

	// PublicKey returns the key used to verify signatures
	PublicKey() crypto.PublicKey

	// Algorithm is the JWS alg header value, e.g. RS256
	Algorithm() string

	// GetJWKS returns the public key as a JSON Web Key Set
	GetJWKS() (*JWKS, error)
}

// KeyPairSigner implements Signer using an RSA key pair
type KeyPairSigner struct {
	keyPair *KeyPair
}

// NewKeyPairSigner creates a new key pair signer with the given key pair
func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{
		keyPair: keyPair,
	}
}

func (a *KeyPairSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(a.keyPair.GetSigningMethod(), claims)
	token.Header["kid"] = a.keyPair.KeyID

	signedToken, err := token.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with RSA key")
	}
	return signedToken, nil
}

func (a *KeyPairSigner) PublicKey() crypto.PublicKey {
	return a.keyPair.PublicKey
}

func (a *KeyPairSigner) Algorithm() string {
	return a.keyPair.GetSigningMethod().Alg()
}

func (a *KeyPairSigner) GetJWKS() (*JWKS, error) {
	jwk, err := a.keyPair.ToJWK()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert key to JWK")
	}

	return &JWKS{
		Keys: []JWK{*jwk},
	}, nil
}
