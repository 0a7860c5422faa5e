package token

import (
	"fmt"
	"strings"
)

// NewSigner returns a signer for the configured key. With no PEM a fresh
// RSA key is generated, so tokens do not survive a restart; the client
// recovers from that through its refresh cookie.
func NewSigner(keyID, privateKeyPEM string) (Signer, bool, error) {
	if strings.TrimSpace(privateKeyPEM) == "" {
		keyPair, err := GenerateRSAKeyPair(keyID, defaultRSABits)
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate RS256 key pair: %w", err)
		}
		return NewKeyPairSigner(keyPair), true, nil
	}

	keyPair, err := LoadRSAKeyPairFromPEM(keyID, privateKeyPEM)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load signing key %q: %w", keyID, err)
	}
	return NewKeyPairSigner(keyPair), false, nil
}
