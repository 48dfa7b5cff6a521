package jwt

// algNONE implements the Alg interface for unsecured JWTs.
//
// WARNING: Tokens signed with the "none" algorithm can be forged by anyone.
// Verification through a Signers registry refuses them unless
// Signers.AllowUnsecured was called.
type algNONE struct{}

// Name returns "none" as the algorithm identifier.
func (a *algNONE) Name() string {
	return "none"
}

func (a *algNONE) Family() Family { return FamilyNone }

func (a *algNONE) sealed() {}

// Sign returns an empty signature, the key is ignored.
func (a *algNONE) Sign(key PrivateKey, headerAndPayload []byte) ([]byte, error) {
	return []byte{}, nil
}

// Verify accepts only the empty signature, the key is ignored.
func (a *algNONE) Verify(key PublicKey, headerAndPayload []byte, signature []byte) error {
	if len(signature) != 0 {
		return ErrTokenSignature
	}

	return nil
}
