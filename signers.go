package jwt

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownKID fires when the header has a "kid" field
	// but does not match with any of the registered ones.
	ErrUnknownKID = errors.New("jwt: unknown kid")
	// ErrUnsecuredToken is returned when a token signed with "none"
	// reaches a registry that did not opt into unsecured tokens.
	ErrUnsecuredToken = errors.New("jwt: unsecured token refused")
	// ErrUnsecuredSigner is returned when the "none" Signer is added to
	// a registry, or built through NewSigner.
	ErrUnsecuredSigner = errors.New("jwt: unsecured signer refused")
)

// Signers maps key identifiers to Signers, resolving which key verifies
// an incoming token when multiple keys are in rotation.
//
// It is safe for concurrent use: lookups take a read lock, mutations
// a write lock. For a rotation that swaps the whole key set at once
// use Replace.
//
// Usage:
//
//	signers := jwt.NewSigners()
//	signers.Add("api", apiSigner)
//	signers.Add("cognito", cognitoSigner)
//	...
//	token, err := signers.Sign("api", myClaims{...}, jwt.MaxAge(15*time.Minute))
//	...
//	verifiedToken, err := jwt.Verify(signers, token, &myClaims)
type Signers struct {
	mu             sync.RWMutex
	byKID          map[string]*Signer
	fallback       *Signer
	allowUnsecured bool
}

var _ TokenVerifier = (*Signers)(nil)

// NewSigners returns an empty registry.
func NewSigners() *Signers {
	return &Signers{byKID: make(map[string]*Signer)}
}

// Add registers "signer" under "kid", replacing any previous one.
// The "none" Signer is refused with ErrUnsecuredSigner: unsecured
// tokens are accepted only through AllowUnsecured.
func (s *Signers) Add(kid string, signer *Signer) error {
	if signer == nil {
		return fmt.Errorf("%w: nil signer", ErrInvalidKey)
	}

	if signer.alg.Family() == FamilyNone {
		return ErrUnsecuredSigner
	}

	s.mu.Lock()
	if s.byKID == nil {
		s.byKID = make(map[string]*Signer)
	}
	s.byKID[kid] = signer
	s.mu.Unlock()
	return nil
}

// Remove unregisters the Signer of "kid" and reports whether it existed.
func (s *Signers) Remove(kid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byKID[kid]
	delete(s.byKID, kid)
	return ok
}

// Get returns the Signer registered under "kid".
func (s *Signers) Get(kid string) (*Signer, bool) {
	s.mu.RLock()
	signer, ok := s.byKID[kid]
	s.mu.RUnlock()
	return signer, ok
}

// SetDefault sets the Signer used for tokens without a "kid" header.
// When no default is set such tokens are tried against every registered Signer.
func (s *Signers) SetDefault(signer *Signer) error {
	if signer != nil && signer.alg.Family() == FamilyNone {
		return ErrUnsecuredSigner
	}

	s.mu.Lock()
	s.fallback = signer
	s.mu.Unlock()
	return nil
}

// AllowUnsecured opts the registry into accepting "alg":"none" tokens.
// Never enable it for externally supplied tokens.
func (s *Signers) AllowUnsecured(allow bool) {
	s.mu.Lock()
	s.allowUnsecured = allow
	s.mu.Unlock()
}

// Replace atomically swaps the registered Signers with the ones of "other".
// The default Signer and the unsecured policy are kept.
func (s *Signers) Replace(other *Signers) {
	next := make(map[string]*Signer)
	if other != nil {
		other.mu.RLock()
		for kid, signer := range other.byKID {
			next[kid] = signer
		}
		other.mu.RUnlock()
	}

	s.mu.Lock()
	s.byKID = next
	s.mu.Unlock()
}

// Len returns the number of registered Signers.
func (s *Signers) Len() int {
	s.mu.RLock()
	n := len(s.byKID)
	s.mu.RUnlock()
	return n
}

// KeyIDs returns the registered key identifiers, sorted.
func (s *Signers) KeyIDs() []string {
	s.mu.RLock()
	kids := make([]string, 0, len(s.byKID))
	for kid := range s.byKID {
		kids = append(kids, kid)
	}
	s.mu.RUnlock()

	sort.Strings(kids)
	return kids
}

// Sign signs "payload" with the Signer registered under "kid".
// The "kid" is written to the token header.
func (s *Signers) Sign(kid string, payload any, opts ...SignOption) ([]byte, error) {
	signer, ok := s.Get(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
	}

	return signer.SignWithHeader(Header{Kid: kid}, payload, opts...)
}

// VerifyToken resolves the Signer for "t" and verifies its signature.
//
// Resolution order:
//   - "alg":"none": accepted only after AllowUnsecured(true), ErrUnsecuredToken otherwise
//   - "kid" present: the Signer registered under it, ErrUnknownKID when there is none
//   - no "kid": the default Signer if set, otherwise every Signer in turn
//     until one verifies
func (s *Signers) VerifyToken(t *Token) error {
	s.mu.RLock()
	allowUnsecured := s.allowUnsecured
	fallback := s.fallback
	var (
		signer *Signer
		found  bool
		all    []*Signer
	)
	if kid := t.parsed.Kid; kid != "" {
		signer, found = s.byKID[kid]
	} else if fallback == nil {
		all = make([]*Signer, 0, len(s.byKID))
		for _, sg := range s.byKID {
			all = append(all, sg)
		}
	}
	s.mu.RUnlock()

	if t.parsed.Alg == NONE.Name() {
		if !allowUnsecured {
			return ErrUnsecuredToken
		}

		return NONE.Verify(nil, t.SigningInput(), t.Signature())
	}

	if kid := t.parsed.Kid; kid != "" {
		if !found {
			return fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}

		return signer.VerifyToken(t)
	}

	if fallback != nil {
		return fallback.VerifyToken(t)
	}

	var lastErr error = ErrTokenSignature
	for _, sg := range all {
		err := sg.VerifyToken(t)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if errors.Is(lastErr, ErrTokenSignature) {
		return lastErr
	}

	// every candidate refused the algorithm or the key.
	return fmt.Errorf("%w: no registered signer matched: %v", ErrTokenSignature, lastErr)
}
