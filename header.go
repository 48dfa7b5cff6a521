package jwt

import (
	"encoding/json"
	"fmt"
)

// Header is the decoded JOSE header of a token.
//
// Alg and Typ are always written by a Signer, Kid when the Signer was
// built with a key identifier. Members this package does not know about
// are kept in Extra and written back at the top level on marshal.
type Header struct {
	Alg string
	Typ string
	Kid string
	Cty string

	Extra map[string]any
}

var headerReserved = map[string]struct{}{
	"alg": {},
	"typ": {},
	"kid": {},
	"cty": {},
}

// MarshalJSON implements the json.Marshaler interface.
func (h Header) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(h.Extra)+4)
	for k, v := range h.Extra {
		if _, reserved := headerReserved[k]; reserved {
			continue
		}
		m[k] = v
	}

	m["alg"] = h.Alg
	if h.Typ != "" {
		m["typ"] = h.Typ
	}
	if h.Kid != "" {
		m["kid"] = h.Kid
	}
	if h.Cty != "" {
		m["cty"] = h.Cty
	}

	return json.Marshal(m)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Header
	for name, value := range raw {
		var dst *string
		switch name {
		case "alg":
			dst = &out.Alg
		case "typ":
			dst = &out.Typ
		case "kid":
			dst = &out.Kid
		case "cty":
			dst = &out.Cty
		}

		if dst != nil {
			if err := json.Unmarshal(value, dst); err != nil {
				return fmt.Errorf("header %q: %w", name, err)
			}
			continue
		}

		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[name] = v
	}

	*h = out
	return nil
}
