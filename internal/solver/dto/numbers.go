package dto

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
)

// U256 is a 256-bit unsigned integer encoded as a decimal string.
type U256 uint256.Int

func NewU256(v *uint256.Int) U256 {
	if v == nil {
		return U256{}
	}
	return U256(*v)
}

// Int returns a copy as *uint256.Int.
func (u U256) Int() *uint256.Int {
	v := uint256.Int(u)
	return &v
}

func (u U256) MarshalJSON() ([]byte, error) {
	v := uint256.Int(u)
	return json.Marshal(v.Dec())
}

func (u *U256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("u256: expected decimal string: %w", err)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("u256 %q: %w", s, err)
	}
	*u = U256(*v)
	return nil
}

// StringUint is an unsigned integer encoded as a decimal string.
type StringUint uint64

func (s StringUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(s), 10))
}

func (s *StringUint) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("id: expected decimal string: %w", err)
	}
	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return fmt.Errorf("id %q: %w", str, err)
	}
	*s = StringUint(v)
	return nil
}

// BigInt is a signed integer encoded as a decimal string.
type BigInt struct {
	*big.Int
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	if b.Int == nil {
		return json.Marshal("0")
	}
	return json.Marshal(b.Int.String())
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("integer: expected decimal string: %w", err)
	}
	v, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return fmt.Errorf("integer %q: invalid decimal", str)
	}
	b.Int = v
	return nil
}
