package derive

import (
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ProgramID identifies the on-chain program that owns derived accounts.
// Deployments on different clusters run different program ids, so this is
// always configuration, never a constant.
type ProgramID [32]byte

// ToProgramID converts a hex-encoded string to a program id.
func ToProgramID(hexStr string) (ProgramID, error) {
	data, err := hexutil.Decode(hexStr)
	if err != nil {
		return ProgramID{}, err
	}
	if len(data) != 32 {
		return ProgramID{}, errors.New("program id must be 32 bytes")
	}

	var id ProgramID
	copy(id[:], data)
	return id, nil
}

// String returns the program id as a hex string.
func (id ProgramID) String() string {
	return hexutil.Encode(id[:])
}

// =============================================================================

// AccountAddress represents the 32 byte address of a program-owned account.
type AccountAddress [32]byte

// ToAccountAddress converts a hex-encoded string to an account address.
func ToAccountAddress(hexStr string) (AccountAddress, error) {
	data, err := hexutil.Decode(hexStr)
	if err != nil {
		return AccountAddress{}, err
	}
	if len(data) != 32 {
		return AccountAddress{}, errors.New("account address must be 32 bytes")
	}

	var addr AccountAddress
	copy(addr[:], data)
	return addr, nil
}

// IsZero reports whether the address is the zero value.
func (a AccountAddress) IsZero() bool {
	return a == AccountAddress{}
}

// String returns the address as a hex string.
func (a AccountAddress) String() string {
	return hexutil.Encode(a[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (a *AccountAddress) UnmarshalText(data []byte) error {
	addr, err := ToAccountAddress(string(data))
	if err != nil {
		return err
	}

	*a = addr
	return nil
}
