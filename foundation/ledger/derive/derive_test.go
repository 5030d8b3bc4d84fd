package derive_test

import (
	"testing"

	"github.com/scribenet/scribe/foundation/ledger/derive"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Address(t *testing.T) {
	program := derive.ProgramID{0xDE, 0xAD, 0xBE, 0xEF}
	otherProgram := derive.ProgramID{0xCA, 0xFE}
	seed := []byte("8a1f0b2c3d4e5f60718293a4b5c6d7e8f90a1b2c")

	t.Log("Given the need to derive stable program-owned account addresses.")
	{
		addr1, bump1, err := derive.Address(program, "profile", seed)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive an address: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to derive an address.", success)

		addr2, bump2, err := derive.Address(program, "profile", seed)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the address again: %v", failed, err)
		}
		if addr1 != addr2 || bump1 != bump2 {
			t.Fatalf("\t%s\tShould derive the same address for the same inputs: %s/%d vs %s/%d.", failed, addr1, bump1, addr2, bump2)
		}
		t.Logf("\t%s\tShould derive the same address for the same inputs.", success)

		addr3, _, err := derive.Address(program, "post", seed)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive under a different tag: %v", failed, err)
		}
		if addr3 == addr1 {
			t.Fatalf("\t%s\tShould derive different addresses for different tags.", failed)
		}
		t.Logf("\t%s\tShould derive different addresses for different tags.", success)

		addr4, _, err := derive.Address(otherProgram, "profile", seed)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive under a different program: %v", failed, err)
		}
		if addr4 == addr1 {
			t.Fatalf("\t%s\tShould derive different addresses for different programs.", failed)
		}
		t.Logf("\t%s\tShould derive different addresses for different programs.", success)

		addr5, _, err := derive.Address(program, "profile", []byte("another seed entirely"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive under a different seed: %v", failed, err)
		}
		if addr5 == addr1 {
			t.Fatalf("\t%s\tShould derive different addresses for different seeds.", failed)
		}
		t.Logf("\t%s\tShould derive different addresses for different seeds.", success)
	}
}

func Test_AddressWithBump(t *testing.T) {
	program := derive.ProgramID{0x01}
	seed := []byte("content-hash-seed")

	t.Log("Given the need to validate an address from a recorded bump.")
	{
		addr, bump, err := derive.Address(program, "post", seed)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive an address: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to derive an address.", success)

		recomputed, err := derive.AddressWithBump(program, "post", bump, seed)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recompute from the bump: %v", failed, err)
		}
		if recomputed != addr {
			t.Fatalf("\t%s\tShould recompute the identical address: got %s, exp %s.", failed, recomputed, addr)
		}
		t.Logf("\t%s\tShould recompute the identical address.", success)
	}
}

func Test_AddressRoundTrip(t *testing.T) {
	t.Log("Given the need to move addresses through their hex encoding.")
	{
		program := derive.ProgramID{0x42}
		addr, _, err := derive.Address(program, "profile", []byte("seed"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive an address: %v", failed, err)
		}

		back, err := derive.ToAccountAddress(addr.String())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the hex form: %v", failed, err)
		}
		if back != addr {
			t.Fatalf("\t%s\tShould round trip through hex: got %s, exp %s.", failed, back, addr)
		}
		t.Logf("\t%s\tShould round trip through hex.", success)

		if _, err := derive.ToAccountAddress("0xdeadbeef"); err == nil {
			t.Fatalf("\t%s\tShould reject an address that is not 32 bytes.", failed)
		}
		t.Logf("\t%s\tShould reject an address that is not 32 bytes.", success)

		if !(derive.AccountAddress{}).IsZero() {
			t.Fatalf("\t%s\tShould report the zero address as zero.", failed)
		}
		if addr.IsZero() {
			t.Fatalf("\t%s\tShould not report a derived address as zero.", failed)
		}
		t.Logf("\t%s\tShould distinguish zero from derived addresses.", success)
	}
}
