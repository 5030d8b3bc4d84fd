package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/scribenet/scribe/foundation/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	hexKey   = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	otherKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

func Test_SignRecover(t *testing.T) {
	message := []byte("publish authorization")

	t.Log("Given the need to sign a message and recover the identity.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct a wallet.", success)

		if !w.Identity().IsValid() {
			t.Fatalf("\t%s\tShould produce a valid identity, got %q.", failed, w.Identity())
		}
		t.Logf("\t%s\tShould produce a valid identity.", success)

		sig, err := w.SignMessage(message)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the message.", success)

		recovered, err := wallet.RecoverIdentity(message, sig)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the identity: %v", failed, err)
		}
		if recovered != w.Identity() {
			t.Fatalf("\t%s\tShould recover the signer's identity: got %s, exp %s.", failed, recovered, w.Identity())
		}
		t.Logf("\t%s\tShould recover the signer's identity.", success)

		if err := wallet.VerifyMessage(w.Identity(), message, sig); err != nil {
			t.Fatalf("\t%s\tShould verify the signature against the identity: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the signature against the identity.", success)
	}
}

func Test_VerifyRejections(t *testing.T) {
	message := []byte("publish authorization")

	t.Log("Given the need to reject signatures that do not match.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}

		other, err := wallet.FromHex(otherKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a second wallet: %v", failed, err)
		}

		sig, err := w.SignMessage(message)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %v", failed, err)
		}

		if err := wallet.VerifyMessage(other.Identity(), message, sig); err != wallet.ErrInvalidSignature {
			t.Fatalf("\t%s\tShould reject a signature from another identity, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a signature from another identity.", success)

		if err := wallet.VerifyMessage(w.Identity(), []byte("tampered message"), sig); err == nil {
			t.Fatalf("\t%s\tShould reject a signature over a different message.", failed)
		}
		t.Logf("\t%s\tShould reject a signature over a different message.", success)
	}
}

func Test_SaveOpen(t *testing.T) {
	t.Log("Given the need to persist a wallet to disk and load it back.")
	{
		w, err := wallet.Generate()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a wallet: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a wallet.", success)

		path := filepath.Join(t.TempDir(), "private")
		if err := w.Save(path); err != nil {
			t.Fatalf("\t%s\tShould be able to save the wallet: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to save the wallet.", success)

		loaded, err := wallet.Open(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the saved wallet: %v", failed, err)
		}
		if loaded.Identity() != w.Identity() {
			t.Fatalf("\t%s\tShould load the same identity: got %s, exp %s.", failed, loaded.Identity(), w.Identity())
		}
		t.Logf("\t%s\tShould load the same identity.", success)
	}
}

func Test_SignatureEncoding(t *testing.T) {
	t.Log("Given the need to move signatures through their hex encoding.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}

		sig, err := w.SignMessage([]byte("encode me"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %v", failed, err)
		}

		back, err := wallet.SignatureFromHex(sig.String())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the hex form: %v", failed, err)
		}
		if back != sig {
			t.Fatalf("\t%s\tShould round trip through hex.", failed)
		}
		t.Logf("\t%s\tShould round trip through hex.", success)

		if _, err := wallet.SignatureFromBytes([]byte{0x01, 0x02}); err == nil {
			t.Fatalf("\t%s\tShould reject a signature that is not 65 bytes.", failed)
		}
		t.Logf("\t%s\tShould reject a signature that is not 65 bytes.", success)
	}
}

func Test_IdentityValidation(t *testing.T) {
	tests := []struct {
		name     string
		identity wallet.Identity
		valid    bool
	}{
		{"wellformed", "0x8e113078adf6888b7ba84967f299f29aece24c55", true},
		{"prefix optional", "8e113078adf6888b7ba84967f299f29aece24c55", true},
		{"too short", "0x8e1130", false},
		{"not hex", "0x8e113078adf6888b7ba84967f299f29aece24czz", false},
		{"empty", "", false},
	}

	t.Log("Given the need to validate identity strings.")
	{
		for testID, tt := range tests {
			t.Logf("\tTest %d:\tWhen checking %q.", testID, tt.name)
			{
				if got := tt.identity.IsValid(); got != tt.valid {
					t.Fatalf("\t%s\tTest %d:\tShould report valid=%v, got %v.", failed, testID, tt.valid, got)
				}
				t.Logf("\t%s\tTest %d:\tShould report valid=%v.", success, testID, tt.valid)
			}
		}
	}
}
