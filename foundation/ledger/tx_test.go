package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/scribenet/scribe/foundation/ledger"
	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const hexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func Test_TxSign(t *testing.T) {
	t.Log("Given the need to sign a transaction with the authority's wallet.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct a wallet.", success)

		program := derive.ProgramID{0x01}
		profile, _, err := derive.Address(program, "profile", []byte("seed"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive a profile address: %v", failed, err)
		}

		tx := ledger.NewInitializeProfileTx(program, w.Identity(), profile, []byte("seed"))
		signedTx, err := tx.Sign(w)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transaction.", success)

		data, err := json.Marshal(signedTx.Tx)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the transaction: %v", failed, err)
		}
		if err := wallet.VerifyMessage(w.Identity(), data, signedTx.Signature); err != nil {
			t.Fatalf("\t%s\tShould verify the signature against the authority: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the signature against the authority.", success)
	}
}

func Test_TxSignWrongAuthority(t *testing.T) {
	t.Log("Given the need to reject signing for an authority the wallet does not own.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}

		program := derive.ProgramID{0x01}
		profile, _, err := derive.Address(program, "profile", []byte("seed"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive a profile address: %v", failed, err)
		}

		other := wallet.Identity("0x8e113078adf6888b7ba84967f299f29aece24c55")
		tx := ledger.NewInitializeProfileTx(program, other, profile, []byte("seed"))

		if _, err := tx.Sign(w); err == nil {
			t.Fatalf("\t%s\tShould refuse to sign for another authority.", failed)
		}
		t.Logf("\t%s\tShould refuse to sign for another authority.", success)
	}
}

func Test_TxConstructors(t *testing.T) {
	t.Log("Given the need to build the program instructions for posts.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}

		program := derive.ProgramID{0x07}
		profile, _, _ := derive.Address(program, "profile", []byte("p"))
		post, _, _ := derive.Address(program, "post", []byte("q"))

		create := ledger.NewCreatePostTx(program, w.Identity(), post, profile, "perm://bundle/abc", []byte("q"))
		if create.Instruction.Method != ledger.MethodCreatePost {
			t.Fatalf("\t%s\tShould use the create method, got %q.", failed, create.Instruction.Method)
		}
		if create.Instruction.Args["uri"] != "perm://bundle/abc" {
			t.Fatalf("\t%s\tShould carry the content uri, got %q.", failed, create.Instruction.Args["uri"])
		}
		if create.Instruction.Accounts["post"] != post.String() || create.Instruction.Accounts["profile"] != profile.String() {
			t.Fatalf("\t%s\tShould reference the post and profile accounts.", failed)
		}
		t.Logf("\t%s\tShould build a create instruction with its accounts and uri.", success)

		update := ledger.NewUpdatePostTx(program, w.Identity(), post, profile, "perm://bundle/def")
		if update.Instruction.Method != ledger.MethodUpdatePost {
			t.Fatalf("\t%s\tShould use the update method, got %q.", failed, update.Instruction.Method)
		}
		if _, exists := update.Instruction.Args["post_hash"]; exists {
			t.Fatalf("\t%s\tShould not carry a post hash on update.", failed)
		}
		t.Logf("\t%s\tShould build an update instruction without a post hash.", success)
	}
}
