package mirror_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const hexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

func Test_CreateUser(t *testing.T) {
	t.Log("Given the need to register a new identity with the mirror.")
	{
		w, err := wallet.FromHex(hexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
		}

		sig, err := w.SignMessage([]byte(w.Identity()))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the auth message: %v", failed, err)
		}

		var got mirror.UserRequest
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/user" || r.Method != http.MethodPost {
				t.Fatalf("\t%s\tShould call POST /v1/user, got %s %s.", failed, r.Method, r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tShould receive a decodable request: %v", failed, err)
			}

			rw.WriteHeader(http.StatusCreated)
			json.NewEncoder(rw).Encode(mirror.User{
				ID:        1,
				PublicKey: got.PublicKey,
				Username:  got.Username,
			})
		}))
		defer srv.Close()

		client := mirror.NewClient(mirror.Config{Endpoint: srv.URL})

		usr, err := client.CreateUser(context.Background(), mirror.UserRequest{
			PublicKey: w.Identity().String(),
			Username:  "testwriter",
			Signature: sig,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to register the identity: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to register the identity.", success)

		if got.PublicKey != w.Identity().String() {
			t.Fatalf("\t%s\tShould send the wallet identity, got %q.", failed, got.PublicKey)
		}
		t.Logf("\t%s\tShould send the wallet identity.", success)

		if got.Signature != sig {
			t.Fatalf("\t%s\tShould send the ownership signature.", failed)
		}
		t.Logf("\t%s\tShould send the ownership signature.", success)

		if usr.ID != 1 || usr.Username != "testwriter" {
			t.Fatalf("\t%s\tShould decode the stored user, got %+v.", failed, usr)
		}
		t.Logf("\t%s\tShould decode the stored user.", success)
	}
}

func Test_CreateUserConflict(t *testing.T) {
	t.Log("Given the need to surface a duplicate registration.")
	{
		srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusConflict)
			rw.Write([]byte(`{"error":"user already exists"}`))
		}))
		defer srv.Close()

		client := mirror.NewClient(mirror.Config{Endpoint: srv.URL})

		_, err := client.CreateUser(context.Background(), mirror.UserRequest{
			PublicKey: "0x0000000000000000000000000000000000000000",
			Username:  "testwriter",
		})
		if err == nil {
			t.Fatalf("\t%s\tShould reject a duplicate registration.", failed)
		}
		t.Logf("\t%s\tShould reject a duplicate registration.", success)
	}
}
