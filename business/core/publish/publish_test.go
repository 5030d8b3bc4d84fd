package publish_test

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/scribenet/scribe/business/core/publish"
	"github.com/scribenet/scribe/foundation/ledger"
	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const signerHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

var testProgram = derive.ProgramID{0x01, 0x02, 0x03}

// =============================================================================

type fakeLedger struct {
	mu        sync.Mutex
	accounts  map[derive.AccountAddress]ledger.Account
	submitted []ledger.SignedTx
	methods   map[ledger.TxID]string
	failOn    string
	txSeq     int
	log       *callLog
}

func newFakeLedger(log *callLog) *fakeLedger {
	return &fakeLedger{
		accounts: make(map[derive.AccountAddress]ledger.Account),
		methods:  make(map[ledger.TxID]string),
		log:      log,
	}
}

func (f *fakeLedger) Program() derive.ProgramID {
	return testProgram
}

func (f *fakeLedger) ReadAccount(ctx context.Context, address derive.AccountAddress) (ledger.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, exists := f.accounts[address]
	if !exists {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeLedger) Submit(ctx context.Context, tx ledger.SignedTx) (ledger.TxID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txSeq++
	txID := ledger.TxID(fmt.Sprintf("tx-%d", f.txSeq))
	f.submitted = append(f.submitted, tx)
	f.methods[txID] = tx.Tx.Instruction.Method
	f.log.add("submit:" + tx.Tx.Instruction.Method)

	return txID, nil
}

func (f *fakeLedger) Confirm(ctx context.Context, txID ledger.TxID) (ledger.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conf := ledger.Confirmation{TxID: txID}
	if f.failOn != "" && f.methods[txID] == f.failOn {
		conf.Err = "program error: custom(42)"
		return conf, nil
	}

	// A confirmed creation materializes the account.
	for _, tx := range f.submitted {
		inst := tx.Tx.Instruction
		if inst.Method == ledger.MethodInitializeProfile {
			addr, _ := derive.ToAccountAddress(inst.Accounts["profile"])
			f.accounts[addr] = ledger.Account{Address: addr, Kind: ledger.KindProfile}
		}
	}

	return conf, nil
}

func (f *fakeLedger) submissions(method string) []ledger.SignedTx {
	f.mu.Lock()
	defer f.mu.Unlock()

	var txs []ledger.SignedTx
	for _, tx := range f.submitted {
		if tx.Tx.Instruction.Method == method {
			txs = append(txs, tx)
		}
	}
	return txs
}

// =============================================================================

type fakeUploader struct {
	mu      sync.Mutex
	uri     string
	err     error
	calls   int
	release chan struct{}
	log     *callLog
}

func (f *fakeUploader) Upload(ctx context.Context, payload bundle.ContentPayload) (string, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}

	if f.err != nil {
		return "", f.err
	}

	f.log.add("upload")
	return f.uri, nil
}

// =============================================================================

type fakeMirror struct {
	mu         sync.Mutex
	hash       string
	raceHash   string
	hashStores int
	publishes  []mirror.PublishRequest
	saves      []mirror.DraftRequest
	nextDraft  uint
	log        *callLog
}

func (f *fakeMirror) ProfileHash(ctx context.Context, identity wallet.Identity) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hash == "" {
		return "", mirror.ErrNoProfileHash
	}
	return f.hash, nil
}

func (f *fakeMirror) StoreProfileHash(ctx context.Context, identity wallet.Identity, profileHash string, sig wallet.Signature) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hashStores++
	if f.hash != "" {
		return f.hash, nil
	}

	// A raceHash simulates a concurrent session whose hash landed
	// between this session's lookup and its store.
	if f.raceHash != "" {
		f.hash = f.raceHash
		return f.hash, nil
	}

	f.hash = profileHash
	return profileHash, nil
}

func (f *fakeMirror) PublishArticle(ctx context.Context, req mirror.PublishRequest) (mirror.PublishResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.publishes = append(f.publishes, req)
	f.log.add("mirror")

	return mirror.PublishResponse{
		Article: mirror.Article{
			ID:          1,
			ContentURI:  req.ContentURI,
			ProofOfPost: req.ProofOfPost,
			OnChain:     true,
		},
		Username: "testwriter",
	}, nil
}

func (f *fakeMirror) SaveDraft(ctx context.Context, req mirror.DraftRequest) (mirror.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saves = append(f.saves, req)
	if req.DraftID != 0 {
		return mirror.Draft{ID: req.DraftID}, nil
	}

	f.nextDraft++
	return mirror.Draft{ID: f.nextDraft}, nil
}

func (f *fakeMirror) draftSaves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

// =============================================================================

// callLog records the order of cross-system side effects.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) index(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.calls {
		if c == call {
			return i
		}
	}
	return -1
}

// =============================================================================

type harness struct {
	ledger   *fakeLedger
	uploader *fakeUploader
	mirror   *fakeMirror
	coord    *publish.Coordinator
	signer   *wallet.Wallet
	sig      wallet.Signature
	log      *callLog
}

func newHarness(t *testing.T) *harness {
	log := &callLog{}

	signer, err := wallet.FromHex(signerHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a wallet: %v", failed, err)
	}

	sig, err := signer.SignMessage([]byte(signer.Identity()))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the auth message: %v", failed, err)
	}

	lgr := newFakeLedger(log)
	upl := &fakeUploader{uri: "perm://bundle/abc123", log: log}
	mir := &fakeMirror{log: log}

	coord := publish.NewCoordinator(publish.Config{
		Ledger:         lgr,
		Uploader:       upl,
		Mirror:         mir,
		ConfirmTimeout: time.Second,
	})

	return &harness{
		ledger:   lgr,
		uploader: upl,
		mirror:   mir,
		coord:    coord,
		signer:   signer,
		sig:      sig,
		log:      log,
	}
}

func payload() bundle.ContentPayload {
	return bundle.ContentPayload{
		Blocks: []bundle.Block{
			{Type: bundle.BlockHeader, Data: []byte(`{"text":"On Distributed Publishing"}`)},
			{Type: bundle.BlockParagraph, Data: []byte(`{"text":"The ledger is the source of truth."}`)},
		},
		ContentType: "blocks",
	}
}

// =============================================================================

func Test_PublishNewPost(t *testing.T) {
	t.Log("Given the need to publish a brand new article for a brand new user.")
	{
		h := newHarness(t)
		ctx := context.Background()

		result, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{FullResponse: true})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to publish: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to publish.", success)

		if creates := h.ledger.submissions(ledger.MethodInitializeProfile); len(creates) != 1 {
			t.Fatalf("\t%s\tShould submit exactly one profile creation, got %d.", failed, len(creates))
		}
		t.Logf("\t%s\tShould submit exactly one profile creation.", success)

		if h.mirror.hash == "" {
			t.Fatalf("\t%s\tShould persist the profile hash to the mirror.", failed)
		}
		t.Logf("\t%s\tShould persist the profile hash to the mirror.", success)

		if posts := h.ledger.submissions(ledger.MethodCreatePost); len(posts) != 1 {
			t.Fatalf("\t%s\tShould submit exactly one post creation, got %d.", failed, len(posts))
		}
		t.Logf("\t%s\tShould submit exactly one post creation.", success)

		if up, sub := h.log.index("upload"), h.log.index("submit:"+ledger.MethodCreatePost); up == -1 || sub == -1 || up > sub {
			t.Fatalf("\t%s\tShould upload content before writing the ledger: upload[%d] submit[%d].", failed, up, sub)
		}
		t.Logf("\t%s\tShould upload content before writing the ledger.", success)

		if len(h.mirror.publishes) != 1 {
			t.Fatalf("\t%s\tShould mirror the publish, got %d records.", failed, len(h.mirror.publishes))
		}
		t.Logf("\t%s\tShould mirror the publish.", success)

		if result.Mirrored == nil || result.Mirrored.Username != "testwriter" {
			t.Fatalf("\t%s\tShould return the mirrored record with the username.", failed)
		}
		t.Logf("\t%s\tShould return the mirrored record with the username.", success)

		if h.coord.State() != publish.StateDone {
			t.Fatalf("\t%s\tShould finish in the done state, got %q.", failed, h.coord.State())
		}
		t.Logf("\t%s\tShould finish in the done state.", success)

		// A second publish from the same identity must reuse the
		// persisted hash and never create a second profile.
		if _, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{}); err != nil {
			t.Fatalf("\t%s\tShould be able to publish a second article: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to publish a second article.", success)

		if creates := h.ledger.submissions(ledger.MethodInitializeProfile); len(creates) != 1 {
			t.Fatalf("\t%s\tShould still have exactly one profile creation, got %d.", failed, len(creates))
		}
		t.Logf("\t%s\tShould still have exactly one profile creation.", success)
	}
}

func Test_PublishEditPath(t *testing.T) {
	t.Log("Given the need to edit an already published article.")
	{
		h := newHarness(t)
		ctx := context.Background()

		// Publish once to establish the profile and the post account.
		first, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to publish: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to publish.", success)

		result, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{ExistingPost: first.Post})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to publish the edit: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to publish the edit.", success)

		if result.Post != first.Post {
			t.Fatalf("\t%s\tShould reuse the existing post address: got %s, exp %s.", failed, result.Post, first.Post)
		}
		t.Logf("\t%s\tShould reuse the existing post address.", success)

		if updates := h.ledger.submissions(ledger.MethodUpdatePost); len(updates) != 1 {
			t.Fatalf("\t%s\tShould submit exactly one update instruction, got %d.", failed, len(updates))
		}
		t.Logf("\t%s\tShould submit exactly one update instruction.", success)

		if creates := h.ledger.submissions(ledger.MethodCreatePost); len(creates) != 1 {
			t.Fatalf("\t%s\tShould not create a second post account, got %d creations.", failed, len(creates))
		}
		t.Logf("\t%s\tShould not create a second post account.", success)
	}
}

func Test_PublishUploadFailure(t *testing.T) {
	t.Log("Given the need to abort a publish when the content upload fails.")
	{
		h := newHarness(t)
		h.uploader.err = bundle.ErrUploadFailed
		ctx := context.Background()

		_, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{})
		if !errors.Is(err, bundle.ErrUploadFailed) {
			t.Fatalf("\t%s\tShould get the upload failed error, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get the upload failed error.", success)

		if posts := h.ledger.submissions(ledger.MethodCreatePost); len(posts) != 0 {
			t.Fatalf("\t%s\tShould never write the ledger after a failed upload, got %d writes.", failed, len(posts))
		}
		t.Logf("\t%s\tShould never write the ledger after a failed upload.", success)

		if h.coord.State() != publish.StateFailed {
			t.Fatalf("\t%s\tShould finish in the failed state, got %q.", failed, h.coord.State())
		}
		t.Logf("\t%s\tShould finish in the failed state.", success)

		// The failed state releases the guard; a retry starts over.
		h.uploader.err = nil
		if _, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{}); err != nil {
			t.Fatalf("\t%s\tShould be able to retry after a failure: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to retry after a failure.", success)
	}
}

func Test_PublishConfirmFailure(t *testing.T) {
	t.Log("Given the need to fail a publish when the ledger confirms with an error.")
	{
		h := newHarness(t)
		h.ledger.failOn = ledger.MethodCreatePost
		ctx := context.Background()

		_, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{})
		if !errors.Is(err, publish.ErrTxFailed) {
			t.Fatalf("\t%s\tShould get the transaction failed error, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get the transaction failed error.", success)

		if len(h.mirror.publishes) != 0 {
			t.Fatalf("\t%s\tShould never mirror a failed transaction, got %d records.", failed, len(h.mirror.publishes))
		}
		t.Logf("\t%s\tShould never mirror a failed transaction.", success)

		if h.coord.State() != publish.StateFailed {
			t.Fatalf("\t%s\tShould finish in the failed state, got %q.", failed, h.coord.State())
		}
		t.Logf("\t%s\tShould finish in the failed state.", success)
	}
}

func Test_PublishPreconditions(t *testing.T) {
	t.Log("Given the need to reject a publish before any side effect occurs.")
	{
		h := newHarness(t)
		ctx := context.Background()

		if _, err := h.coord.PublishPost(ctx, payload(), nil, h.sig, publish.Options{}); !errors.Is(err, publish.ErrMissingWallet) {
			t.Fatalf("\t%s\tShould reject a missing wallet, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a missing wallet.", success)

		if _, err := h.coord.PublishPost(ctx, payload(), h.signer, wallet.Signature{}, publish.Options{}); !errors.Is(err, publish.ErrMissingSignature) {
			t.Fatalf("\t%s\tShould reject a missing signature, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a missing signature.", success)

		if h.uploader.calls != 0 || len(h.ledger.submitted) != 0 {
			t.Fatalf("\t%s\tShould produce no side effects for rejected preconditions.", failed)
		}
		t.Logf("\t%s\tShould produce no side effects for rejected preconditions.", success)
	}
}

func Test_PublishReentrancy(t *testing.T) {
	t.Log("Given the need to refuse a second publish while one is in flight.")
	{
		h := newHarness(t)
		h.uploader.release = make(chan struct{})
		ctx := context.Background()

		done := make(chan error, 1)
		go func() {
			_, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{})
			done <- err
		}()

		// Wait until the first publish reaches the upload step.
		deadline := time.Now().Add(time.Second)
		for h.coord.State() != publish.StateUploadingContent {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould reach the uploading state in time.", failed)
			}
			time.Sleep(time.Millisecond)
		}

		before := len(h.ledger.submitted)
		if _, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{}); !errors.Is(err, publish.ErrPublishInFlight) {
			t.Fatalf("\t%s\tShould refuse the re-entrant publish, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould refuse the re-entrant publish.", success)

		if len(h.ledger.submitted) != before {
			t.Fatalf("\t%s\tShould produce no side effects from the refused publish.", failed)
		}
		t.Logf("\t%s\tShould produce no side effects from the refused publish.", success)

		close(h.uploader.release)
		if err := <-done; err != nil {
			t.Fatalf("\t%s\tShould complete the first publish: %v", failed, err)
		}
		t.Logf("\t%s\tShould complete the first publish.", success)
	}
}

func Test_ProfileHashReuse(t *testing.T) {
	t.Log("Given the need to reuse a stored profile hash instead of generating a second one.")
	{
		h := newHarness(t)
		ctx := context.Background()

		// Seed the mirror with an existing hash but leave the ledger
		// empty, as if a prior profile creation confirmed but the
		// session died before finishing its publish.
		storedHash := make([]byte, 32)
		storedHash[0] = 0xAB
		h.mirror.hash = hex.EncodeToString(storedHash)

		if _, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{}); err != nil {
			t.Fatalf("\t%s\tShould be able to publish: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to publish.", success)

		if h.mirror.hashStores != 0 {
			t.Fatalf("\t%s\tShould never overwrite a stored hash, got %d store calls.", failed, h.mirror.hashStores)
		}
		t.Logf("\t%s\tShould never overwrite a stored hash.", success)

		creates := h.ledger.submissions(ledger.MethodInitializeProfile)
		if len(creates) != 1 {
			t.Fatalf("\t%s\tShould create the profile once, got %d.", failed, len(creates))
		}
		t.Logf("\t%s\tShould create the profile once.", success)

		wantAddr, _, err := derive.Address(testProgram, publish.SeedProfile, storedHash)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the expected address: %v", failed, err)
		}
		if got := creates[0].Tx.Instruction.Accounts["profile"]; got != wantAddr.String() {
			t.Fatalf("\t%s\tShould derive the profile from the stored hash: got %s, exp %s.", failed, got, wantAddr)
		}
		t.Logf("\t%s\tShould derive the profile from the stored hash.", success)
	}
}

func Test_ProfileHashLostRace(t *testing.T) {
	t.Log("Given a concurrent session that stores its profile hash first.")
	{
		h := newHarness(t)
		ctx := context.Background()

		// The winner's hash lands at the mirror between this session's
		// lookup and its store. The mirror keeps the first hash it sees
		// and hands it back to the loser.
		winnerHash := make([]byte, 32)
		winnerHash[0] = 0xCD
		h.mirror.raceHash = hex.EncodeToString(winnerHash)

		if _, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{}); err != nil {
			t.Fatalf("\t%s\tShould be able to publish after losing the race: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to publish after losing the race.", success)

		winnerAddr, _, err := derive.Address(testProgram, publish.SeedProfile, winnerHash)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to derive the winner's address: %v", failed, err)
		}

		posts := h.ledger.submissions(ledger.MethodCreatePost)
		if len(posts) != 1 {
			t.Fatalf("\t%s\tShould submit one post creation, got %d.", failed, len(posts))
		}
		if got := posts[0].Tx.Instruction.Accounts["profile"]; got != winnerAddr.String() {
			t.Fatalf("\t%s\tShould bind the post to the winner's profile: got %s, exp %s.", failed, got, winnerAddr)
		}
		t.Logf("\t%s\tShould bind the post to the winner's profile.", success)

		// The loser's own derivation must not appear anywhere in the
		// post instruction; the stored hash is the only durable one.
		creates := h.ledger.submissions(ledger.MethodInitializeProfile)
		loserAddr := creates[0].Tx.Instruction.Accounts["profile"]
		if loserAddr == winnerAddr.String() {
			t.Fatalf("\t%s\tShould have raced with a distinct derivation.", failed)
		}
		if got := posts[0].Tx.Instruction.Accounts["profile"]; got == loserAddr {
			t.Fatalf("\t%s\tShould not bind the post to the losing derivation.", failed)
		}
		t.Logf("\t%s\tShould not bind the post to the losing derivation.", success)

		if h.mirror.hash != hex.EncodeToString(winnerHash) {
			t.Fatalf("\t%s\tShould leave the winner's hash stored, got %q.", failed, h.mirror.hash)
		}
		t.Logf("\t%s\tShould leave the winner's hash stored.", success)
	}
}

func Test_AutosaveExclusion(t *testing.T) {
	t.Log("Given the need to keep autosave ticks out of an in-flight publish.")
	{
		h := newHarness(t)
		h.uploader.release = make(chan struct{})
		ctx := context.Background()

		source := &fakeSource{blocks: payload().Blocks}

		done := make(chan error, 1)
		go func() {
			_, err := h.coord.PublishPost(ctx, payload(), h.signer, h.sig, publish.Options{})
			done <- err
		}()

		deadline := time.Now().Add(time.Second)
		for h.coord.State() != publish.StateUploadingContent {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould reach the uploading state in time.", failed)
			}
			time.Sleep(time.Millisecond)
		}

		autosave := publish.RunAutosave(publish.AutosaveConfig{
			Coordinator: h.coord,
			Mirror:      h.mirror,
			Source:      source,
			Signer:      h.signer,
			Signature:   h.sig,
			Interval:    5 * time.Millisecond,
		})
		defer autosave.Shutdown()

		// Let several ticks fire while the publish holds the guard.
		time.Sleep(50 * time.Millisecond)
		if saves := h.mirror.draftSaves(); saves != 0 {
			t.Fatalf("\t%s\tShould not save drafts during a publish, got %d saves.", failed, saves)
		}
		t.Logf("\t%s\tShould not save drafts during a publish.", success)

		close(h.uploader.release)
		if err := <-done; err != nil {
			t.Fatalf("\t%s\tShould complete the publish: %v", failed, err)
		}
		t.Logf("\t%s\tShould complete the publish.", success)

		deadline = time.Now().Add(time.Second)
		for h.mirror.draftSaves() == 0 {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould resume autosaving after the publish.", failed)
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Logf("\t%s\tShould resume autosaving after the publish.", success)

		deadline = time.Now().Add(time.Second)
		for source.draftID() == 0 {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould adopt the draft id assigned by the mirror.", failed)
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Logf("\t%s\tShould adopt the draft id assigned by the mirror.", success)
	}
}

// =============================================================================

type fakeSource struct {
	mu     sync.Mutex
	id     uint
	blocks []bundle.Block
}

func (f *fakeSource) Snapshot() (uint, []bundle.Block, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id, f.blocks, true
}

func (f *fakeSource) AdoptDraftID(draftID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = draftID
}

func (f *fakeSource) draftID() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}
