// Package publish implements the publish workflow, the multi-step sequence
// that takes an article from editor blocks to a confirmed post account on
// the ledger with a mirrored copy for fast reads. The workflow spans three
// independent systems, the wallet for signing, the ledger, the content
// store, and the mirror database, and any step can fail; nothing here
// retries automatically, every retry is a fresh user-initiated publish from
// the top.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scribenet/scribe/foundation/ledger"
	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/wallet"
)

// Seed tags for the account hierarchy owned by the publishing program.
const (
	SeedProfile = "profile"
	SeedPost    = "post"
)

// defaultConfirmTimeout bounds the confirmation wait when the configuration
// does not supply one. The timeout is deliberately explicit rather than
// inherited from the network client.
const defaultConfirmTimeout = 30 * time.Second

// Set of error variables for publish operations.
var (
	ErrMissingWallet       = errors.New("wallet is required")
	ErrMissingSignature    = errors.New("signature is required")
	ErrPublishInFlight     = errors.New("publish already in flight")
	ErrProfileCreateFailed = errors.New("profile creation failed")
	ErrTxFailed            = errors.New("transaction failed")
)

// EventHandler defines a function that is called when progress events occur
// during a publish. The caller decides how to surface them.
type EventHandler func(v string, args ...any)

// =============================================================================

// Ledger represents the behavior required of the ledger network client.
type Ledger interface {
	Program() derive.ProgramID
	ReadAccount(ctx context.Context, address derive.AccountAddress) (ledger.Account, error)
	Submit(ctx context.Context, tx ledger.SignedTx) (ledger.TxID, error)
	Confirm(ctx context.Context, txID ledger.TxID) (ledger.Confirmation, error)
}

// Uploader represents the behavior required of the durable content store.
type Uploader interface {
	Upload(ctx context.Context, payload bundle.ContentPayload) (string, error)
}

// Mirror represents the behavior required of the mirror service.
type Mirror interface {
	ProfileHash(ctx context.Context, identity wallet.Identity) (string, error)
	StoreProfileHash(ctx context.Context, identity wallet.Identity, profileHash string, sig wallet.Signature) (string, error)
	PublishArticle(ctx context.Context, req mirror.PublishRequest) (mirror.PublishResponse, error)
	SaveDraft(ctx context.Context, req mirror.DraftRequest) (mirror.Draft, error)
}

// Signer represents the wallet capability the workflow needs. Private key
// material never crosses this interface.
type Signer interface {
	Identity() wallet.Identity
	SignMessage(message []byte) (wallet.Signature, error)
}

// =============================================================================

// Config represents the configuration required to construct a coordinator.
// One coordinator serves any deployment; program id and endpoints arrive
// here rather than being baked into call sites.
type Config struct {
	Ledger         Ledger
	Uploader       Uploader
	Mirror         Mirror
	ConfirmTimeout time.Duration
	EvHandler      EventHandler
}

// Coordinator drives the publish workflow and owns the in-flight guard. One
// coordinator belongs to one editor session; it permits at most one publish
// at a time and shares its guard with the autosave loop.
type Coordinator struct {
	ledger         Ledger
	uploader       Uploader
	mirror         Mirror
	confirmTimeout time.Duration
	ev             EventHandler

	mu     sync.Mutex
	state  State
	saving bool
}

// NewCoordinator constructs a coordinator for publish workflow access.
func NewCoordinator(cfg Config) *Coordinator {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout == 0 {
		confirmTimeout = defaultConfirmTimeout
	}

	return &Coordinator{
		ledger:         cfg.Ledger,
		uploader:       cfg.Uploader,
		mirror:         cfg.Mirror,
		confirmTimeout: confirmTimeout,
		ev:             ev,
		state:          StateIdle,
	}
}

// State returns the coordinator's current workflow state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// =============================================================================

// Options carries the optional parameters for a publish.
type Options struct {

	// ArticleID links this publish to an existing mirror row.
	ArticleID uint

	// ExistingPost selects the edit path. When set, the post account at
	// this address is updated in place and no new address is derived.
	ExistingPost derive.AccountAddress

	// FullResponse asks for the mirrored record instead of just the
	// transaction id.
	FullResponse bool
}

// Result carries the outcome of a successful publish.
type Result struct {
	TxID     ledger.TxID
	Post     derive.AccountAddress
	Mirrored *mirror.PublishResponse
}

// PublishPost runs the full publish workflow: ensure the profile exists,
// upload the content, bind the content URI to a post account on the ledger,
// wait for confirmation, and mirror the result. Calling it while a publish
// or an autosave is in flight is a no-op returning ErrPublishInFlight.
func (c *Coordinator) PublishPost(ctx context.Context, payload bundle.ContentPayload, signer Signer, sig wallet.Signature, opts Options) (Result, error) {

	// Preconditions are rejected before any side effect.
	if signer == nil {
		return Result{}, ErrMissingWallet
	}
	if sig == (wallet.Signature{}) {
		return Result{}, ErrMissingSignature
	}

	if !c.begin() {
		return Result{}, ErrPublishInFlight
	}

	profile, err := c.ensureProfile(ctx, signer, sig)
	if err != nil {
		return Result{}, c.fail(err)
	}

	c.transition(StateUploadingContent)
	uri, err := c.uploader.Upload(ctx, payload)
	if err != nil {
		return Result{}, c.fail(err)
	}
	c.ev("publish: uploaded: uri[%s]", uri)

	c.transition(StateSubmittingTransaction)
	txID, post, err := c.writePost(ctx, signer, profile, uri, opts.ExistingPost)
	if err != nil {
		return Result{}, c.fail(err)
	}

	c.transition(StateConfirmingTransaction)
	if err := c.confirm(ctx, txID); err != nil {
		return Result{}, c.fail(err)
	}

	c.transition(StateMirroring)
	resp, err := c.mirror.PublishArticle(ctx, mirror.PublishRequest{
		ArticleID:   opts.ArticleID,
		PublicKey:   signer.Identity().String(),
		ContentURI:  uri,
		ProofOfPost: post.String(),
		Blocks:      payload.Blocks,
		Signature:   sig,
	})
	if err != nil {

		// The ledger write already succeeded; the mirror is now behind
		// until the next successful sync. Surface the error anyway.
		return Result{}, c.fail(fmt.Errorf("mirroring publish: %w", err))
	}

	c.finish()
	c.ev("publish: done: tx[%s] post[%s]", txID, post)

	result := Result{
		TxID: txID,
		Post: post,
	}
	if opts.FullResponse {
		result.Mirrored = &resp
	}

	return result, nil
}

// =============================================================================
// Guard management. The state value is the re-entrancy guard; there is no
// ambient flag. The same guard excludes autosave writes during a publish and
// publishes during an autosave write.

// begin claims the workflow for a new publish. It reports false when a
// publish or an autosave is already in flight.
func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saving || c.state.InFlight() {
		return false
	}

	c.state = StateDerivingProfile
	c.ev("publish: state: %s", c.state)
	return true
}

// transition advances the workflow to the next state.
func (c *Coordinator) transition(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.ev("publish: state: %s", state)
}

// fail moves the workflow to Failed, releasing the guard so the user can
// retry from the top. There is no partial resume.
func (c *Coordinator) fail(err error) error {
	c.mu.Lock()
	c.state = StateFailed
	c.mu.Unlock()

	c.ev("publish: state: failed: %s", err)
	return err
}

// finish moves the workflow to Done, releasing the guard.
func (c *Coordinator) finish() {
	c.mu.Lock()
	c.state = StateDone
	c.mu.Unlock()

	c.ev("publish: state: %s", StateDone)
}

// beginSave claims the guard for one autosave write. It reports false while
// a publish is in flight so a save and a publish never race on the same
// draft.
func (c *Coordinator) beginSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saving || c.state.InFlight() {
		return false
	}

	c.saving = true
	return true
}

// endSave releases the guard claimed by beginSave.
func (c *Coordinator) endSave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.saving = false
}
