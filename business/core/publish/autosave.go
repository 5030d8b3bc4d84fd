package publish

import (
	"context"
	"sync"
	"time"

	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/scribenet/scribe/foundation/wallet"
)

// defaultSaveInterval is how often the autosave loop snapshots the editor
// content when the configuration does not supply an interval.
const defaultSaveInterval = 8 * time.Second

// saveTimeout bounds a single autosave write.
const saveTimeout = 5 * time.Second

// ContentSource represents ownership of the current editor content. The
// autosave loop pulls snapshots through this handle; it never reaches into
// editor internals.
type ContentSource interface {

	// Snapshot returns the draft id and the current blocks. ok is false
	// when there is nothing worth saving yet.
	Snapshot() (draftID uint, blocks []bundle.Block, ok bool)

	// AdoptDraftID informs the source of the id assigned when the first
	// save created the draft, so later saves update instead of create.
	AdoptDraftID(draftID uint)
}

// AutosaveConfig represents the configuration required to start the
// autosave loop.
type AutosaveConfig struct {
	Coordinator *Coordinator
	Mirror      Mirror
	Source      ContentSource
	Signer      Signer
	Signature   wallet.Signature
	Interval    time.Duration
	EvHandler   EventHandler
}

// Autosave periodically writes the current draft to the mirror. A tick that
// fires while a publish is in flight is skipped; the coordinator's guard
// makes a save and a publish mutually exclusive.
type Autosave struct {
	coordinator *Coordinator
	mirror      Mirror
	source      ContentSource
	signer      Signer
	signature   wallet.Signature
	ev          EventHandler

	ticker *time.Ticker
	shut   chan struct{}
	wg     sync.WaitGroup
}

// RunAutosave starts the autosave loop and returns the value used to shut
// it down when the editor session ends.
func RunAutosave(cfg AutosaveConfig) *Autosave {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = defaultSaveInterval
	}

	a := Autosave{
		coordinator: cfg.Coordinator,
		mirror:      cfg.Mirror,
		source:      cfg.Source,
		signer:      cfg.Signer,
		signature:   cfg.Signature,
		ev:          ev,
		ticker:      time.NewTicker(interval),
		shut:        make(chan struct{}),
	}

	a.wg.Add(1)
	hasStarted := make(chan bool)

	go func() {
		defer a.wg.Done()
		hasStarted <- true

		for {
			select {
			case <-a.ticker.C:
				a.save()
			case <-a.shut:
				return
			}
		}
	}()

	<-hasStarted

	return &a
}

// Shutdown stops the ticker and terminates the autosave goroutine.
func (a *Autosave) Shutdown() {
	a.ev("autosave: shutdown: started")
	defer a.ev("autosave: shutdown: completed")

	a.ticker.Stop()
	close(a.shut)
	a.wg.Wait()
}

// save performs one autosave write if nothing else holds the guard.
func (a *Autosave) save() {
	if !a.coordinator.beginSave() {
		a.ev("autosave: skipped: publish in flight")
		return
	}
	defer a.coordinator.endSave()

	draftID, blocks, ok := a.source.Snapshot()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	draft, err := a.mirror.SaveDraft(ctx, mirror.DraftRequest{
		DraftID:   draftID,
		PublicKey: a.signer.Identity().String(),
		Blocks:    blocks,
		Signature: a.signature,
	})
	if err != nil {
		a.ev("autosave: save failed: %s", err)
		return
	}

	if draftID == 0 {
		a.source.AdoptDraftID(draft.ID)
	}

	a.ev("autosave: saved: draft[%d]", draft.ID)
}
