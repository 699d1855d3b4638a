package lifecycle

import "context"

// Store runs lifecycle transactions. InTx retries fn once on transient
// transaction failures, so fn must not keep state across attempts.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Load(ctx context.Context, ref ResourceRef) (Assignable, error)
	History(ctx context.Context, ref ResourceRef) ([]*HistoryEntry, error)
}

// Tx is a single store transaction. Lock must be called before any write to
// the same resource.
type Tx interface {
	Lock(ref ResourceRef) (Assignable, error)
	// DescribeHolder checks that h exists and can hold resources, and fills
	// in its display name. Users must be active and not deleted.
	DescribeHolder(h Holder) (Holder, error)
	SaveHolders(a Assignable, change HolderChange) error
	SetDeleted(ref ResourceRef, deleted bool) error
	ApplyReturn(ref ResourceRef, state ReturnState) error
	AppendHistory(entry *HistoryEntry) error
}

// HolderChange is the delta between the locked state and a.
type HolderChange struct {
	Added   *Holder
	Removed *Holder
	ActorID int64
}
