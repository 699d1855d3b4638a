package lifecycle

// Assignable is a resource that can be checked out. Implementations keep
// status == assigned exactly when at least one holder is present.
type Assignable interface {
	Ref() ResourceRef
	Status() Status
	Deleted() bool
	Holders() []Holder
	Accepts(t HolderType) bool
	Assign(h Holder) error
	Release(h Holder) error
}

// Consistent reports whether status and holders agree.
func Consistent(a Assignable) bool {
	return (a.Status() == StatusAssigned) == (len(a.Holders()) > 0)
}

// ExclusiveSlot backs assets: one holder of any type, and only from the
// available status.
type ExclusiveSlot struct {
	id      int64
	status  Status
	deleted bool
	holder  *Holder
}

func NewExclusiveSlot(id int64, status Status, deleted bool, holder *Holder) *ExclusiveSlot {
	return &ExclusiveSlot{id: id, status: status, deleted: deleted, holder: holder}
}

func (s *ExclusiveSlot) Ref() ResourceRef { return AssetRef(s.id) }
func (s *ExclusiveSlot) Status() Status   { return s.status }
func (s *ExclusiveSlot) Deleted() bool    { return s.deleted }

func (s *ExclusiveSlot) Holders() []Holder {
	if s.holder == nil {
		return nil
	}
	return []Holder{*s.holder}
}

// Holder returns the current holder, if any.
func (s *ExclusiveSlot) Holder() *Holder {
	return s.holder
}

func (s *ExclusiveSlot) Accepts(t HolderType) bool {
	return t.Valid()
}

func (s *ExclusiveSlot) Assign(h Holder) error {
	if s.holder != nil || s.status == StatusAssigned {
		return ErrAlreadyAssigned
	}
	if s.status != StatusAvailable {
		return ErrNotAvailable.WithDetails(map[string]interface{}{"status": s.status})
	}
	s.holder = &h
	s.status = StatusAssigned
	return nil
}

func (s *ExclusiveSlot) Release(h Holder) error {
	if s.holder == nil {
		return ErrNotCheckedOut
	}
	if !s.holder.Same(h) {
		return ErrHolderNotAssigned
	}
	s.holder = nil
	s.status = StatusAvailable
	return nil
}

// HolderSet backs credentials: any number of distinct user or asset holders.
type HolderSet struct {
	id      int64
	status  Status
	deleted bool
	holders []Holder
}

func NewHolderSet(id int64, status Status, deleted bool, holders []Holder) *HolderSet {
	cp := make([]Holder, len(holders))
	copy(cp, holders)
	return &HolderSet{id: id, status: status, deleted: deleted, holders: cp}
}

func (s *HolderSet) Ref() ResourceRef { return CredentialRef(s.id) }
func (s *HolderSet) Status() Status   { return s.status }
func (s *HolderSet) Deleted() bool    { return s.deleted }

func (s *HolderSet) Holders() []Holder {
	if len(s.holders) == 0 {
		return nil
	}
	cp := make([]Holder, len(s.holders))
	copy(cp, s.holders)
	return cp
}

func (s *HolderSet) Accepts(t HolderType) bool {
	return t == HolderUser || t == HolderAsset
}

func (s *HolderSet) Assign(h Holder) error {
	if s.indexOf(h) >= 0 {
		return ErrDuplicateHolder.WithDetails(map[string]interface{}{"holder": h})
	}
	s.holders = append(s.holders, h)
	s.status = StatusAssigned
	return nil
}

func (s *HolderSet) Release(h Holder) error {
	if len(s.holders) == 0 {
		return ErrNotCheckedOut
	}
	i := s.indexOf(h)
	if i < 0 {
		return ErrHolderNotAssigned
	}
	s.holders = append(s.holders[:i], s.holders[i+1:]...)
	if len(s.holders) == 0 {
		s.status = StatusAvailable
	}
	return nil
}

func (s *HolderSet) indexOf(h Holder) int {
	for i, existing := range s.holders {
		if existing.Same(h) {
			return i
		}
	}
	return -1
}
