package lifecycle

// HolderSelection picks the holder to release on check-in. Type may be left
// empty when the id alone is unambiguous.
type HolderSelection struct {
	Type HolderType `json:"type,omitempty"`
	ID   int64      `json:"id"`
}

func (s HolderSelection) Validate() error {
	if s.ID <= 0 {
		return ErrInvalidTarget.WithMessage("holder id must be positive")
	}
	if s.Type != "" && !s.Type.Valid() {
		return ErrInvalidTarget.WithMessage("unknown holder type")
	}
	return nil
}

// SelectHolder resolves which holder a check-in releases. It returns either
// the chosen holder, or (when the caller must pick) the full list of current
// holders, or an error.
func SelectHolder(holders []Holder, sel *HolderSelection) (*Holder, []Holder, error) {
	if len(holders) == 0 {
		return nil, nil, ErrNotCheckedOut
	}

	if sel == nil {
		if len(holders) == 1 {
			h := holders[0]
			return &h, nil, nil
		}
		return nil, copyHolders(holders), nil
	}

	if err := sel.Validate(); err != nil {
		return nil, nil, err
	}

	var matches []Holder
	for _, h := range holders {
		if h.ID != sel.ID {
			continue
		}
		if sel.Type != "" && h.Type != sel.Type {
			continue
		}
		matches = append(matches, h)
	}

	switch len(matches) {
	case 0:
		return nil, nil, ErrHolderNotAssigned
	case 1:
		return &matches[0], nil, nil
	default:
		// same id under different holder types
		return nil, copyHolders(holders), nil
	}
}

func copyHolders(in []Holder) []Holder {
	out := make([]Holder, len(in))
	copy(out, in)
	return out
}
