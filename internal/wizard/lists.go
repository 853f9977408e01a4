package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sub-list names used by ApplyList.
const (
	ListTopManagement  = "topManagement"
	ListShifts         = "shifts"
	ListCompliance     = "complianceDocuments"
	ListAccreditation  = "accreditationDocuments"
	ListSOPs           = "sops"
	ListQualityFormats = "qualityFormats"
)

// ErrItemNotFound is returned when an update or remove names an unknown id.
var ErrItemNotFound = errors.New("wizard: list item not found")

// Append returns a new slice with item added at the end.
func Append[T any](list []T, item T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	return append(out, item)
}

// Update returns a new slice where the element whose id matches is replaced
// by item. ok is false when no element matched.
func Update[T any](list []T, id string, idOf func(T) string, item T) (out []T, ok bool) {
	out = make([]T, len(list))
	for i, v := range list {
		if idOf(v) == id {
			v = item
			ok = true
		}
		out[i] = v
	}
	return out, ok
}

// Remove returns a new slice without the element whose id matches.
func Remove[T any](list []T, id string, idOf func(T) string) (out []T, ok bool) {
	out = make([]T, 0, len(list))
	for _, v := range list {
		if idOf(v) == id {
			ok = true
			continue
		}
		out = append(out, v)
	}
	return out, ok
}

// ListOp is an add, update or remove on a sub-list.
type ListOp int

const (
	OpAdd ListOp = iota
	OpUpdate
	OpRemove
)

type listAccess struct {
	apply func(s *State, op ListOp, itemID string, raw json.RawMessage, newID string) (string, error)
}

// listOf builds the add/update/remove handler for one sub-list. get returns
// a pointer to the slice inside State; setID writes the id into an item.
func listOf[T any](get func(*State) *[]T, idOf func(T) string, setID func(*T, string)) listAccess {
	return listAccess{apply: func(s *State, op ListOp, itemID string, raw json.RawMessage, newID string) (string, error) {
		list := get(s)
		var item T
		if op != OpRemove {
			if err := json.Unmarshal(raw, &item); err != nil {
				return "", fmt.Errorf("decode list item: %w", err)
			}
		}
		switch op {
		case OpAdd:
			setID(&item, newID)
			*list = Append(*list, item)
			return newID, nil
		case OpUpdate:
			setID(&item, itemID)
			out, ok := Update(*list, itemID, idOf, item)
			if !ok {
				return "", ErrItemNotFound
			}
			*list = out
			return itemID, nil
		default:
			out, ok := Remove(*list, itemID, idOf)
			if !ok {
				return "", ErrItemNotFound
			}
			*list = out
			return itemID, nil
		}
	}}
}

var lists = map[string]listAccess{
	ListTopManagement: listOf(
		func(s *State) *[]Person { return &s.TopManagement },
		func(p Person) string { return p.ID },
		func(p *Person, id string) { p.ID = id }),
	ListShifts: listOf(
		func(s *State) *[]Shift { return &s.Shifts.Shifts },
		func(v Shift) string { return v.ID },
		func(v *Shift, id string) { v.ID = id }),
	ListCompliance: listOf(
		func(s *State) *[]ComplianceDoc { return &s.Compliance },
		func(v ComplianceDoc) string { return v.ID },
		func(v *ComplianceDoc, id string) { v.ID = id }),
	ListAccreditation: listOf(
		func(s *State) *[]AccreditationDoc { return &s.Accreditation.Documents },
		func(v AccreditationDoc) string { return v.ID },
		func(v *AccreditationDoc, id string) { v.ID = id }),
	ListSOPs: listOf(
		func(s *State) *[]SOPEntry { return &s.SOPs },
		func(v SOPEntry) string { return v.ID },
		func(v *SOPEntry, id string) { v.ID = id }),
	ListQualityFormats: listOf(
		func(s *State) *[]QualityFormat { return &s.QualityFormats },
		func(v QualityFormat) string { return v.ID },
		func(v *QualityFormat, id string) { v.ID = id }),
}

// ListNames returns the sub-lists ApplyList accepts.
func ListNames() []string {
	return []string{ListTopManagement, ListShifts, ListCompliance, ListAccreditation, ListSOPs, ListQualityFormats}
}

// ApplyList runs op on the named sub-list and returns the affected item id.
// raw is the item JSON for add and update. newID is used for add. The
// previous slice is never modified.
func (s *State) ApplyList(list string, op ListOp, itemID string, raw json.RawMessage, newID string) (string, error) {
	acc, ok := lists[list]
	if !ok {
		return "", fmt.Errorf("wizard: unknown list %q", list)
	}
	return acc.apply(s, op, itemID, raw, newID)
}
