package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdesk/internal/validation"
)

type memStore struct {
	mu    sync.Mutex
	saved map[string]Session
	saves int
	err   error
}

func newMemStore() *memStore { return &memStore{saved: map[string]Session{}} }

func (m *memStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.saved[s.ID] = *s
	return nil
}

func (m *memStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func validLabDetails() LabDetails {
	return LabDetails{
		LabName:        "Acme Testing Labs",
		LabAddress:     "12 Industrial Estate",
		City:           "Pune",
		State:          "Maharashtra",
		Pincode:        "411001",
		Phone:          "+91 20 1234 5678",
		Email:          "lab@acme.test",
		ProofOfAddress: "Electricity Bill",
	}
}

// completeState passes every step.
func completeState() State {
	s := NewState()
	s.LabDetails = validLabDetails()
	s.Legal = LegalIdentity{
		OrganizationName:   "Acme Pvt Ltd",
		Category:           OrgCategory{Listed{Name: CategoryPrivateLimited}},
		RegistrationNumber: "U12345MH2010PTC000001",
	}
	s.TopManagement = []Person{{ID: "p1", Name: "A. Rao", Designation: "Director"}}
	s.Shifts = ShiftSchedule{
		WorkingDays: []string{"Monday", "Tuesday"},
		Shifts:      []Shift{{ID: "s1", Name: "General", StartTime: "09:00", EndTime: "17:30"}},
	}
	s.Infrastructure = Infrastructure{TotalArea: 500, TestingArea: 300, StorageArea: 50}
	s.Compliance = []ComplianceDoc{{ID: "c1", Name: "Trade Licence", Number: "TL-1"}}
	s.SOPs = []SOPEntry{{ID: "sop1", Title: "Sample receipt", Number: "SOP-01"}}
	s.QualityFormats = []QualityFormat{{ID: "q1", Name: "Sample register", FormatNumber: "QF-01"}}
	s.Declaration = Declaration{AuthorizedName: "A. Rao", Designation: "Director", Place: "Pune", Date: "2024-03-01", Accepted: true}
	return s
}

func TestValidateStep1(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*LabDetails)
		field string
	}{
		{"missing lab name", func(d *LabDetails) { d.LabName = "" }, "labName"},
		{"missing address", func(d *LabDetails) { d.LabAddress = "  " }, "labAddress"},
		{"proof not selected", func(d *LabDetails) { d.ProofOfAddress = ProofPlaceholder }, "labProofOfAddress"},
		{"bad pincode", func(d *LabDetails) { d.Pincode = "12" }, "labPincode"},
		{"bad email", func(d *LabDetails) { d.Email = "not-an-email" }, "labEmail"},
		{"logo wrong type", func(d *LabDetails) {
			d.Logo = &validation.Upload{Name: "logo.gif", Size: 100, ContentType: "image/gif"}
		}, "labLogo"},
		{"proof too large", func(d *LabDetails) {
			d.ProofDocument = &validation.Upload{Name: "bill.pdf", Size: 3 * validation.MB, ContentType: "application/pdf"}
		}, "labProofDocument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.LabDetails = validLabDetails()
			tt.edit(&s.LabDetails)

			err := ValidateStep(s, StepLabDetails)
			var se *StepError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, StepLabDetails, se.Step)
			assert.Equal(t, tt.field, se.Field)
			assert.NotEmpty(t, se.Message)
		})
	}

	s := NewState()
	s.LabDetails = validLabDetails()
	assert.NoError(t, ValidateStep(s, StepLabDetails))
}

func TestValidateStep_IsPure(t *testing.T) {
	s := completeState()
	before, err := json.Marshal(s)
	require.NoError(t, err)
	for step := FirstStep; step <= LastStep; step++ {
		assert.NoError(t, ValidateStep(s, step), "step %d", step)
	}
	after, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestValidateStep_OtherCategoryNeedsDescription(t *testing.T) {
	s := completeState()
	s.Legal.Category = OrgCategory{Other{}}
	err := ValidateStep(s, StepLegalIdentity)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "otherCategoryDescription", se.Field)

	s.Legal.Category = OrgCategory{Other{Description: "Cooperative society"}}
	assert.NoError(t, ValidateStep(s, StepLegalIdentity))

	s.Legal.Category = OrgCategory{}
	assert.Error(t, ValidateStep(s, StepLegalIdentity))
}

func TestOrgCategoryJSON(t *testing.T) {
	var c OrgCategory
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"Other","description":"NGO"}`), &c))
	assert.Equal(t, Other{Description: "NGO"}, c.Category)

	require.NoError(t, json.Unmarshal([]byte(`{"kind":"LLP"}`), &c))
	assert.Equal(t, Listed{Name: CategoryLLP}, c.Category)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"LLP","description":"x"}`), &c))

	require.NoError(t, json.Unmarshal([]byte(`{"kind":"Select"}`), &c))
	assert.Nil(t, c.Category)

	out, err := json.Marshal(OrgCategory{Other{Description: "NGO"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Other","description":"NGO"}`, string(out))
}

func TestValidateStep_Other(t *testing.T) {
	tests := []struct {
		name string
		step int
		edit func(*State)
	}{
		{"no management", StepTopManagement, func(s *State) { s.TopManagement = nil }},
		{"no working days", StepShifts, func(s *State) { s.Shifts.WorkingDays = nil }},
		{"bad shift time", StepShifts, func(s *State) { s.Shifts.Shifts[0].EndTime = "25:00" }},
		{"testing area too big", StepInfrastructure, func(s *State) { s.Infrastructure.TestingArea = 600 }},
		{"compliance empty", StepComplianceDocs, func(s *State) { s.Compliance = nil }},
		{"accredited without certificate", StepAccreditationDocs, func(s *State) { s.Accreditation.Accredited = true }},
		{"sop missing number", StepSOPs, func(s *State) { s.SOPs[0].Number = "" }},
		{"no quality formats", StepQualityFormats, func(s *State) { s.QualityFormats = nil }},
		{"declaration not accepted", StepDeclaration, func(s *State) { s.Declaration.Accepted = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := completeState()
			tt.edit(&s)
			assert.Error(t, ValidateStep(s, tt.step))
			assert.Error(t, ValidateStep(s, StepChecklist), "checklist step requires every step")
		})
	}
}

func TestChecklist(t *testing.T) {
	s := completeState()
	items := Checklist(s)
	require.Len(t, items, 10)
	assert.True(t, Complete(items))

	s.QualityFormats = nil
	items = Checklist(s)
	assert.False(t, Complete(items))
	assert.Equal(t, StatusPending, items[StepQualityFormats-1].Status)
	assert.Equal(t, "Quality Formats & Procedures", items[StepQualityFormats-1].Title)
	assert.NotEmpty(t, items[StepQualityFormats-1].Message)
	assert.Equal(t, StatusCompleted, items[StepSOPs-1].Status)
}

func TestListOperations_ReturnNewSlices(t *testing.T) {
	idOf := func(p Person) string { return p.ID }
	orig := []Person{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	added := Append(orig, Person{ID: "c"})
	assert.Len(t, orig, 2)
	assert.Len(t, added, 3)

	updated, ok := Update(orig, "b", idOf, Person{ID: "b", Name: "Bee"})
	require.True(t, ok)
	assert.Equal(t, "B", orig[1].Name, "original untouched")
	assert.Equal(t, "Bee", updated[1].Name)

	removed, ok := Remove(orig, "a", idOf)
	require.True(t, ok)
	assert.Len(t, orig, 2)
	assert.Equal(t, []Person{{ID: "b", Name: "B"}}, removed)

	_, ok = Remove(orig, "zzz", idOf)
	assert.False(t, ok)
}

func TestSession_StepGating(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, WithIDGenerator(counter()))
	ctx := context.Background()

	s, err := m.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, FirstStep, s.CurrentStep)

	err = m.SaveAndNext(ctx, s)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, FirstStep, s.CurrentStep, "step does not advance")
	assert.Equal(t, 1, store.saves, "only the initial save")

	state := s.State
	state.LabDetails = validLabDetails()
	require.NoError(t, m.Edit(s, state))
	require.NoError(t, m.SaveAndNext(ctx, s))
	assert.Equal(t, StepLegalIdentity, s.CurrentStep)

	saved, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StepLegalIdentity, saved.CurrentStep)
	assert.Equal(t, "Acme Testing Labs", saved.State.LabDetails.LabName)

	s.Back()
	assert.Equal(t, FirstStep, s.CurrentStep)
	s.Back()
	assert.Equal(t, FirstStep, s.CurrentStep)
}

func TestSession_GoTo(t *testing.T) {
	s := &Session{CurrentStep: 1, State: NewState()}
	assert.Error(t, s.GoTo(5))
	assert.Equal(t, 1, s.CurrentStep)

	s.State = completeState()
	require.NoError(t, s.GoTo(LastStep))
	require.NoError(t, s.GoTo(2))
	assert.Equal(t, 2, s.CurrentStep)
	assert.Error(t, s.GoTo(12))
}

func TestSession_Submit(t *testing.T) {
	store := newMemStore()
	clock := func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }
	m := NewManager(store, WithIDGenerator(counter()), WithClock(clock))
	ctx := context.Background()

	s, err := m.Start(ctx)
	require.NoError(t, err)
	s.CurrentStep = LastStep
	assert.Error(t, m.Submit(ctx, s), "incomplete registration cannot be submitted")
	assert.False(t, s.Submitted)

	require.NoError(t, m.Edit(s, completeState()))
	store.err = errors.New("disk full")
	assert.Error(t, m.Submit(ctx, s))
	assert.False(t, s.Submitted)

	store.err = nil
	require.NoError(t, m.Submit(ctx, s))
	assert.True(t, s.Submitted)
	assert.Equal(t, clock(), s.UpdatedAt)

	assert.ErrorIs(t, m.Edit(s, NewState()), ErrSubmitted)
	assert.ErrorIs(t, m.Submit(ctx, s), ErrSubmitted)
}

func TestManager_EditList(t *testing.T) {
	m := NewManager(newMemStore(), WithIDGenerator(counter()))
	s := &Session{CurrentStep: StepTopManagement, State: NewState()}

	id, err := m.EditList(s, ListTopManagement, OpAdd, "", json.RawMessage(`{"name":"A. Rao","designation":"Director"}`))
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	before := s.State.TopManagement

	_, err = m.EditList(s, ListTopManagement, OpUpdate, id, json.RawMessage(`{"name":"A. Rao","designation":"CEO"}`))
	require.NoError(t, err)
	assert.Equal(t, "Director", before[0].Designation, "update produces a new slice")
	assert.Equal(t, "CEO", s.State.TopManagement[0].Designation)
	assert.Equal(t, id, s.State.TopManagement[0].ID)

	_, err = m.EditList(s, ListShifts, OpAdd, "", json.RawMessage(`{"name":"Night","startTime":"22:00","endTime":"06:00"}`))
	require.NoError(t, err)
	assert.Len(t, s.State.Shifts.Shifts, 1)

	_, err = m.EditList(s, ListTopManagement, OpRemove, id, nil)
	require.NoError(t, err)
	assert.Empty(t, s.State.TopManagement)

	_, err = m.EditList(s, ListTopManagement, OpRemove, "ghost", nil)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = m.EditList(s, "pets", OpAdd, "", json.RawMessage(`{}`))
	assert.Error(t, err)
}

func TestEditNormalizesWorkingDays(t *testing.T) {
	m := NewManager(newMemStore())
	s := &Session{CurrentStep: StepShifts, State: NewState()}
	state := completeState()
	state.Shifts.WorkingDays = []string{" monday", "FRIDAY", ""}
	require.NoError(t, m.Edit(s, state))
	assert.Equal(t, []string{"Monday", "Friday"}, s.State.Shifts.WorkingDays)
}
