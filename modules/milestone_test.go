package modules

import (
	"errors"
	"testing"

	lorem "github.com/drhodes/golorem"
)

func mockMilestoneInput() MilestoneInput {
	return MilestoneInput{
		Title:          lorem.Sentence(2, 4),
		Description:    lorem.Paragraph(1, 2),
		CompletionNote: lorem.Sentence(3, 6),
		DueAt:          "2027-03-01",
	}
}

func TestAddDraft(t *testing.T) {
	set := NewMilestoneSet()
	index := set.Add()
	if index != 0 || set.Len() != 1 {
		t.Fatalf("Failed adding draft: index %d, len %d", index, set.Len())
	}
	draft, _ := set.Draft(index)
	if draft.Valid || !draft.Editing {
		t.Errorf("New draft should be invalid and in edit mode, got valid=%v editing=%v", draft.Valid, draft.Editing)
	}
}

func TestSaveDraft(t *testing.T) {
	set := NewMilestoneSet()
	index := set.Add()
	input := mockMilestoneInput()
	input.Description = "  kept verbatim  "
	input.CompletionNote = ""
	if err := set.Save(index, input); err != nil {
		t.Fatalf("Failed saving valid draft: %v", err)
	}
	draft, _ := set.Draft(index)
	if !draft.Valid || draft.Editing {
		t.Errorf("Saved draft should be valid and not editing")
	}
	if draft.Description != "  kept verbatim  " {
		t.Errorf("Description not stored verbatim: %q", draft.Description)
	}
	if draft.DueAt.Format("2006-01-02") != "2027-03-01" {
		t.Errorf("Due date not stored, got %v", draft.DueAt)
	}
}

func TestSaveDraftRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input MilestoneInput
		field string
	}{
		{name: "short title", input: MilestoneInput{Title: "ab", DueAt: "2027-01-01"}, field: "title"},
		{name: "padded short title", input: MilestoneInput{Title: "  ab  ", DueAt: "2027-01-01"}, field: "title"},
		{name: "missing due date", input: MilestoneInput{Title: "Launch"}, field: "dueAt"},
		{name: "unparseable due date", input: MilestoneInput{Title: "Launch", DueAt: "next tuesday"}, field: "dueAt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewMilestoneSet()
			index := set.Add()
			err := set.Save(index, tt.input)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Failed field %q, want %q", validationErr.Field, tt.field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidationError should match ErrValidation")
			}
			draft, _ := set.Draft(index)
			if draft.Valid || !draft.Editing || draft.Title != "" {
				t.Errorf("Rejected save changed the draft: %+v", draft)
			}
		})
	}
}

func TestSaveDraftAcceptsRFC3339(t *testing.T) {
	set := NewMilestoneSet()
	index := set.Add()
	if err := set.Save(index, MilestoneInput{Title: "Audit", DueAt: "2027-05-01T12:00:00Z"}); err != nil {
		t.Errorf("RFC 3339 due date rejected: %v", err)
	}
}

func TestToggleEditingKeepsData(t *testing.T) {
	set := NewMilestoneSet()
	index := set.Add()
	_ = set.Save(index, mockMilestoneInput())
	before, _ := set.Draft(index)
	if err := set.ToggleEditing(index); err != nil {
		t.Fatalf("Failed toggling: %v", err)
	}
	after, _ := set.Draft(index)
	if !after.Editing || after.Title != before.Title || !after.Valid {
		t.Errorf("Toggle changed stored data: %+v", after)
	}
	_ = set.ToggleEditing(index)
	after, _ = set.Draft(index)
	if after.Editing {
		t.Errorf("Second toggle should leave edit mode")
	}
}

func TestRemoveDraft(t *testing.T) {
	set := NewMilestoneSet()
	set.Add()
	second := set.Add()
	_ = set.Save(second, MilestoneInput{Title: "Second", DueAt: "2027-01-01"})
	if err := set.Remove(0); err != nil {
		t.Fatalf("Failed removing: %v", err)
	}
	draft, _ := set.Draft(0)
	if set.Len() != 1 || draft.Title != "Second" {
		t.Errorf("Wrong draft removed: %+v", set.Drafts())
	}
	if err := set.Remove(5); err != ErrNoSuchMilestone {
		t.Errorf("Expected ErrNoSuchMilestone, got %v", err)
	}
}

func TestAllValid(t *testing.T) {
	set := NewMilestoneSet()
	if !set.AllValid() {
		t.Errorf("Empty set should be submittable")
	}
	for i := 0; i < 3; i++ {
		_ = set.Save(set.Add(), mockMilestoneInput())
	}
	if !set.AllValid() {
		t.Errorf("Set of saved drafts should be valid")
	}
	set.Add()
	if set.AllValid() {
		t.Errorf("One unsaved draft must block submission")
	}
}
