package modules

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gapnode/messages"
)

const MinMilestoneTitleLength = 3

var ErrNoSuchMilestone = errors.New("no such milestone")

var dueDateLayouts = []string{"2006-01-02", time.RFC3339}

// ------------------------------------------------------------------------------------------------------------------- //
// MILESTONE DRAFT

/*
A milestone being written in the wizard. Created empty and in edit mode, it becomes valid only
through a successful save and is never sent anywhere before the parent submission succeeds.
*/
type MilestoneDraft struct {
	Title          string
	Description    string
	CompletionNote string
	DueAt          time.Time
	Valid          bool
	Editing        bool
}

func (draft *MilestoneDraft) Details() messages.MilestoneDetails {
	return messages.MilestoneDetails{
		Title:          draft.Title,
		Description:    draft.Description,
		CompletionNote: draft.CompletionNote,
		DueAt:          draft.DueAt,
	}
}

type MilestoneInput struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	CompletionNote string `yaml:"completionNote"`
	DueAt          string `yaml:"dueAt"`
}

func (input MilestoneInput) check() (time.Time, error) {
	if utf8.RuneCountInString(strings.TrimSpace(input.Title)) < MinMilestoneTitleLength {
		return time.Time{}, invalid("title", "must be at least 3 characters")
	} else if strings.TrimSpace(input.DueAt) == "" {
		return time.Time{}, invalid("dueAt", "is required")
	}
	dueAt, err := ParseDueDate(input.DueAt)
	if err != nil {
		return time.Time{}, invalid("dueAt", "is not a date")
	}
	return dueAt, nil
}

func ParseDueDate(value string) (time.Time, error) {
	var err error
	for _, layout := range dueDateLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, err
}

// ------------------------------------------------------------------------------------------------------------------- //
// MILESTONE SET

type MilestoneSet struct {
	drafts []MilestoneDraft
}

func NewMilestoneSet() *MilestoneSet {
	return &MilestoneSet{}
}

// Add appends an empty draft in edit mode and returns its index.
func (set *MilestoneSet) Add() int {
	set.drafts = append(set.drafts, MilestoneDraft{Editing: true})
	return len(set.drafts) - 1
}

func (set *MilestoneSet) Remove(index int) error {
	if !set.inRange(index) {
		return ErrNoSuchMilestone
	}
	set.drafts = append(set.drafts[:index], set.drafts[index+1:]...)
	return nil
}

// Save validates input and, only when it passes, stores it and marks the draft valid.
func (set *MilestoneSet) Save(index int, input MilestoneInput) error {
	if !set.inRange(index) {
		return ErrNoSuchMilestone
	}
	dueAt, err := input.check()
	if err != nil {
		return err
	}
	set.drafts[index] = MilestoneDraft{
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		CompletionNote: input.CompletionNote,
		DueAt:          dueAt,
		Valid:          true,
		Editing:        false,
	}
	return nil
}

func (set *MilestoneSet) ToggleEditing(index int) error {
	if !set.inRange(index) {
		return ErrNoSuchMilestone
	}
	set.drafts[index].Editing = !set.drafts[index].Editing
	return nil
}

func (set *MilestoneSet) Draft(index int) (MilestoneDraft, error) {
	if !set.inRange(index) {
		return MilestoneDraft{}, ErrNoSuchMilestone
	}
	return set.drafts[index], nil
}

func (set *MilestoneSet) Drafts() []MilestoneDraft {
	return append([]MilestoneDraft(nil), set.drafts...)
}

func (set *MilestoneSet) Len() int {
	return len(set.drafts)
}

// AllValid holds for an empty set.
func (set *MilestoneSet) AllValid() bool {
	for _, draft := range set.drafts {
		if !draft.Valid {
			return false
		}
	}
	return true
}

func (set *MilestoneSet) Details() []messages.MilestoneDetails {
	var details []messages.MilestoneDetails
	for i := range set.drafts {
		details = append(details, set.drafts[i].Details())
	}
	return details
}

func (set *MilestoneSet) Clear() {
	set.drafts = nil
}

func (set *MilestoneSet) clone() *MilestoneSet {
	return &MilestoneSet{drafts: set.Drafts()}
}

func (set *MilestoneSet) inRange(index int) bool {
	return index >= 0 && index < len(set.drafts)
}
