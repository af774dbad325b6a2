package cmd

import (
	"fmt"
	"os"
	"sort"

	"gapnode/app"
	"gapnode/indexer"
	"gapnode/messages"
	"gapnode/modules"

	"gopkg.in/yaml.v3"
)

type TrackAnswer struct {
	ID            string `yaml:"id"`
	Justification string `yaml:"justification"`
}

// Answers is the yaml file the submit command fills the wizard from. Empty fields are left
// untouched, which keeps the indexed values when a grant is edited.
type Answers struct {
	Flow        string                   `yaml:"flow"`
	Community   string                   `yaml:"community"`
	Program     string                   `yaml:"program"`
	Title       string                   `yaml:"title"`
	Description string                   `yaml:"description"`
	Amount      string                   `yaml:"amount"`
	ProposalURL string                   `yaml:"proposalURL"`
	Recipient   string                   `yaml:"recipient"`
	StartDate   string                   `yaml:"startDate"`
	Tracks      []TrackAnswer            `yaml:"tracks"`
	Questions   map[string]string        `yaml:"questions"`
	Milestones  []modules.MilestoneInput `yaml:"milestones"`
}

func ReadAnswers(path string) (*Answers, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var answers Answers
	if err := yaml.Unmarshal(content, &answers); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &answers, nil
}

// Apply walks the wizard step by step to its last step.
func (answers *Answers) Apply(wizard *app.Wizard, communities []messages.Community) error {
	if wizard.CurrentStep() == 1 {
		flow, err := modules.ParseFlowType(answers.Flow)
		if err != nil {
			return err
		}
		if err := wizard.SelectFlowType(flow); err != nil {
			return err
		}
		if err := wizard.Advance(); err != nil {
			return err
		}
	}

	if err := answers.community(wizard, communities); err != nil {
		return err
	}
	if err := wizard.Advance(); err != nil {
		return err
	}

	if wizard.Step() == modules.StepDetails {
		if err := answers.details(wizard); err != nil {
			return err
		}
		if err := wizard.Advance(); err != nil {
			return err
		}
	}

	for i, input := range answers.Milestones {
		index, err := wizard.AddMilestone()
		if err != nil {
			return err
		}
		if err := wizard.SaveMilestone(index, input); err != nil {
			return fmt.Errorf("milestone %d: %w", i+1, err)
		}
	}
	return nil
}

func (answers *Answers) community(wizard *app.Wizard, communities []messages.Community) error {
	if answers.Community != "" {
		community, ok := indexer.FindCommunity(communities, answers.Community)
		if !ok {
			return fmt.Errorf("unknown community %q", answers.Community)
		}
		if err := wizard.SelectCommunity(community); err != nil {
			return err
		}
	}
	if answers.Program != "" {
		if err := wizard.SelectProgram(answers.Program); err != nil {
			return err
		}
	}
	if answers.Title != "" {
		if err := wizard.SetTitle(answers.Title); err != nil {
			return err
		}
	}
	for _, track := range answers.Tracks {
		if !wizard.Session().Form.Tracks.Has(track.ID) {
			if _, err := wizard.ToggleTrack(track.ID); err != nil {
				return err
			}
		}
		if track.Justification != "" {
			if err := wizard.SetTrackJustification(track.ID, track.Justification); err != nil {
				return err
			}
		}
	}
	questionIDs := make([]string, 0, len(answers.Questions))
	for questionID := range answers.Questions {
		questionIDs = append(questionIDs, questionID)
	}
	sort.Strings(questionIDs)
	for _, questionID := range questionIDs {
		if err := wizard.SetAnswer(questionID, answers.Questions[questionID]); err != nil {
			return err
		}
	}
	return nil
}

func (answers *Answers) details(wizard *app.Wizard) error {
	setters := []struct {
		value string
		set   func(string) error
	}{
		{answers.Description, wizard.SetDescription},
		{answers.Amount, wizard.SetAmount},
		{answers.ProposalURL, wizard.SetProposalURL},
		{answers.Recipient, wizard.SetRecipient},
		{answers.StartDate, wizard.SetStartDate},
	}
	for _, setter := range setters {
		if setter.value == "" {
			continue
		}
		if err := setter.set(setter.value); err != nil {
			return err
		}
	}
	return nil
}
