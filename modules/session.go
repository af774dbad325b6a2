package modules

import (
	"strings"
	"time"

	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
)

// ------------------------------------------------------------------------------------------------------------------- //
// FORM DATA

type Answer struct {
	QuestionID string
	Question   string
	Text       string
	Private    bool
}

/*
The answers accumulated across the wizard steps. NetworkID and EncryptionKey are copied from the
selected community and are never set on their own.
*/
type FormData struct {
	CommunityID   string
	NetworkID     uint64
	EncryptionKey string
	ProgramID     string
	Title         string
	Description   string
	Amount        string
	ProposalURL   string
	Recipient     string
	StartDate     *time.Time
	Tracks        TrackSelection
	Answers       []Answer
}

func (form *FormData) clone() FormData {
	clone := *form
	clone.Tracks = form.Tracks.clone()
	clone.Answers = append([]Answer(nil), form.Answers...)
	if form.StartDate != nil {
		startDate := *form.StartDate
		clone.StartDate = &startDate
	}
	return clone
}

// ------------------------------------------------------------------------------------------------------------------- //
// SESSION

/*
One wizard run. The session is owned by exactly one wizard, it is created with it, passed by
reference and reset when the wizard completes or is torn down. EntryStep is 1 for new
submissions and 2 when an indexed grant is edited, EditingUID is then the edited grant.
Required lists the questions of the selected program that need an answer.
*/
type Session struct {
	Flow        FlowType
	CurrentStep int
	EntryStep   int
	EditingUID  common.Hash
	Form        FormData
	Required    []string
	Milestones  *MilestoneSet
}

func NewSession() *Session {
	return &Session{
		CurrentStep: 1,
		EntryStep:   1,
		Milestones:  NewMilestoneSet(),
	}
}

// NewEditSession prefills a session from an indexed grant, starting at the community step.
// Indexed milestones stay where they are, drafts of an edit session are new milestones only.
func NewEditSession(entry *messages.GrantEntry, community messages.Community) *Session {
	session := NewSession()
	session.Flow = InferFlowType(entry.Details.Description)
	session.CurrentStep = 2
	session.EntryStep = 2
	session.EditingUID = entry.UID
	session.SetCommunity(community)
	session.Form.ProgramID = entry.ProgramID
	if program, ok := community.Program(entry.ProgramID); ok {
		session.RequireAnswers(program.Questions)
	}
	session.Form.Title = entry.Details.Title
	session.Form.Description = entry.Details.Description
	session.Form.Amount = entry.Details.Amount
	session.Form.ProposalURL = entry.Details.ProposalURL
	if entry.Recipient != (common.Address{}) {
		session.Form.Recipient = entry.Recipient.Hex()
	}
	if entry.Details.StartDate != nil {
		startDate := *entry.Details.StartDate
		session.Form.StartDate = &startDate
	}
	for _, track := range entry.Details.Tracks {
		session.Form.Tracks.Toggle(track.TrackID)
		_ = session.Form.Tracks.SetJustification(track.TrackID, track.Justification)
	}
	for _, answer := range entry.Details.Questions {
		if answer.Encrypted {
			continue
		}
		session.Form.Answers = append(session.Form.Answers, Answer{
			QuestionID: answer.QuestionID,
			Question:   answer.Question,
			Text:       answer.Answer,
		})
	}
	return session
}

func (session *Session) Editing() bool {
	return session.EditingUID != (common.Hash{})
}

func (session *Session) Step() StepKind {
	step, _ := session.Flow.StepAt(session.CurrentStep)
	return step
}

func (session *Session) IsLastStep() bool {
	return session.CurrentStep == session.Flow.StepCount()
}

// Reset clears everything, including edit mode.
func (session *Session) Reset() {
	session.Flow = FlowUnset
	session.CurrentStep = 1
	session.EntryStep = 1
	session.EditingUID = common.Hash{}
	session.Form = FormData{}
	session.Required = nil
	session.Milestones.Clear()
}

func (session *Session) IsEmpty() bool {
	return session.Flow == FlowUnset &&
		session.CurrentStep == 1 &&
		session.Form.CommunityID == "" &&
		session.Form.ProgramID == "" &&
		session.Form.Title == "" &&
		session.Form.Description == "" &&
		session.Form.Tracks.Len() == 0 &&
		len(session.Form.Answers) == 0 &&
		session.Milestones.Len() == 0
}

// Snapshot returns a deep copy the submitter can read while the wizard stays locked for edits.
func (session *Session) Snapshot() *Session {
	snapshot := *session
	snapshot.Form = session.Form.clone()
	snapshot.Required = append([]string(nil), session.Required...)
	snapshot.Milestones = session.Milestones.clone()
	return &snapshot
}

// ------------------------------------------------------------------------------------------------------------------- //
// MUTATIONS

// SelectFlowType clears the flow dependent answers when an already chosen flow changes.
func (session *Session) SelectFlowType(flow FlowType) {
	if session.Flow != FlowUnset && session.Flow != flow {
		session.Form.ProgramID = ""
		session.Form.Title = ""
		session.Form.Tracks.Clear()
		session.Required = nil
	}
	session.Flow = flow
	session.CurrentStep = 1
}

// SetCommunity drops the program, its tracks and answers when the community changes.
func (session *Session) SetCommunity(community messages.Community) {
	if session.Form.CommunityID != community.ID {
		session.Form.ProgramID = ""
		session.Form.Tracks.Clear()
		session.Form.Answers = nil
		session.Required = nil
	}
	session.Form.CommunityID = community.ID
	session.Form.NetworkID = community.NetworkID
	session.Form.EncryptionKey = community.EncryptionKey
}

// SetProgram clears the track selection and answers when the program changes.
func (session *Session) SetProgram(programID string) {
	if session.Form.ProgramID != programID {
		session.Form.Tracks.Clear()
		session.Form.Answers = nil
		session.Required = nil
	}
	session.Form.ProgramID = programID
}

// RequireAnswers takes the required questions of the selected program.
func (session *Session) RequireAnswers(questions []messages.Question) {
	session.Required = nil
	for _, question := range questions {
		if question.Required {
			session.Required = append(session.Required, question.ID)
		}
	}
}

func (session *Session) SetRecipient(recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient != "" && !common.IsHexAddress(recipient) {
		return invalid("recipient", "is not an address")
	}
	session.Form.Recipient = recipient
	return nil
}

func (session *Session) SetStartDate(value string) error {
	if strings.TrimSpace(value) == "" {
		session.Form.StartDate = nil
		return nil
	}
	startDate, err := ParseDueDate(value)
	if err != nil {
		return invalid("startDate", "is not a date")
	}
	session.Form.StartDate = &startDate
	return nil
}

// SetAnswer replaces the answer to questionID, an empty text removes it.
func (session *Session) SetAnswer(answer Answer) {
	for i := range session.Form.Answers {
		if session.Form.Answers[i].QuestionID == answer.QuestionID {
			if answer.Text == "" {
				session.Form.Answers = append(session.Form.Answers[:i], session.Form.Answers[i+1:]...)
			} else {
				session.Form.Answers[i] = answer
			}
			return
		}
	}
	if answer.Text != "" {
		session.Form.Answers = append(session.Form.Answers, answer)
	}
}

// ------------------------------------------------------------------------------------------------------------------- //
// VALIDATION

func (session *Session) ValidateStep(step StepKind) error {
	form := &session.Form
	switch step {
	case StepFlowType:
		if session.Flow == FlowUnset {
			return invalid("flowType", "must be selected")
		}
	case StepCommunity:
		if form.CommunityID == "" {
			return invalid("community", "must be selected")
		} else if session.Flow.RequiresProgram() && form.ProgramID == "" {
			return invalid("program", "must be selected")
		} else if form.ProgramID == "" && strings.TrimSpace(form.Title) == "" {
			return invalid("title", "a program or a title is required")
		} else if questionID, ok := session.unanswered(); ok {
			return invalid("answers", "question "+questionID+" is required")
		}
	case StepDetails:
		if session.Flow.RequiresDescription() && strings.TrimSpace(form.Description) == "" {
			return invalid("description", "is required")
		} else if form.Recipient != "" && !common.IsHexAddress(form.Recipient) {
			return invalid("recipient", "is not an address")
		}
	case StepMilestones:
		if !session.Milestones.AllValid() {
			return invalid("milestones", "every milestone must be saved")
		}
	}
	return nil
}

func (session *Session) unanswered() (string, bool) {
	for _, questionID := range session.Required {
		answered := false
		for _, answer := range session.Form.Answers {
			if answer.QuestionID == questionID && strings.TrimSpace(answer.Text) != "" {
				answered = true
				break
			}
		}
		if !answered {
			return questionID, true
		}
	}
	return "", false
}

// ValidateAll checks every step of the flow in order.
func (session *Session) ValidateAll() error {
	for _, step := range session.Flow.Steps() {
		if err := session.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}
