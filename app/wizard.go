package app

import (
	"context"
	"fmt"
	"sync"

	"gapnode/messages"
	"gapnode/modules"

	"github.com/google/uuid"
	"github.com/tendermint/tendermint/libs/log"
)

type Dependencies struct {
	Wallet   Wallet
	Builders BuilderFactory
	Indexer  Indexer
	Reporter Reporter
	Tracks   TrackAssigner
	Logger   log.Logger
}

type Option func(*options)

type options struct {
	poller    []PollerOption
	listeners []func(Status)
}

func WithPolling(pollerOptions ...PollerOption) Option {
	return func(options *options) {
		options.poller = append(options.poller, pollerOptions...)
	}
}

func WithStatusListener(listener func(Status)) Option {
	return func(options *options) {
		options.listeners = append(options.listeners, listener)
	}
}

// ------------------------------------------------------------------------------------------------------------------- //
// WIZARD

/*
Wizard sequences the steps of one submission and is the only writer of its session.
All operations are serialized, and while a submission is in flight every mutation is
refused with ErrSubmissionInFlight. Close tears the wizard down: it cancels an in-flight
submission and resets the session.
*/
type Wizard struct {
	mu        sync.Mutex
	projectID string
	session   *modules.Session
	community messages.Community
	program   *messages.Program
	inFlight  bool
	cancel    context.CancelFunc

	duplicates *DuplicateGuard
	network    *NetworkGuard
	submitter  *Submitter
	logger     log.Logger
}

func NewWizard(projectID string, deps Dependencies, opts ...Option) *Wizard {
	var options options
	for _, opt := range opts {
		opt(&options)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	poller := NewPoller(deps.Indexer, logger, options.poller...)
	wizard := &Wizard{
		projectID:  projectID,
		session:    modules.NewSession(),
		duplicates: NewDuplicateGuard(deps.Indexer),
		network:    NewNetworkGuard(deps.Wallet, deps.Builders, logger),
		submitter:  NewSubmitter(deps.Wallet, poller, deps.Reporter, deps.Tracks, logger),
		logger:     logger.With("module", "wizard", "project", projectID),
	}
	for _, listener := range options.listeners {
		wizard.submitter.Tracker().OnChange(listener)
	}
	return wizard
}

// NewEditWizard opens an indexed grant for editing. community must be the grant's community,
// its Programs are used to resolve the grant's program.
func NewEditWizard(projectID string, entry *messages.GrantEntry, community messages.Community, deps Dependencies, opts ...Option) *Wizard {
	wizard := NewWizard(projectID, deps, opts...)
	wizard.session = modules.NewEditSession(entry, community)
	wizard.community = community
	if program, ok := community.Program(entry.ProgramID); ok {
		wizard.program = &program
	}
	return wizard
}

func (wizard *Wizard) Session() *modules.Session {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	return wizard.session.Snapshot()
}

func (wizard *Wizard) CurrentStep() int {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	return wizard.session.CurrentStep
}

func (wizard *Wizard) Step() modules.StepKind {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	return wizard.session.Step()
}

func (wizard *Wizard) Status() Status {
	return wizard.submitter.Status()
}

// ------------------------------------------------------------------------------------------------------------------- //
// SEQUENCING

func (wizard *Wizard) SelectFlowType(flow modules.FlowType) error {
	return wizard.mutate(func(session *modules.Session) error {
		if flow == modules.FlowUnset {
			return ErrFlowUnset
		}
		if session.Editing() || session.CurrentStep != 1 {
			return ErrFlowLocked
		}
		if session.Flow != flow {
			wizard.program = nil
		}
		session.SelectFlowType(flow)
		return nil
	})
}

// Advance validates the current step and moves to the next step of the flow.
func (wizard *Wizard) Advance() error {
	return wizard.mutate(func(session *modules.Session) error {
		if err := session.ValidateStep(session.Step()); err != nil {
			return err
		}
		if session.IsLastStep() {
			return ErrLastStep
		}
		session.CurrentStep++
		wizard.logger.Debug("Advanced", "step", session.CurrentStep, "label", session.Flow.StepLabel(session.CurrentStep))
		return nil
	})
}

// Retreat never goes before the entry step, which is the community step when editing.
func (wizard *Wizard) Retreat() error {
	return wizard.mutate(func(session *modules.Session) error {
		if session.CurrentStep <= session.EntryStep {
			return ErrFirstStep
		}
		session.CurrentStep--
		return nil
	})
}

func (wizard *Wizard) Reset() error {
	return wizard.mutate(func(session *modules.Session) error {
		wizard.reset()
		return nil
	})
}

// Close is the teardown hook, it never fails.
func (wizard *Wizard) Close() {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	if wizard.cancel != nil {
		wizard.cancel()
	}
	wizard.reset()
}

func (wizard *Wizard) reset() {
	wizard.session.Reset()
	wizard.community = messages.Community{}
	wizard.program = nil
}

func (wizard *Wizard) mutate(mutation func(session *modules.Session) error) error {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	if wizard.inFlight {
		return ErrSubmissionInFlight
	}
	return mutation(wizard.session)
}

// ------------------------------------------------------------------------------------------------------------------- //
// FORM

func (wizard *Wizard) SelectCommunity(community messages.Community) error {
	return wizard.mutate(func(session *modules.Session) error {
		if wizard.community.ID != community.ID {
			wizard.program = nil
		}
		session.SetCommunity(community)
		wizard.community = community
		return nil
	})
}

// SelectProgram picks one of the selected community's programs, an empty id clears it.
func (wizard *Wizard) SelectProgram(programID string) error {
	return wizard.mutate(func(session *modules.Session) error {
		if programID == "" {
			session.SetProgram("")
			wizard.program = nil
			return nil
		}
		program, ok := wizard.community.Program(programID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
		}
		session.SetProgram(programID)
		session.RequireAnswers(program.Questions)
		wizard.program = &program
		return nil
	})
}

func (wizard *Wizard) SetTitle(title string) error {
	return wizard.mutate(func(session *modules.Session) error {
		session.Form.Title = title
		return nil
	})
}

func (wizard *Wizard) SetDescription(description string) error {
	return wizard.mutate(func(session *modules.Session) error {
		session.Form.Description = description
		return nil
	})
}

func (wizard *Wizard) SetAmount(amount string) error {
	return wizard.mutate(func(session *modules.Session) error {
		session.Form.Amount = amount
		return nil
	})
}

func (wizard *Wizard) SetProposalURL(url string) error {
	return wizard.mutate(func(session *modules.Session) error {
		session.Form.ProposalURL = url
		return nil
	})
}

func (wizard *Wizard) SetRecipient(recipient string) error {
	return wizard.mutate(func(session *modules.Session) error {
		return session.SetRecipient(recipient)
	})
}

func (wizard *Wizard) SetStartDate(startDate string) error {
	return wizard.mutate(func(session *modules.Session) error {
		return session.SetStartDate(startDate)
	})
}

// ToggleTrack reports whether the track is selected afterwards.
func (wizard *Wizard) ToggleTrack(trackID string) (bool, error) {
	var selected bool
	err := wizard.mutate(func(session *modules.Session) error {
		if wizard.program == nil {
			return fmt.Errorf("%w: no program selected", ErrUnknownTrack)
		}
		if _, ok := wizard.program.Track(trackID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
		}
		selected = session.Form.Tracks.Toggle(trackID)
		return nil
	})
	return selected, err
}

func (wizard *Wizard) SetTrackJustification(trackID, justification string) error {
	return wizard.mutate(func(session *modules.Session) error {
		return session.Form.Tracks.SetJustification(trackID, justification)
	})
}

// SetAnswer answers one of the selected program's questions, the program decides whether it is private.
func (wizard *Wizard) SetAnswer(questionID, text string) error {
	return wizard.mutate(func(session *modules.Session) error {
		if wizard.program == nil {
			return fmt.Errorf("%w: no program selected", ErrUnknownQuestion)
		}
		question, ok := wizard.program.Question(questionID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
		}
		session.SetAnswer(modules.Answer{
			QuestionID: question.ID,
			Question:   question.Label,
			Text:       text,
			Private:    question.Private,
		})
		return nil
	})
}

// ------------------------------------------------------------------------------------------------------------------- //
// MILESTONES

func (wizard *Wizard) AddMilestone() (int, error) {
	var index int
	err := wizard.mutate(func(session *modules.Session) error {
		index = session.Milestones.Add()
		return nil
	})
	return index, err
}

func (wizard *Wizard) RemoveMilestone(index int) error {
	return wizard.mutate(func(session *modules.Session) error {
		return session.Milestones.Remove(index)
	})
}

func (wizard *Wizard) SaveMilestone(index int, input modules.MilestoneInput) error {
	return wizard.mutate(func(session *modules.Session) error {
		return session.Milestones.Save(index, input)
	})
}

func (wizard *Wizard) ToggleMilestoneEditing(index int) error {
	return wizard.mutate(func(session *modules.Session) error {
		return session.Milestones.ToggleEditing(index)
	})
}

func (wizard *Wizard) Milestones() []modules.MilestoneDraft {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	return wizard.session.Milestones.Drafts()
}

// ------------------------------------------------------------------------------------------------------------------- //
// SUBMISSION

// CheckDuplicate runs the duplicate guard against the current answers without submitting.
func (wizard *Wizard) CheckDuplicate(ctx context.Context) (Duplicate, error) {
	wizard.mu.Lock()
	candidate := wizard.candidate(wizard.session)
	wizard.mu.Unlock()
	return wizard.duplicates.CheckDuplicate(ctx, wizard.projectID, candidate)
}

func (wizard *Wizard) candidate(session *modules.Session) Candidate {
	return Candidate{
		ProgramID:   session.Form.ProgramID,
		CommunityID: session.Form.CommunityID,
		Title:       session.Form.Title,
		Exclude:     session.EditingUID,
	}
}

/*
Submit runs the final checks and the submission in their fixed order: duplicate guard, network
guard, signature, indexing. Only one submission runs at a time. The session is reset once the
record is indexed and kept on every other outcome so the answers survive a retry.
*/
func (wizard *Wizard) Submit(ctx context.Context, caller Caller) (*Result, error) {
	wizard.mu.Lock()
	if wizard.inFlight {
		wizard.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	session := wizard.session
	if !session.IsLastStep() || session.Flow == modules.FlowUnset {
		wizard.mu.Unlock()
		return nil, ErrIncomplete
	}
	if !session.Milestones.AllValid() {
		wizard.mu.Unlock()
		return nil, ErrMilestonesInvalid
	}
	if err := session.ValidateAll(); err != nil {
		wizard.mu.Unlock()
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	submission := &Submission{
		AttemptID: uuid.New().String(),
		ProjectID: wizard.projectID,
		Session:   session.Snapshot(),
		Program:   wizard.program,
		Caller:    caller,
		OnIndexed: wizard.resetAfterSubmit,
	}
	candidate := wizard.candidate(session)
	wizard.inFlight = true
	wizard.cancel = cancel
	wizard.submitter.tracker.reset()
	wizard.mu.Unlock()

	defer func() {
		cancel()
		wizard.mu.Lock()
		wizard.inFlight = false
		wizard.cancel = nil
		wizard.mu.Unlock()
	}()

	logger := wizard.logger.With("attempt", submission.AttemptID)
	duplicate, err := wizard.duplicates.CheckDuplicate(ctx, wizard.projectID, candidate)
	if err != nil {
		return wizard.submitter.Abort(submission, err)
	}
	if duplicate.Found {
		logger.Info("Duplicate submission blocked", "match", duplicate.Match.UID.Hex())
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, duplicate.Match.UID.Hex())
	}

	builder, err := wizard.network.EnsureNetwork(ctx, submission.Session.Form.NetworkID)
	if err != nil {
		return wizard.submitter.Abort(submission, err)
	}
	submission.Builder = builder
	return wizard.submitter.Submit(ctx, submission)
}

type Outcome struct {
	Result *Result
	Err    error
}

// SubmitAsync runs Submit on its own goroutine and delivers the single outcome on the channel.
func (wizard *Wizard) SubmitAsync(ctx context.Context, caller Caller) <-chan Outcome {
	outcome := make(chan Outcome, 1)
	go func() {
		defer close(outcome)
		result, err := wizard.Submit(ctx, caller)
		outcome <- Outcome{Result: result, Err: err}
	}()
	return outcome
}

func (wizard *Wizard) resetAfterSubmit() {
	wizard.mu.Lock()
	defer wizard.mu.Unlock()
	wizard.reset()
	wizard.logger.Info("Submission indexed, session reset")
}
