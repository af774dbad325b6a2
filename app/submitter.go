package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gapnode/crypto"
	"gapnode/messages"
	"gapnode/modules"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tendermint/tendermint/libs/log"
)

// Caller is whoever submits. Admin rights over the community or the project allow naming
// a recipient other than the caller.
type Caller struct {
	Address        common.Address
	CommunityAdmin bool
	ProjectAdmin   bool
}

func (caller Caller) Elevated() bool {
	return caller.CommunityAdmin || caller.ProjectAdmin
}

// Submission is one attempt, built by the wizard from a snapshot of its session.
type Submission struct {
	AttemptID string
	ProjectID string
	Session   *modules.Session
	Program   *messages.Program
	Caller    Caller
	Builder   Builder
	OnIndexed func()
}

func (submission *Submission) reportContext() map[string]interface{} {
	return map[string]interface{}{
		"attempt": submission.AttemptID,
		"flow":    submission.Session.Flow.String(),
		"project": submission.ProjectID,
		"address": submission.Caller.Address.Hex(),
		"network": submission.Session.Form.NetworkID,
	}
}

type Result struct {
	AttemptID      string
	Status         Status
	Bundle         *messages.Bundle
	Receipt        *messages.Receipt
	PollAttempts   int
	TracksAssigned bool
}

// ------------------------------------------------------------------------------------------------------------------- //
// SUBMITTER

type Submitter struct {
	wallet   Wallet
	poller   *Poller
	reporter Reporter
	tracks   TrackAssigner
	tracker  *StatusTracker
	logger   log.Logger
}

func NewSubmitter(wallet Wallet, poller *Poller, reporter Reporter, tracks TrackAssigner, logger log.Logger) *Submitter {
	return &Submitter{
		wallet:   wallet,
		poller:   poller,
		reporter: reporter,
		tracks:   tracks,
		tracker:  &StatusTracker{},
		logger:   logger.With("module", "submitter"),
	}
}

func (submitter *Submitter) Status() Status {
	return submitter.tracker.Status()
}

func (submitter *Submitter) Tracker() *StatusTracker {
	return submitter.tracker
}

/*
Submit drives one attempt from Preparing to Indexed. Failures before the broadcast completes
end in Failed and, unless the user declined to sign, are reported. Once the transaction is out
the attempt can no longer fail: an indexing timeout or a cancelled context leave the status at
Indexing and return the receipt together with the error.
*/
func (submitter *Submitter) Submit(ctx context.Context, submission *Submission) (*Result, error) {
	submitter.tracker.reset()
	result := &Result{AttemptID: submission.AttemptID}
	logger := submitter.logger.With("attempt", submission.AttemptID, "flow", submission.Session.Flow.String(), "project", submission.ProjectID)

	submitter.transition(StatusPreparing)
	draft, err := prepare(submission)
	if err != nil {
		return submitter.fail(result, submission, err)
	}
	bundle, err := submission.Builder.Build(draft)
	if err != nil {
		return submitter.fail(result, submission, fmt.Errorf("building attestations: %w", err))
	}
	result.Bundle = bundle

	submitter.transition(StatusAwaitingSignature)
	logger.Info("Requesting signature", "network", messages.NetworkName(bundle.NetworkID), "attestations", len(bundle.UIDs()))
	receipt, err := submitter.wallet.SignAndSubmit(ctx, bundle, func() {
		submitter.transition(StatusSubmitting)
	})
	if err != nil {
		return submitter.fail(result, submission, err)
	}
	if submitter.tracker.Status() == StatusAwaitingSignature {
		submitter.transition(StatusSubmitting)
	}
	result.Receipt = receipt

	submitter.transition(StatusIndexing)
	logger.Info("Transaction broadcast", "tx", receipt.TxHash.Hex())
	poll, err := submitter.poller.Poll(ctx, PollTarget{
		ProjectID: submission.ProjectID,
		UID:       bundle.TargetUID(),
		TxHash:    receipt.TxHash,
		NetworkID: receipt.NetworkID,
	})
	result.PollAttempts = poll.Attempts
	if err != nil {
		result.Status = submitter.tracker.Status()
		return result, err
	}

	submitter.transition(StatusIndexed)
	result.Status = StatusIndexed
	if submission.OnIndexed != nil {
		submission.OnIndexed()
	}
	result.TracksAssigned = submitter.assignTracks(ctx, submission, logger)
	return result, nil
}

// Abort fails an attempt that never reached Preparing, such as one stopped by the network guard.
func (submitter *Submitter) Abort(submission *Submission, err error) (*Result, error) {
	submitter.tracker.reset()
	return submitter.fail(&Result{AttemptID: submission.AttemptID}, submission, err)
}

// assignTracks runs after the submission succeeded, its failure is logged and reported only.
func (submitter *Submitter) assignTracks(ctx context.Context, submission *Submission, logger log.Logger) bool {
	trackIDs := submission.Session.Form.Tracks.IDs()
	if submission.Session.Flow != modules.FlowProgram || len(trackIDs) == 0 || submitter.tracks == nil {
		return false
	}
	err := submitter.tracks.AssignTracks(ctx, submission.ProjectID, trackIDs, submission.Session.Form.ProgramID)
	if err != nil {
		logger.Error("Assigning tracks failed", "tracks", strings.Join(trackIDs, ","), "err", err)
		fields := submission.reportContext()
		fields["tracks"] = trackIDs
		submitter.reporter.Report("track assignment failed", err, fields)
		return false
	}
	return true
}

func (submitter *Submitter) fail(result *Result, submission *Submission, err error) (*Result, error) {
	submitter.transition(StatusFailed)
	result.Status = StatusFailed
	if errors.Is(err, ErrSignatureRejected) {
		submitter.logger.Info("Signature rejected", "attempt", submission.AttemptID)
		return result, err
	}
	if !errors.Is(err, ErrNetworkMismatch) {
		err = fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	message := submission.Session.Flow.FailureMessage()
	submitter.logger.Error(message, "attempt", submission.AttemptID, "err", err)
	submitter.reporter.Report(message, err, submission.reportContext())
	return result, err
}

func (submitter *Submitter) transition(next Status) {
	if err := submitter.tracker.advance(next); err != nil {
		submitter.logger.Error("Unexpected status transition", "from", submitter.tracker.Status().String(), "to", next.String())
	}
}

// ------------------------------------------------------------------------------------------------------------------- //
// PREPARATION

func prepare(submission *Submission) (*messages.GrantDraft, error) {
	session := submission.Session
	form := &session.Form
	draft := &messages.GrantDraft{
		TxType:      session.Flow.TxType(),
		Attester:    submission.Caller.Address,
		ProjectID:   submission.ProjectID,
		CommunityID: form.CommunityID,
		ProgramID:   form.ProgramID,
		Recipient:   recipient(form.Recipient, submission.Caller),
		Existing:    session.EditingUID,
		Milestones:  session.Milestones.Details(),
	}
	if session.Editing() {
		draft.TxType = messages.TxUpdateGrant
	}

	title := strings.TrimSpace(form.Title)
	if title == "" && submission.Program != nil {
		title = submission.Program.Name
	}
	draft.Details = messages.GrantDetails{
		Title:       title,
		Description: session.Flow.MarkDescription(form.Description),
		Amount:      form.Amount,
		ProposalURL: form.ProposalURL,
		StartDate:   form.StartDate,
	}
	for _, trackID := range form.Tracks.IDs() {
		draft.Details.Tracks = append(draft.Details.Tracks, messages.TrackAnswer{
			TrackID:       trackID,
			Justification: form.Tracks.Justification(trackID),
		})
	}
	for _, answer := range form.Answers {
		payload, err := answerPayload(answer, form.EncryptionKey)
		if err != nil {
			return nil, err
		}
		draft.Details.Questions = append(draft.Details.Questions, payload)
	}
	return draft, nil
}

// recipient honours an explicit recipient only for callers with admin rights.
func recipient(explicit string, caller Caller) common.Address {
	if explicit != "" && caller.Elevated() && common.IsHexAddress(explicit) {
		return common.HexToAddress(explicit)
	}
	return caller.Address
}

func answerPayload(answer modules.Answer, encryptionKey string) (messages.AnswerPayload, error) {
	payload := messages.AnswerPayload{
		QuestionID: answer.QuestionID,
		Question:   answer.Question,
		Answer:     answer.Text,
	}
	if !answer.Private {
		return payload, nil
	}
	if encryptionKey == "" {
		return payload, fmt.Errorf("question %s is private but the community has no encryption key", answer.QuestionID)
	}
	encrypted, err := crypto.Encrypt(encryptionKey, []byte(answer.Text))
	if err != nil {
		return payload, fmt.Errorf("encrypting answer to %s: %w", answer.QuestionID, err)
	}
	payload.Answer = hexutil.Encode(encrypted)
	payload.Encrypted = true
	return payload, nil
}
