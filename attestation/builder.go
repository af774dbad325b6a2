package attestation

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gapnode/app"
	"gapnode/crypto"
	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnsupportedNetwork = errors.New("no schemas registered for network")
	ErrInvalidDraft       = errors.New("invalid grant draft")
	ErrInvalidBundle      = errors.New("invalid attestation bundle")
)

// ------------------------------------------------------------------------------------------------------------------- //
// FACTORY

var _ app.BuilderFactory = (*Factory)(nil)
var _ app.Builder = (*Builder)(nil)

type Factory struct {
	now func() time.Time
}

func NewFactory() *Factory {
	return &Factory{now: time.Now}
}

func (factory *Factory) ForNetwork(networkID uint64) (app.Builder, error) {
	schemas, ok := SchemasFor(networkID)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedNetwork, networkID)
	}
	return &Builder{networkID: networkID, schemas: schemas, now: factory.now}, nil
}

// ------------------------------------------------------------------------------------------------------------------- //
// BUILDER

/*
Builder turns a grant draft into the attestations of one network. A new grant produces a grant
attestation that the details and every milestone reference. An update produces only the
details and the new milestones, all referencing the existing grant.
*/
type Builder struct {
	networkID uint64
	schemas   Schemas
	now       func() time.Time
}

func (builder *Builder) NetworkID() uint64 {
	return builder.networkID
}

func (builder *Builder) Build(draft *messages.GrantDraft) (*messages.Bundle, error) {
	if err := checkDraft(draft); err != nil {
		return nil, err
	}
	bundle := &messages.Bundle{
		TxType:    draft.TxType,
		NetworkID: builder.networkID,
		ProjectID: draft.ProjectID,
		Attester:  draft.Attester,
		Time:      builder.now().Unix(),
	}

	ref := draft.Existing
	if draft.TxType != messages.TxUpdateGrant {
		grant, err := builder.attest(bundle, builder.schemas.Grant, draft.Recipient, common.Hash{}, messages.GrantData{
			ProjectID:   draft.ProjectID,
			CommunityID: draft.CommunityID,
			ProgramID:   draft.ProgramID,
		}, 0)
		if err != nil {
			return nil, err
		}
		bundle.Grant = grant
		ref = grant.UID
	}

	details, err := builder.attest(bundle, builder.schemas.Details, draft.Recipient, ref, draft.Details, 0)
	if err != nil {
		return nil, err
	}
	bundle.Details = details

	for i, milestone := range draft.Milestones {
		attestation, err := builder.attest(bundle, builder.schemas.Milestone, draft.Recipient, ref, milestone, uint64(i))
		if err != nil {
			return nil, err
		}
		bundle.Milestones = append(bundle.Milestones, attestation)
	}
	return bundle, nil
}

func (builder *Builder) attest(bundle *messages.Bundle, schema common.Hash, recipient common.Address, ref common.Hash, data interface{}, nonce uint64) (*messages.Attestation, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	attestation := &messages.Attestation{
		Schema:    schema,
		Recipient: recipient,
		RefUID:    ref,
		Data:      encoded,
	}
	attestation.UID = UID(attestation, bundle.Attester, bundle.Time, nonce)
	return attestation, nil
}

func checkDraft(draft *messages.GrantDraft) error {
	if draft.ProjectID == "" {
		return fmt.Errorf("%w: missing project", ErrInvalidDraft)
	} else if draft.Attester == (common.Address{}) {
		return fmt.Errorf("%w: missing attester", ErrInvalidDraft)
	} else if draft.TxType == messages.TxUpdateGrant && draft.Existing == (common.Hash{}) {
		return fmt.Errorf("%w: update without an existing grant", ErrInvalidDraft)
	} else if draft.TxType != messages.TxUpdateGrant && draft.CommunityID == "" {
		return fmt.Errorf("%w: missing community", ErrInvalidDraft)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------------------- //
// UIDS

// UID is keccak256(schema, recipient, attester, refUID, data, time, nonce).
func UID(attestation *messages.Attestation, attester common.Address, timestamp int64, nonce uint64) common.Hash {
	var message []byte
	message = append(message, attestation.Schema.Bytes()...)
	message = append(message, attestation.Recipient.Bytes()...)
	message = append(message, attester.Bytes()...)
	message = append(message, attestation.RefUID.Bytes()...)
	message = append(message, attestation.Data...)
	var suffix [16]byte
	binary.BigEndian.PutUint64(suffix[:8], uint64(timestamp))
	binary.BigEndian.PutUint64(suffix[8:], nonce)
	message = append(message, suffix[:]...)
	return crypto.Hash(message)
}

// Verify recomputes every uid of a received bundle and checks the schemas and references.
func Verify(bundle *messages.Bundle) error {
	schemas, ok := SchemasFor(bundle.NetworkID)
	if !ok {
		return fmt.Errorf("%w %d", ErrUnsupportedNetwork, bundle.NetworkID)
	}
	if bundle.Details == nil {
		return fmt.Errorf("%w: missing details", ErrInvalidBundle)
	}
	if (bundle.Grant == nil) != (bundle.TxType == messages.TxUpdateGrant) {
		return fmt.Errorf("%w: grant attestation does not match %s", ErrInvalidBundle, bundle.TxType)
	}
	ref := bundle.Details.RefUID
	if bundle.Grant != nil {
		if err := check(bundle.Grant, schemas.Grant, common.Hash{}, bundle, 0); err != nil {
			return err
		}
		ref = bundle.Grant.UID
	}
	if err := check(bundle.Details, schemas.Details, ref, bundle, 0); err != nil {
		return err
	}
	for i, milestone := range bundle.Milestones {
		if err := check(milestone, schemas.Milestone, ref, bundle, uint64(i)); err != nil {
			return err
		}
	}
	return nil
}

func check(attestation *messages.Attestation, schema common.Hash, ref common.Hash, bundle *messages.Bundle, nonce uint64) error {
	if attestation.Schema != schema {
		return fmt.Errorf("%w: unexpected schema %s", ErrInvalidBundle, attestation.Schema.Hex())
	} else if attestation.RefUID != ref {
		return fmt.Errorf("%w: %s references %s", ErrInvalidBundle, attestation.UID.Hex(), attestation.RefUID.Hex())
	} else if UID(attestation, bundle.Attester, bundle.Time, nonce) != attestation.UID {
		return fmt.Errorf("%w: uid mismatch for %s", ErrInvalidBundle, attestation.UID.Hex())
	}
	return nil
}
