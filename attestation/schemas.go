package attestation

import (
	"fmt"

	"gapnode/crypto"
	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
)

type SchemaKind string

const (
	SchemaGrant     SchemaKind = "grant"
	SchemaDetails   SchemaKind = "grant-details"
	SchemaMilestone SchemaKind = "milestone"
)

var schemaDefinitions = map[SchemaKind]string{
	SchemaGrant:     "string projectId,string communityId,string programId",
	SchemaDetails:   "string title,string description,string amount,string proposalURL,uint64 startDate,string[] tracks,string[] questions",
	SchemaMilestone: "string title,string description,string completionNote,uint64 dueAt",
}

// Schemas are the registered schema uids of one network.
type Schemas struct {
	Grant     common.Hash
	Details   common.Hash
	Milestone common.Hash
}

func (schemas Schemas) Has(schema common.Hash) bool {
	return schema == schemas.Grant || schema == schemas.Details || schema == schemas.Milestone
}

var networkSchemas = make(map[uint64]Schemas)

func init() {
	for _, networkID := range messages.SupportedNetworks() {
		networkSchemas[networkID] = Schemas{
			Grant:     schemaUID(networkID, SchemaGrant),
			Details:   schemaUID(networkID, SchemaDetails),
			Milestone: schemaUID(networkID, SchemaMilestone),
		}
	}
}

// schemaUID mirrors how a schema registry derives a uid from the schema text.
func schemaUID(networkID uint64, kind SchemaKind) common.Hash {
	return crypto.Hash([]byte(fmt.Sprintf("%d|%s|%s", networkID, kind, schemaDefinitions[kind])))
}

func SchemasFor(networkID uint64) (Schemas, bool) {
	schemas, ok := networkSchemas[networkID]
	return schemas, ok
}
