package attestation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"

	"github.com/in-toto/in-toto-golang/in_toto"
	"github.com/in-toto/in-toto-golang/in_toto/slsa_provenance/common"
)

const (
	// PredicateType identifies tag activity predicates.
	PredicateType = "https://tag.chaosinthecrd.io/activity/v0.1"

	// PayloadType is the DSSE payload type of in-toto statements.
	PayloadType = "application/vnd.in-toto+json"
)

// NewStatement returns an in-toto statement whose subject is the activity log
// written at logPath with contents logData.
func NewStatement(logPath string, logData []byte, predicate Predicate) in_toto.Statement {
	sum := sha256.Sum256(logData)

	return in_toto.Statement{
		StatementHeader: in_toto.StatementHeader{
			Type:          in_toto.StatementInTotoV01,
			PredicateType: PredicateType,
			Subject: []in_toto.Subject{{
				Name:   filepath.Base(logPath),
				Digest: common.DigestSet{"sha256": hex.EncodeToString(sum[:])},
			}},
		},
		Predicate: predicate,
	}
}

// Encode renders an unsigned statement.
func Encode(statement in_toto.Statement) ([]byte, error) {
	return json.MarshalIndent(statement, "", "  ")
}
