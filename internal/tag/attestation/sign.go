package attestation

import (
	"bytes"
	"context"
	"crypto"
	"encoding/json"
	"fmt"

	"github.com/in-toto/in-toto-golang/in_toto"
	"github.com/sigstore/sigstore/pkg/signature"
	"github.com/sigstore/sigstore/pkg/signature/dsse"
	signatureoptions "github.com/sigstore/sigstore/pkg/signature/options"
)

// Keys are expected to be unencrypted.
var keyPass = []byte("")

var passFunc = func(_ bool) ([]byte, error) {
	return keyPass, nil
}

// Sign wraps the statement in a DSSE envelope signed with the PEM encoded
// private key at keyPath.
func Sign(ctx context.Context, statement in_toto.Statement, keyPath string) ([]byte, error) {
	signer, err := signature.LoadSignerFromPEMFile(keyPath, crypto.SHA256, passFunc)
	if err != nil {
		return nil, fmt.Errorf("getting signer: %w", err)
	}

	payload, err := json.Marshal(statement)
	if err != nil {
		return nil, err
	}

	wrapped := dsse.WrapSigner(signer, PayloadType)
	envelope, err := wrapped.SignMessage(bytes.NewReader(payload), signatureoptions.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("signing: %w", err)
	}

	return envelope, nil
}
