// signature/chain.go
//
// MOU signature chaining. Every signer signs a canonical JSON payload:
// the first signer binds to the document hash alone, every later signer
// binds to the previous link's signature, wallet and signer identity as
// well. The server recomputes the expected payload for the stage and
// never trusts a client-declared one.
package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"campusflow/models"
)

// Payload shapes are marshalled with fixed field order so every party
// recomputes byte-identical JSON.
type firstPayload struct {
	DocumentHash string `json:"documentHash"`
	FirstSigner  bool   `json:"firstSigner"`
}

type chainedPayload struct {
	DocumentHash      string `json:"documentHash"`
	PreviousSignature string `json:"previousSignature"`
	PreviousWallet    string `json:"previousWallet"`
	PreviousSigner    string `json:"previousSigner"`
}

// PayloadForStage computes the exact message the next signer must sign.
// prev is nil for the first stage.
func PayloadForStage(documentHash string, prev *models.SignatureRecord) (string, error) {
	if strings.TrimSpace(documentHash) == "" {
		return "", models.ErrValidation("document hash is required to build a signature payload")
	}

	var payload interface{}
	if prev == nil {
		payload = firstPayload{DocumentHash: documentHash, FirstSigner: true}
	} else {
		payload = chainedPayload{
			DocumentHash:      documentHash,
			PreviousSignature: prev.Signature,
			PreviousWallet:    prev.WalletAddress,
			PreviousSigner:    prev.SignerEmail,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal signature payload: %w", err)
	}
	return string(data), nil
}

// decodeHex accepts hex strings with or without a 0x prefix.
func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
}

// VerifySignature checks that signatureHex is a valid ed25519 signature
// over payload by the key embedded in walletAddress.
func VerifySignature(walletAddress, signatureHex, payload string) error {
	pub, err := decodeHex(walletAddress)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return models.ErrSignatureMismatch("wallet address is not a valid signing key")
	}

	sig, err := decodeHex(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return models.ErrSignatureMismatch("signature is malformed")
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(payload), sig) {
		return models.ErrSignatureMismatch("signature does not verify against wallet")
	}
	return nil
}

// VerifyChain validates every link of a request's signature chain:
// each link's signed data must equal the payload recomputed from the
// link before it (rooted at the document hash), and each signature must
// cryptographically verify against its wallet. An empty chain is valid.
func VerifyChain(req *models.ApprovalRequest) error {
	if len(req.Signatures) == 0 {
		return nil
	}
	if req.Document == nil || req.Document.Hash == "" {
		return models.ErrSignatureMismatch("request carries signatures but no document hash")
	}

	for i := range req.Signatures {
		var prev *models.SignatureRecord
		if i > 0 {
			prev = &req.Signatures[i-1]
		}
		expected, err := PayloadForStage(req.Document.Hash, prev)
		if err != nil {
			return err
		}

		link := &req.Signatures[i]
		if link.SignedData != expected {
			return models.ErrSignatureMismatch(fmt.Sprintf(
				"signature %d was not computed over the expected chain payload", i))
		}
		if err := VerifySignature(link.WalletAddress, link.Signature, link.SignedData); err != nil {
			return models.ErrSignatureMismatch(fmt.Sprintf(
				"signature %d by %s is invalid", i, link.SignerEmail))
		}
	}
	return nil
}
