package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusflow/models"
)

type wallet struct {
	pub     ed25519.PublicKey
	priv    ed25519.PrivateKey
	address string
	email   string
}

func newWallet(t *testing.T, email string) *wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &wallet{
		pub:     pub,
		priv:    priv,
		address: "0x" + hex.EncodeToString(pub),
		email:   email,
	}
}

func (w *wallet) sign(payload string) string {
	return "0x" + hex.EncodeToString(ed25519.Sign(w.priv, []byte(payload)))
}

const docHash = "0x9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658"

// signChain appends a valid link for each wallet in turn.
func signChain(t *testing.T, req *models.ApprovalRequest, wallets ...*wallet) {
	t.Helper()
	for _, w := range wallets {
		var prev *models.SignatureRecord
		if n := len(req.Signatures); n > 0 {
			prev = &req.Signatures[n-1]
		}
		payload, err := PayloadForStage(req.Document.Hash, prev)
		require.NoError(t, err)
		req.Signatures = append(req.Signatures, models.SignatureRecord{
			SignerEmail:   w.email,
			WalletAddress: w.address,
			Signature:     w.sign(payload),
			SignedData:    payload,
			SignedAt:      time.Now(),
		})
	}
}

func mouRequest() *models.ApprovalRequest {
	return &models.ApprovalRequest{
		Type:     models.RequestTypeMou,
		Document: &models.Document{Hash: docHash, Filename: "mou.pdf"},
	}
}

func TestPayloadForStage(t *testing.T) {
	t.Run("first signer payload", func(t *testing.T) {
		payload, err := PayloadForStage(docHash, nil)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(`{"documentHash":%q,"firstSigner":true}`, docHash), payload)
	})

	t.Run("chained payload references previous link", func(t *testing.T) {
		prev := &models.SignatureRecord{
			SignerEmail:   "dean@lnmiit.ac.in",
			WalletAddress: "0xabc",
			Signature:     "0xsig1",
		}
		payload, err := PayloadForStage(docHash, prev)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(
			`{"documentHash":%q,"previousSignature":"0xsig1","previousWallet":"0xabc","previousSigner":"dean@lnmiit.ac.in"}`,
			docHash), payload)
	})

	t.Run("requires document hash", func(t *testing.T) {
		_, err := PayloadForStage("", nil)
		require.Error(t, err)
		assert.Equal(t, models.KindValidation, models.KindOf(err))
	})
}

func TestVerifyChain(t *testing.T) {
	signer1 := newWallet(t, "director@lnmiit.ac.in")
	signer2 := newWallet(t, "partner@acme.org")
	signer3 := newWallet(t, "registrar@lnmiit.ac.in")

	t.Run("empty chain is valid", func(t *testing.T) {
		require.NoError(t, VerifyChain(mouRequest()))
	})

	t.Run("full chain verifies", func(t *testing.T) {
		req := mouRequest()
		signChain(t, req, signer1, signer2, signer3)
		require.NoError(t, VerifyChain(req))
	})

	t.Run("tampered signed data breaks the chain", func(t *testing.T) {
		req := mouRequest()
		signChain(t, req, signer1, signer2, signer3)

		for i := range req.Signatures {
			mutated := *req
			mutated.Signatures = append([]models.SignatureRecord{}, req.Signatures...)
			data := []byte(mutated.Signatures[i].SignedData)
			data[len(data)/2] ^= 0x01
			mutated.Signatures[i].SignedData = string(data)

			err := VerifyChain(&mutated)
			require.Error(t, err, "mutating link %d must break verification", i)
			assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
		}
	})

	t.Run("signature by wrong wallet fails", func(t *testing.T) {
		req := mouRequest()
		signChain(t, req, signer1)
		// replace the signature with one from a different key over the same payload
		req.Signatures[0].Signature = signer2.sign(req.Signatures[0].SignedData)

		err := VerifyChain(req)
		require.Error(t, err)
		assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
	})

	t.Run("second payload must reference first signature", func(t *testing.T) {
		req := mouRequest()
		signChain(t, req, signer1)

		// signer2 signs a first-signer payload instead of the chained one
		rogue, err := PayloadForStage(docHash, nil)
		require.NoError(t, err)
		req.Signatures = append(req.Signatures, models.SignatureRecord{
			SignerEmail:   signer2.email,
			WalletAddress: signer2.address,
			Signature:     signer2.sign(rogue),
			SignedData:    rogue,
			SignedAt:      time.Now(),
		})

		err = VerifyChain(req)
		require.Error(t, err)
		assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
	})

	t.Run("signatures without document hash fail", func(t *testing.T) {
		req := mouRequest()
		signChain(t, req, signer1)
		req.Document = nil

		err := VerifyChain(req)
		require.Error(t, err)
		assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
	})
}

func TestVerifySignature(t *testing.T) {
	w := newWallet(t, "director@lnmiit.ac.in")
	payload, err := PayloadForStage(docHash, nil)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, VerifySignature(w.address, w.sign(payload), payload))
	})

	t.Run("malformed wallet", func(t *testing.T) {
		err := VerifySignature("0x1234", w.sign(payload), payload)
		require.Error(t, err)
		assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
	})

	t.Run("malformed signature", func(t *testing.T) {
		err := VerifySignature(w.address, "not-hex", payload)
		require.Error(t, err)
		assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
	})

	t.Run("wrong payload", func(t *testing.T) {
		err := VerifySignature(w.address, w.sign(payload), payload+" ")
		require.Error(t, err)
		assert.Equal(t, models.KindSignatureMismatch, models.KindOf(err))
	})
}
