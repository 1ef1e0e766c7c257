// models/signature.go
package models

import "time"

// SignatureRecord is one link of an MOU signature chain. SignedData is
// the exact canonical payload the signer's wallet key signed; for every
// link after the first it references the previous link's signature and
// wallet, forming a tamper-evident chain rooted at the document hash.
type SignatureRecord struct {
	SignerName    string    `bson:"signerName" json:"signerName"`
	SignerEmail   string    `bson:"signerEmail" json:"signerEmail"`
	WalletAddress string    `bson:"walletAddress" json:"walletAddress"`
	Signature     string    `bson:"signature" json:"signature"`
	SignedData    string    `bson:"signedData" json:"signedData"`
	SignedAt      time.Time `bson:"signedAt" json:"signedAt"`
}
