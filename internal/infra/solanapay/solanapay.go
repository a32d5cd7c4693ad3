// Package solanapay builds Solana Pay transfer requests: a unique reference
// key per payment and the solana: URL a wallet scans. Settlement itself is
// verified off-process; the console only tracks the reference.
package solanapay

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mr-tron/base58"
)

// NewReference returns a fresh base58-encoded 32-byte reference, the shape
// of a Solana public key. It is globally unique for ledger purposes.
func NewReference() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("solanapay: generate reference: %w", err)
	}
	return base58.Encode(buf), nil
}

// Request describes one transfer request.
type Request struct {
	Recipient string
	Amount    float64
	SPLToken  string
	Reference string
	Label     string
	Message   string
	Memo      string
}

// EncodeURL renders the request as a Solana Pay URL
// (solana:<recipient>?amount=...&reference=...).
func EncodeURL(req Request) string {
	params := url.Values{}
	params.Set("amount", strconv.FormatFloat(req.Amount, 'f', -1, 64))
	if req.SPLToken != "" {
		params.Set("spl-token", req.SPLToken)
	}
	if req.Reference != "" {
		params.Set("reference", req.Reference)
	}
	if req.Label != "" {
		params.Set("label", req.Label)
	}
	if req.Message != "" {
		params.Set("message", req.Message)
	}
	if req.Memo != "" {
		params.Set("memo", req.Memo)
	}
	return "solana:" + req.Recipient + "?" + params.Encode()
}
