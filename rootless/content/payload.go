package content

import (
	"strconv"

	"github.com/RootlessNet/protocol/rootless/crypto"
)

const (
	cidPrefix  = "bafk"
	cidHashLen = 16
)

// AddressingPayload is author ":" body ":" created_at.
func AddressingPayload(author, body string, createdAt uint64) []byte {
	return []byte(author + ":" + body + ":" + strconv.FormatUint(createdAt, 10))
}

// SigningPayload is cid ":" author ":" body ":" created_at.
func SigningPayload(cid, author, body string, createdAt uint64) []byte {
	return []byte(cid + ":" + author + ":" + body + ":" + strconv.FormatUint(createdAt, 10))
}

// ComputeCID returns "bafk" + base58 of the first 16 bytes of the BLAKE3
// hash of the addressing payload.
func ComputeCID(author, body string, createdAt uint64) string {
	return cidPrefix + crypto.EncodeBase58(crypto.ShortHash(AddressingPayload(author, body, createdAt), cidHashLen))
}
