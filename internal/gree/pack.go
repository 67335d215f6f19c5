package gree

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Envelope constants for protocol version 1.
const (
	envelopeCID  = "app"
	envelopeType = "pack"
)

// envelope is the outer JSON object of every datagram. Its pack field holds
// the base64 of the AES-128-ECB encrypted inner object.
type envelope struct {
	CID  string `json:"cid"`
	I    int    `json:"i"`
	T    string `json:"t"`
	UID  int    `json:"uid"`
	TCID string `json:"tcid"`
	Pack string `json:"pack"`
}

// Inner request and reply payloads.
type (
	statusRequest struct {
		T    string   `json:"t"`
		MAC  string   `json:"mac"`
		Cols []string `json:"cols"`
	}

	statusReply struct {
		T    string            `json:"t"`
		MAC  string            `json:"mac"`
		R    int               `json:"r"`
		Cols []string          `json:"cols"`
		Dat  []json.RawMessage `json:"dat"`
	}

	commandRequest struct {
		T   string   `json:"t"`
		Opt []string `json:"opt"`
		P   []Value  `json:"p"`
	}

	commandReply struct {
		T   string            `json:"t"`
		MAC string            `json:"mac"`
		R   int               `json:"r"`
		Opt []string          `json:"opt"`
		P   []json.RawMessage `json:"p"`
		Val []json.RawMessage `json:"val"`
	}
)

// Inner payload discriminators.
const (
	typeStatus  = "status"
	typeData    = "dat"
	typeCommand = "cmd"
	typeResult  = "res"

	statusOK = 200
)

// seal encrypts inner and wraps it in an outer envelope addressed to id.
func seal(key []byte, id string, inner any) ([]byte, error) {
	plain, err := json.Marshal(inner)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %w", ErrInvalidRequest, err)
	}
	pack, err := encrypt(key, plain)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		CID:  envelopeCID,
		I:    0,
		T:    envelopeType,
		UID:  0,
		TCID: id,
		Pack: pack,
	})
}

// open parses an outer envelope and returns its decrypted inner JSON.
func open(key, datagram []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(datagram, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %w", ErrProtocol, err)
	}
	if env.T != envelopeType {
		return nil, fmt.Errorf("%w: envelope type %q", ErrProtocol, env.T)
	}
	if env.Pack == "" {
		return nil, fmt.Errorf("%w: envelope has no pack", ErrProtocol)
	}
	inner, err := decrypt(key, env.Pack)
	if err != nil {
		return nil, err
	}
	if !json.Valid(inner) {
		return nil, fmt.Errorf("%w: pack is not JSON", ErrProtocol)
	}
	return inner, nil
}

// encrypt returns base64(AES-ECB(key, PKCS#7(plain))).
func encrypt(key, plain []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	bs := block.BlockSize()

	pad := bs - len(plain)%bs
	buf := make([]byte, len(plain)+pad)
	copy(buf, plain)
	copy(buf[len(plain):], bytes.Repeat([]byte{byte(pad)}, pad))

	for off := 0; off < len(buf); off += bs {
		block.Encrypt(buf[off:off+bs], buf[off:off+bs])
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// decrypt reverses encrypt. Bad base64, a partial block or invalid padding
// is a protocol error.
func decrypt(key []byte, pack string) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	bs := block.BlockSize()

	buf, err := base64.StdEncoding.DecodeString(pack)
	if err != nil {
		return nil, fmt.Errorf("%w: pack: %w", ErrProtocol, err)
	}
	if len(buf) == 0 || len(buf)%bs != 0 {
		return nil, fmt.Errorf("%w: pack length %d is not a multiple of %d", ErrProtocol, len(buf), bs)
	}

	for off := 0; off < len(buf); off += bs {
		block.Decrypt(buf[off:off+bs], buf[off:off+bs])
	}

	pad := int(buf[len(buf)-1])
	if pad == 0 || pad > bs {
		return nil, fmt.Errorf("%w: bad padding", ErrProtocol)
	}
	for _, b := range buf[len(buf)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: bad padding", ErrProtocol)
		}
	}
	return buf[:len(buf)-pad], nil
}
