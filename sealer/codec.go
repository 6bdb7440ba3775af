// Package sealer - payload sealing and field-level encryption
package sealer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

/*
PayloadCodec seals arbitrary JSON-compatible payloads into opaque strings for
storage in EncryptedData records.

The base64 codec is a reversible placeholder, not cryptography; encryption at
rest with real key material is a deployment concern layered on this seam.
*/
type PayloadCodec interface {
	/*
		Seal serialize and encode a payload

			@param payload any - JSON-compatible payload
			@returns the opaque sealed string
	*/
	Seal(payload any) (string, error)

	/*
		Open decode a sealed string back into a payload

			@param sealed string - the sealed string
			@param out any - decode target
	*/
	Open(sealed string, out any) error
}

// base64Codec implements PayloadCodec with JSON + base64 encoding
type base64Codec struct{}

/*
NewBase64PayloadCodec define the placeholder payload codec

	@returns codec instance
*/
func NewBase64PayloadCodec() PayloadCodec {
	return &base64Codec{}
}

/*
Seal serialize and encode a payload

	@param payload any - JSON-compatible payload
	@returns the opaque sealed string
*/
func (c *base64Codec) Seal(payload any) (string, error) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payload does not serialize [%w]", err)
	}
	return base64.StdEncoding.EncodeToString(serialized), nil
}

/*
Open decode a sealed string back into a payload

	@param sealed string - the sealed string
	@param out any - decode target
*/
func (c *base64Codec) Open(sealed string, out any) error {
	serialized, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return fmt.Errorf("sealed payload is not valid base64 [%w]", err)
	}
	if err := json.Unmarshal(serialized, out); err != nil {
		return fmt.Errorf("sealed payload does not deserialize [%w]", err)
	}
	return nil
}
