package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

/*
FieldCipher encrypts individual string fields before they leave the local
store. This is the server-directed encryption step of the sync path, distinct
from the local payload codec.
*/
type FieldCipher interface {
	/*
		EncryptField encrypt one field value

			@param plainText string - the field value
			@returns the encrypted, transport-safe form
	*/
	EncryptField(plainText string) (string, error)

	/*
		DecryptField decrypt one field value

			@param cipherText string - the encrypted form
			@returns the original field value
	*/
	DecryptField(cipherText string) (string, error)
}

// aesGCMFieldCipher implements FieldCipher with AES-256-GCM. The key is
// derived from a passphrase with argon2id; the random nonce is prepended to
// the cipher text before base64 encoding.
type aesGCMFieldCipher struct {
	aead cipher.AEAD
}

/*
NewAESGCMFieldCipher define a new field cipher keyed by a passphrase

	@param passphrase []byte - the passphrase
	@param salt []byte - key derivation salt
	@returns cipher instance
*/
func NewAESGCMFieldCipher(passphrase []byte, salt []byte) (FieldCipher, error) {
	key := argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to define AES cipher [%w]", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to define GCM AEAD [%w]", err)
	}

	return &aesGCMFieldCipher{aead: aead}, nil
}

/*
EncryptField encrypt one field value

	@param plainText string - the field value
	@returns the encrypted, transport-safe form
*/
func (c *aesGCMFieldCipher) EncryptField(plainText string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce [%w]", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

/*
DecryptField decrypt one field value

	@param cipherText string - the encrypted form
	@returns the original field value
*/
func (c *aesGCMFieldCipher) DecryptField(cipherText string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("encrypted field is not valid base64 [%w]", err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", fmt.Errorf("encrypted field shorter than nonce")
	}

	nonce, body := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plainText, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt field [%w]", err)
	}

	return string(plainText), nil
}
