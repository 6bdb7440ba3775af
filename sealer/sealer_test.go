package sealer_test

import (
	"testing"

	"github.com/alcovedb/alcove/sealer"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestBase64PayloadCodec(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut := sealer.NewBase64PayloadCodec()

	// -------------------------------------------------------------------------
	// 1 – A structured payload survives the seal / open round trip
	payload := map[string]any{
		"score": float64(7),
		"note":  "slept well",
		"tags":  []any{"morning", "weekend"},
	}

	sealed, err := uut.Seal(payload)
	assert.Nil(err)
	assert.NotEmpty(sealed)

	var opened map[string]any
	assert.Nil(uut.Open(sealed, &opened))
	assert.Equal(payload, opened)

	// 2 – The sealed form is opaque, not the raw serialization
	assert.NotContains(sealed, "slept well")

	// -------------------------------------------------------------------------
	// 3 – Garbage input does not open
	assert.Error(uut.Open("not valid base64 !!", &opened))
}

func TestAESGCMFieldCipher(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut, err := sealer.NewAESGCMFieldCipher([]byte("unit-test-passphrase"), []byte("unit-test-salt"))
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – A field value survives the encrypt / decrypt round trip
	plainText := "drink more water"

	cipherText, err := uut.EncryptField(plainText)
	assert.Nil(err)
	assert.NotEqual(plainText, cipherText)

	recovered, err := uut.DecryptField(cipherText)
	assert.Nil(err)
	assert.Equal(plainText, recovered)

	// 2 – A fresh nonce per call makes repeated encryptions differ
	cipherText2, err := uut.EncryptField(plainText)
	assert.Nil(err)
	assert.NotEqual(cipherText, cipherText2)

	recovered2, err := uut.DecryptField(cipherText2)
	assert.Nil(err)
	assert.Equal(plainText, recovered2)

	// -------------------------------------------------------------------------
	// 3 – Tampered and malformed inputs fail to decrypt
	_, err = uut.DecryptField("AAAA" + cipherText[4:])
	assert.Error(err)

	_, err = uut.DecryptField("not valid base64 !!")
	assert.Error(err)

	_, err = uut.DecryptField("AAAA")
	assert.Error(err)

	// 4 – A cipher keyed by a different passphrase cannot read the field
	other, err := sealer.NewAESGCMFieldCipher([]byte("another-passphrase"), []byte("unit-test-salt"))
	assert.Nil(err)
	_, err = other.DecryptField(cipherText)
	assert.Error(err)
}
