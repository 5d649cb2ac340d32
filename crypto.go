package flagkit

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	errInvalidEncryptedFormat = errors.New("flagkit: encrypted payload is not in \"<iv>.<ciphertext>\" format")
	errInvalidIVLength        = errors.New("flagkit: invalid IV length")
	errInvalidPadding         = errors.New("flagkit: invalid PKCS7 padding")
)

// decryptFeatures reverses the AES-CBC + PKCS7 encoding used for the
// encryptedFeatures payload (spec §4.6, §6). encKey is the
// base64-encoded AES key; encrypted is "<base64 iv>.<base64
// ciphertext>".
func decryptFeatures(encrypted string, encKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encKey)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(encrypted, ".", 2)
	if len(parts) != 2 {
		return nil, errInvalidEncryptedFormat
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	cipherText, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, errInvalidIVLength
	}
	if len(cipherText) == 0 || len(cipherText)%block.BlockSize() != 0 {
		return nil, errInvalidPadding
	}

	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(cipherText, cipherText)

	return unpad(cipherText)
}

func unpad(buf []byte) ([]byte, error) {
	n := len(buf)
	if n == 0 {
		return nil, errInvalidPadding
	}
	pad := int(buf[n-1])
	if pad == 0 || pad > n || pad > aes.BlockSize {
		return nil, errInvalidPadding
	}
	for _, b := range buf[n-pad : n-1] {
		if int(b) != pad {
			return nil, errInvalidPadding
		}
	}
	return buf[:n-pad], nil
}
