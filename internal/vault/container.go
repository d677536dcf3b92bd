package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dpshade/prompt-vault/internal/crypto"
	"github.com/dpshade/prompt-vault/internal/errs"
)

// On-disk container layout (all integers big-endian):
//
//	magic        [4]byte  "PVLT"
//	version      uint8    format version, currently 1
//	key mode     uint8    1 = password-derived key, 2 = key file
//	kdf time     uint32   Argon2id passes
//	kdf memory   uint32   Argon2id memory, KiB
//	kdf threads  uint8
//	salt         [16]byte KDF salt (zero in key-file mode)
//	nonce        [12]byte GCM nonce for the payload
//	ciphertext   ...      sealed collection, GCM tag appended
//
// The header is cleartext but carries no secret material; the ciphertext is
// the full serialized collection under one authentication tag.
var containerMagic = [4]byte{'P', 'V', 'L', 'T'}

const containerVersion = 1

// KeyMode records how the vault key is obtained.
type KeyMode uint8

const (
	// KeyModePassword derives the key from a master password and the header salt.
	KeyModePassword KeyMode = 1
	// KeyModeKeyFile reads a raw random key from a local key file.
	KeyModeKeyFile KeyMode = 2
)

type container struct {
	Mode       KeyMode
	Params     crypto.Params
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

func encodeContainer(c *container) []byte {
	buf := new(bytes.Buffer)
	buf.Write(containerMagic[:])
	buf.WriteByte(containerVersion)
	buf.WriteByte(byte(c.Mode))
	binary.Write(buf, binary.BigEndian, c.Params.Time)
	binary.Write(buf, binary.BigEndian, c.Params.Memory)
	buf.WriteByte(c.Params.Threads)
	buf.Write(c.Salt)
	buf.Write(c.Nonce)
	buf.Write(c.Ciphertext)
	return buf.Bytes()
}

func decodeContainer(data []byte) (*container, error) {
	const headerLen = 4 + 1 + 1 + 4 + 4 + 1 + crypto.SaltSize + crypto.NonceSize
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: file too short", errs.ErrCorruptContainer)
	}
	if !bytes.Equal(data[:4], containerMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", errs.ErrCorruptContainer)
	}
	if data[4] != containerVersion {
		return nil, fmt.Errorf("%w: version %d", errs.ErrUnsupportedFormat, data[4])
	}
	mode := KeyMode(data[5])
	if mode != KeyModePassword && mode != KeyModeKeyFile {
		return nil, fmt.Errorf("%w: unknown key mode %d", errs.ErrCorruptContainer, data[5])
	}

	c := &container{Mode: mode}
	c.Params.Time = binary.BigEndian.Uint32(data[6:10])
	c.Params.Memory = binary.BigEndian.Uint32(data[10:14])
	c.Params.Threads = data[14]

	off := 15
	c.Salt = append([]byte(nil), data[off:off+crypto.SaltSize]...)
	off += crypto.SaltSize
	c.Nonce = append([]byte(nil), data[off:off+crypto.NonceSize]...)
	off += crypto.NonceSize
	c.Ciphertext = append([]byte(nil), data[off:]...)
	return c, nil
}
