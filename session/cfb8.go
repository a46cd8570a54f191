package session

import "crypto/cipher"

// cfb8Stream implements 8-bit cipher feedback mode (NIST SP 800-38A, s=8)
// over an arbitrary block cipher. Neither the standard library nor any
// library in reach implements CFB8 (crypto/cipher only ever provided
// full-block-width CFB, and that constructor was later removed from the
// standard library entirely); this is hand-rolled on crypto/cipher.Block
// for that reason (see DESIGN.md).
//
// The shift register starts at the IV and, for every byte processed, is
// advanced by dropping its oldest byte and appending the ciphertext byte
// — this holds symmetrically for encryption and decryption, since both
// directions feed back ciphertext, never plaintext.
type cfb8Stream struct {
	block   cipher.Block
	reg     []byte
	scratch []byte
	decrypt bool
}

func newCFB8Stream(block cipher.Block, iv []byte, decrypt bool) *cfb8Stream {
	bs := block.BlockSize()
	if len(iv) != bs {
		panic("session: CFB8 IV length must equal the block size")
	}
	reg := make([]byte, bs)
	copy(reg, iv)
	return &cfb8Stream{
		block:   block,
		reg:     reg,
		scratch: make([]byte, bs),
		decrypt: decrypt,
	}
}

// XORKeyStream implements cipher.Stream.
func (x *cfb8Stream) XORKeyStream(dst, src []byte) {
	for i := range src {
		x.block.Encrypt(x.scratch, x.reg)
		var cipherByte byte
		if x.decrypt {
			cipherByte = src[i]
			dst[i] = cipherByte ^ x.scratch[0]
		} else {
			cipherByte = src[i] ^ x.scratch[0]
			dst[i] = cipherByte
		}
		copy(x.reg, x.reg[1:])
		x.reg[len(x.reg)-1] = cipherByte
	}
}

// NewCFB8Encrypter returns a cipher.Stream that encrypts under CFB8 mode,
// matching the removed stdlib cipher.NewCFBEncrypter shape but for 8-bit
// feedback rather than full-block feedback.
func NewCFB8Encrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8Stream(block, iv, false)
}

// NewCFB8Decrypter returns a cipher.Stream that decrypts under CFB8 mode.
func NewCFB8Decrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8Stream(block, iv, true)
}
