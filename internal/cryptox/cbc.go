package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
)

// IVSize is the length of the CBC initialization vector.
const IVSize = aes.BlockSize

const readChunkSize = 32 * 1024

var (
	ErrInvalidPadding    = errors.New("cryptox: invalid PKCS#7 padding")
	ErrInvalidCiphertext = errors.New("cryptox: ciphertext is not a whole number of blocks")
)

// PKCS7Pad returns b padded to a multiple of blockSize. A full block of
// padding is added when len(b) is already aligned.
func PKCS7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// PKCS7Unpad strips PKCS#7 padding from b.
func PKCS7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrInvalidPadding
		}
	}
	return b[:len(b)-n], nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("cryptox: iv must be %d bytes, got %d", IVSize, len(iv))
	}
	return aes.NewCipher(key)
}

// CBCWriter encrypts everything written to it with AES-CBC and forwards
// whole ciphertext blocks to the underlying writer. Close writes the final
// padded block; it does not close the underlying writer.
type CBCWriter struct {
	dst    io.Writer
	mode   cipher.BlockMode
	buf    []byte
	closed bool
}

// NewCBCWriter returns a CBCWriter for a 32-byte key and a 16-byte iv.
func NewCBCWriter(dst io.Writer, key, iv []byte) (*CBCWriter, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	return &CBCWriter{dst: dst, mode: cipher.NewCBCEncrypter(block, iv)}, nil
}

func (w *CBCWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("cryptox: write to closed CBCWriter")
	}

	w.buf = append(w.buf, p...)
	n := len(w.buf) - len(w.buf)%aes.BlockSize
	if n == 0 {
		return len(p), nil
	}

	out := make([]byte, n)
	w.mode.CryptBlocks(out, w.buf[:n])
	if _, err := w.dst.Write(out); err != nil {
		return 0, err
	}
	w.buf = append(w.buf[:0], w.buf[n:]...)

	return len(p), nil
}

// Close pads and encrypts the buffered tail. Calling Close more than once
// is a no-op.
func (w *CBCWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	padded := PKCS7Pad(w.buf, aes.BlockSize)
	out := make([]byte, len(padded))
	w.mode.CryptBlocks(out, padded)
	w.buf = nil

	_, err := w.dst.Write(out)
	return err
}

// CBCReader decrypts an AES-CBC stream produced by CBCWriter. The last block
// is held back until the source is exhausted so that padding can be checked.
// A stream whose length is not a positive multiple of the block size fails
// with ErrInvalidCiphertext; bad padding fails with ErrInvalidPadding.
type CBCReader struct {
	src  io.Reader
	mode cipher.BlockMode
	tmp  []byte
	buf  []byte
	out  []byte
	err  error
}

// NewCBCReader returns a CBCReader for a 32-byte key and a 16-byte iv.
func NewCBCReader(src io.Reader, key, iv []byte) (*CBCReader, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	return &CBCReader{
		src:  src,
		mode: cipher.NewCBCDecrypter(block, iv),
		tmp:  make([]byte, readChunkSize),
	}, nil
}

func (r *CBCReader) Read(p []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

func (r *CBCReader) fill() {
	n, err := r.src.Read(r.tmp)
	r.buf = append(r.buf, r.tmp[:n]...)

	if errors.Is(err, io.EOF) {
		r.finish()
		return
	}
	if err != nil {
		r.err = err
		return
	}

	// keep the last (possibly partial) block until EOF
	keep := len(r.buf) % aes.BlockSize
	if keep == 0 {
		keep = aes.BlockSize
	}
	ready := len(r.buf) - keep
	if ready <= 0 {
		return
	}

	plain := make([]byte, ready)
	r.mode.CryptBlocks(plain, r.buf[:ready])
	r.buf = append(r.buf[:0], r.buf[ready:]...)
	r.out = plain
}

func (r *CBCReader) finish() {
	if len(r.buf) == 0 || len(r.buf)%aes.BlockSize != 0 {
		r.err = ErrInvalidCiphertext
		return
	}

	plain := make([]byte, len(r.buf))
	r.mode.CryptBlocks(plain, r.buf)
	r.buf = nil

	unpadded, err := PKCS7Unpad(plain[len(plain)-aes.BlockSize:], aes.BlockSize)
	if err != nil {
		r.err = err
		return
	}
	r.out = append(plain[:len(plain)-aes.BlockSize], unpadded...)
	r.err = io.EOF
}
