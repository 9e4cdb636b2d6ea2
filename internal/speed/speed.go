// Package speed benchmarks the cipher backends in internal/cryptocore,
// the way gocryptfs's own "-speed" flag benchmarks its AEAD backends.
package speed

import (
	"crypto/rand"
	"fmt"
	"log"
	"testing"

	"github.com/source-c/cryfs/internal/cryptocore"
	"github.com/source-c/cryfs/internal/data"
)

// blockSize matches the cache's usual payload size for these
// benchmarks; individual runs can ask for other sizes via
// runBlockSizeSpeedTest.
const blockSize = 4096

// Run benchmarks every cipher backend at the default block size and
// prints MB/s for each.
func Run() {
	runBasicSpeedTest()
}

// RunEnhanced additionally benchmarks decryption and block-size scaling.
func RunEnhanced() {
	runBasicSpeedTest()
	fmt.Println()
	runDecryptionSpeedTest()
	fmt.Println()
	runBlockSizeSpeedTest()
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log.Panic("Failed to read random bytes: " + err.Error())
	}
	return b
}

type backend struct {
	name     string
	newCipher func(key []byte) (cryptocore.Cipher, error)
	keySize  int
}

func backends() []backend {
	return []backend{
		{"XChaCha20-Poly1305", func(k []byte) (cryptocore.Cipher, error) { return cryptocore.NewXChaCha20Poly1305(k) }, 32},
		{"AES-128-GCM", func(k []byte) (cryptocore.Cipher, error) { return cryptocore.NewAES128GCM(k) }, 16},
		{"AES-256-GCM-software", func(k []byte) (cryptocore.Cipher, error) { return cryptocore.NewAES256GCMSoftware(k) }, 32},
		{"AES-256-GCM-dispatching", func(k []byte) (cryptocore.Cipher, error) { return cryptocore.NewAES256GCMDispatching(k) }, 32},
		{"AES-256-GCM-hardware", func(k []byte) (cryptocore.Cipher, error) { return cryptocore.NewAES256GCMHardware(k) }, 32},
	}
}

func mbPerSec(r testing.BenchmarkResult) float64 {
	if r.Bytes <= 0 || r.T <= 0 || r.N <= 0 {
		return 0
	}
	return (float64(r.Bytes) * float64(r.N) / 1e6) / r.T.Seconds()
}

func runBasicSpeedTest() {
	testing.Init()
	for _, b := range backends() {
		fmt.Printf("%-26s\t", b.name)
		c, err := b.newCipher(randBytes(b.keySize))
		if err != nil {
			fmt.Printf("    N/A (%v)\n", err)
			continue
		}
		mbs := mbPerSec(testing.Benchmark(func(tb *testing.B) { bEncrypt(tb, c, blockSize) }))
		if mbs > 0 {
			fmt.Printf("%7.2f MB/s\n", mbs)
		} else {
			fmt.Printf("    N/A\n")
		}
	}
}

func runDecryptionSpeedTest() {
	fmt.Println("Decryption Performance:")
	fmt.Println("======================")

	testing.Init()
	for _, b := range backends() {
		fmt.Printf("%-26s\t", b.name+" (decrypt)")
		c, err := b.newCipher(randBytes(b.keySize))
		if err != nil {
			fmt.Printf("    N/A (%v)\n", err)
			continue
		}
		mbs := mbPerSec(testing.Benchmark(func(tb *testing.B) { bDecrypt(tb, c, blockSize) }))
		if mbs > 0 {
			fmt.Printf("%7.2f MB/s\n", mbs)
		} else {
			fmt.Printf("    N/A\n")
		}
	}
}

func runBlockSizeSpeedTest() {
	fmt.Println("Block Size Scaling (AES-256-GCM-dispatching):")
	fmt.Println("==============================================")

	c, err := cryptocore.NewAES256GCMDispatching(randBytes(32))
	if err != nil {
		fmt.Printf("    N/A (%v)\n", err)
		return
	}

	sizes := []int{1024, 4096, 16384, 65536, 262144, 1048576}
	testing.Init()
	for _, size := range sizes {
		fmt.Printf("%-8d bytes\t", size)
		mbs := mbPerSec(testing.Benchmark(func(tb *testing.B) { bEncrypt(tb, c, size) }))
		if mbs > 0 {
			fmt.Printf("%7.2f MB/s\n", mbs)
		} else {
			fmt.Printf("    N/A\n")
		}
	}
}

func bEncrypt(b *testing.B, c cryptocore.Cipher, size int) {
	plain := randBytes(size)
	b.SetBytes(int64(size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d := data.NewWithReservation(size, c.CiphertextOverheadPrefix(), c.CiphertextOverheadSuffix())
		copy(d.AsMut(), plain)
		if _, err := c.Encrypt(d); err != nil {
			b.Fatal(err)
		}
	}
}

func bDecrypt(b *testing.B, c cryptocore.Cipher, size int) {
	plain := randBytes(size)
	d := data.NewWithReservation(size, c.CiphertextOverheadPrefix(), c.CiphertextOverheadSuffix())
	copy(d.AsMut(), plain)
	ciphertext, err := c.Encrypt(d)
	if err != nil {
		b.Fatal(err)
	}
	raw := ciphertext.IntoBytes()

	b.SetBytes(int64(size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cp := make([]byte, len(raw))
		copy(cp, raw)
		if _, err := c.Decrypt(data.FromBytes(cp)); err != nil {
			b.Fatal(err)
		}
	}
}
