// bench measures raw digest throughput of the proof-of-work combiner, the
// quantity that bounds how fast any chain can be mined at a given difficulty.
package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/fractalchain/fractald/pow"
)

func main() {
	runtime.MemProfileRate = 0
	println("Memory profiling disabled.")

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}

	if cfg.CPU {
		dir, err := os.Getwd()
		if err != nil {
			log.Fatal("cant get current dir", err)
		}

		profFilePath := path.Join(dir, "./CPU.prof")
		fmt.Printf("CPU profile: %s\n", profFilePath)

		f, err := os.Create(profFilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()

		println("Cpu profiling enabled and started...")
	}

	newHash, err := pow.HashConstructor(cfg.HashFunc)
	if err != nil {
		log.Fatal(err)
	}

	payload := make([]byte, 48)
	salt := make([]byte, 12)
	if _, err := rand.Read(payload); err != nil {
		panic("no entropy")
	}
	if _, err := rand.Read(salt); err != nil {
		panic("no entropy")
	}

	n := uint64(1) << cfg.N
	fmt.Printf("Computing %d serial %s digests...\n", n, cfg.HashFunc)

	hasher := pow.NewHasherFunc(newHash, payload, salt)

	t1 := time.Now()
	var last pow.Digest
	for nonce := uint64(0); nonce < n; nonce++ {
		last = hasher.Sum(nonce)
	}
	e := time.Since(t1)

	fmt.Printf("Final digest: %s\n", last.Hex())
	fmt.Printf("Computed %d digests in %s (%f)\n", n, e, e.Seconds())
	fmt.Printf("Digests per second: %f\n", float64(n)/e.Seconds())
}
