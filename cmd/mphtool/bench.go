// bench.go -- 'bench' command: build a BDZ MPH over synthetic keys and
// report timing, exercising the large-N build path (spec scenario:
// millions of random keys).
//
// (c) Sudhi Herle 2018, 2024
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/opencoff/go-bdzmph"
	"github.com/opencoff/go-fasthash"
	flag "github.com/opencoff/pflag"
)

type benchCommand struct{}

func init() {
	b := benchCommand{}
	registerCommand("bench", &b)
}

func (b *benchCommand) run(args []string, opt *Option) error {
	var n uint
	var gamma float64

	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.UintVarP(&n, "keys", "n", 1000000, "Build a BDZ MPH over `N` synthetic keys")
	fs.Float64VarP(&gamma, "gamma", "g", 1.27, "Use `G` as the vertex/key ratio")
	fs.Usage = func() {
		fmt.Printf(`Usage: bench [options]

Builds a BDZ minimal perfect hash over N deterministically generated keys
and reports the time taken and the resulting index density.

Options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("bench: %w", err)
	}

	keys := make([][]byte, n)
	var seed uint64 = 0xB16B00B5
	for i := range keys {
		h := fasthash.Hash64(seed, []byte(fmt.Sprintf("key-%d", i)))
		keys[i] = []byte(fmt.Sprintf("%016x", h))
	}

	start := time.Now()
	mp, err := mph.NewBuilder().WithConfig(mph.Config{Gamma: gamma, RehashLimit: 16, Salt: seed}).Build(keys)
	if err != nil {
		return fmt.Errorf("bench: build failed: %w", err)
	}
	delta := time.Since(start)

	fmt.Printf("built BDZ over %d keys in %s\n", mp.Len(), delta)
	mp.DumpMeta(os.Stdout)
	return nil
}
