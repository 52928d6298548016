package main

import (
	"bufio"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"math"
	"math/rand"
	"os"

	"github.com/bpowers/tsvpack/internal/row"
)

const (
	header  = "id\tgroup\tcounter\tscore\tflag\tname\tcity\tcode\tnote\n"
	textLen = 12
)

var (
	nRows = flag.Int("rows", 1000000, "number of rows to generate")
	seed  = flag.Int64("seed", 0, "random seed (0 picks one)")
)

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		_, _ = crand.Read(seedBytes[:])
		seed = int64(binary.LittleEndian.Uint64(seedBytes[:]))
	}
	return rand.New(rand.NewSource(seed))
}

// randText returns a lowercase hex string of up to textLen characters.
func randText(rng *rand.Rand) string {
	var buf [textLen / 2]byte
	n := rng.Intn(len(buf) + 1)
	if _, err := rng.Read(buf[:n]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:n])
}

func main() {
	flag.Parse()
	rng := newRand(*seed)

	w := bufio.NewWriterSize(os.Stdout, 1<<20)
	if _, err := w.WriteString(header); err != nil {
		panic(err)
	}

	// values stay inside the narrow struct columns so every scheme can
	// encode the output
	var line []byte
	for i := 0; i < *nRows; i++ {
		r := row.Row{
			C0: int64(rng.Int31()) - math.MaxInt32/2,
			C1: int64(rng.Intn(math.MaxInt16)),
			C2: rng.Int63(),
			C3: math.Round(rng.NormFloat64()*1e6) / 1e3,
			C4: int64(rng.Intn(2)),
			C5: randText(rng),
			C6: randText(rng),
			C7: randText(rng),
			C8: randText(rng),
		}
		line = r.AppendTSV(line[:0])
		if _, err := w.Write(line); err != nil {
			panic(err)
		}
	}
	if err := w.Flush(); err != nil {
		panic(err)
	}
}
