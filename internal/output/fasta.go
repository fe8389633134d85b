package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/vibe-gene/internal/genome"
)

// FASTALineWidth is the number of bases per sequence line.
const FASTALineWidth = 60

// WriteFASTA writes a sequence window as a single FASTA record. The header
// carries the assembly and the 1-based inclusive range that was requested.
func WriteFASTA(w io.Writer, genomeID, chrom string, res genome.SequenceResult) error {
	if !res.OK() {
		return fmt.Errorf("sequence unavailable: %s", res.Error)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, ">%s %s:%d-%d\n", genomeID, chrom, res.ActualRange.Start, res.ActualRange.End)

	seq := res.Sequence
	for len(seq) > 0 {
		n := min(FASTALineWidth, len(seq))
		bw.WriteString(seq[:n])
		bw.WriteByte('\n')
		seq = seq[n:]
	}
	return bw.Flush()
}
