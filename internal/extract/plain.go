package extract

import (
	"io"
	"iter"
)

// Plain reads fixed-size byte chunks and decodes each as UTF-8 with a
// permissive 8-bit fallback. It is the default extractor for unknown types.
func Plain(r io.Reader, chunkSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		buf := make([]byte, chunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if !yield(decodePermissive(buf[:n])) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("Error reading plaintext file: " + err.Error())
				return
			}
		}
	}
}
