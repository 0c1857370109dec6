// +build gofuzz

package pickle

import (
	"crypto/sha1"
	"fmt"
	"log"
	"os"
	"testing"
)

// TestFuzzGenerate is not a test - it seeds fuzz/corpus from decodeTests so
// the gofuzz harness starts from known pickles instead of nothing. It is
// implemented as a test because we need the package's _test.go files linked
// in to reach decodeTests.
//
// Run with go test -run TestFuzzGenerate -tags gofuzz.
func TestFuzzGenerate(t *testing.T) {
	if err := os.MkdirAll("fuzz/corpus", 0777); err != nil {
		log.Fatal(err)
	}
	for _, tt := range decodeTests {
		if tt.err {
			continue
		}
		name := fmt.Sprintf("fuzz/corpus/test-%x.pickle", sha1.Sum([]byte(tt.data)))
		if err := os.WriteFile(name, []byte(tt.data), 0666); err != nil {
			log.Fatal(err)
		}
	}
}
