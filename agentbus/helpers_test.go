package agentbus_test

import (
	"bytes"
	"os"
	"testing"
)

func readLog(t *testing.T, path string) [][]byte {
	t.Helper()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n"))
}
