package idgen

import (
	"strings"
	"testing"
	"time"
)

func TestEncodeBase36Length(t *testing.T) {
	for _, length := range []int{3, 4, 6, 8} {
		got := EncodeBase36([]byte{0xde, 0xad, 0xbe, 0xef}, length)
		if len(got) != length {
			t.Errorf("length %d: got %q (len %d)", length, got, len(got))
		}
	}
}

func TestEncodeBase36ZeroPadding(t *testing.T) {
	got := EncodeBase36([]byte{0x01}, 4)
	if !strings.HasPrefix(got, "000") {
		t.Errorf("expected zero padding, got %q", got)
	}
}

func TestGenerateIssueIDFormat(t *testing.T) {
	now := time.Now()
	id := GenerateIssueID("tm", "Fix login crash", "alice", now, 0)
	if !strings.HasPrefix(id, "tm-") {
		t.Errorf("expected tm- prefix, got %q", id)
	}
	if len(id) != len("tm-")+DefaultIDLength {
		t.Errorf("unexpected ID length: %q", id)
	}
}

func TestGenerateIssueIDNonceChangesID(t *testing.T) {
	now := time.Now()
	a := GenerateIssueID("tm", "Same title", "alice", now, 0)
	b := GenerateIssueID("tm", "Same title", "alice", now, 1)
	if a == b {
		t.Errorf("nonce did not change ID: %q", a)
	}
}
