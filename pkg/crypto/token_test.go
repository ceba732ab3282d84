package crypto

import "testing"

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	if first == "" || second == "" {
		t.Fatal("expected non-empty tokens")
	}
	if first == second {
		t.Fatal("expected distinct tokens")
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	a := HashToken("invite-token")
	b := HashToken("invite-token")
	if a != b {
		t.Fatal("expected stable hash for identical input")
	}
	if a == HashToken("other-token") {
		t.Fatal("expected different hashes for different inputs")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 length 64, got %d", len(a))
	}
}
