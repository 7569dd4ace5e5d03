package password

import (
	"strings"
	"testing"

	"github.com/smallbiznis/villadesk/internal/config"
)

func cheapConfig() config.Config {
	return config.Config{Password: config.PasswordConfig{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLen: 32, MinLength: 10}}
}

func TestHashVerify(t *testing.T) {
	h := NewHasher(cheapConfig())

	encoded, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !h.Verify("s3cret-pass", encoded) {
		t.Fatal("expected password to verify")
	}
	if h.Verify("wrong", encoded) {
		t.Fatal("expected wrong password to fail")
	}
	if h.NeedsRehash(encoded) {
		t.Fatal("fresh hash should match the configured parameters")
	}
}

func TestHashesSurviveParameterChange(t *testing.T) {
	old := NewHasher(cheapConfig())
	encoded, err := old.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cfg := cheapConfig()
	cfg.Password.Time = 2
	current := NewHasher(cfg)
	if !current.Verify("s3cret-pass", encoded) {
		t.Fatal("hash made with older costs must still verify")
	}
	if !current.NeedsRehash(encoded) {
		t.Fatal("expected older costs to need a rehash")
	}
}

func TestNewHasherFillsDefaults(t *testing.T) {
	h := NewHasher(config.Config{})
	if h.params != DefaultParams {
		t.Fatalf("params = %+v, want %+v", h.params, DefaultParams)
	}
	if h.MinLength() != DefaultMinLength {
		t.Fatalf("min length = %d", h.MinLength())
	}
}

func TestAcceptable(t *testing.T) {
	h := NewHasher(cheapConfig())
	if h.Acceptable("short-pw") {
		t.Fatal("expected 8 characters to be rejected with a minimum of 10")
	}
	if !h.Acceptable("long-enough") {
		t.Fatal("expected 11 characters to pass")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	h := NewHasher(cheapConfig())
	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$a$b",
		"$argon2id$v=19$m=x,t=1,p=1$a$b",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdA$a2V5",
	} {
		if h.Verify("anything", encoded) {
			t.Fatalf("expected %q to be rejected", encoded)
		}
		if !h.NeedsRehash(encoded) {
			t.Fatalf("expected %q to need a rehash", encoded)
		}
	}
}
