// Package password hashes user passwords with Argon2id. The cost parameters
// come from configuration and are written into every encoded hash, so
// raising them only affects new hashes until NeedsRehash upgrades old ones.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/villadesk/internal/config"
	"golang.org/x/crypto/argon2"
)

const saltLen = 16

// Params are the Argon2id costs recorded in an encoded hash.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

var DefaultParams = Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: 32}

const DefaultMinLength = 8

type Hasher struct {
	params    Params
	minLength int
}

func NewHasher(cfg config.Config) *Hasher {
	p := Params{
		Time:      cfg.Password.Time,
		MemoryKiB: cfg.Password.MemoryKiB,
		Threads:   cfg.Password.Threads,
		KeyLen:    cfg.Password.KeyLen,
	}
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultParams.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.KeyLen < 16 {
		p.KeyLen = DefaultParams.KeyLen
	}
	minLength := cfg.Password.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Hasher{params: p, minLength: minLength}
}

func (h *Hasher) MinLength() int { return h.minLength }

// Acceptable reports whether plain meets the configured length policy.
func (h *Hasher) Acceptable(plain string) bool {
	return len(plain) >= h.minLength
}

func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	p := h.params
	key := argon2.IDKey([]byte(plain), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks plain against an encoded hash using the parameters stored in
// that hash.
func (h *Hasher) Verify(plain, encoded string) bool {
	p, salt, key, ok := decode(encoded)
	if !ok {
		return false
	}
	check := argon2.IDKey([]byte(plain), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(key, check) == 1
}

// NeedsRehash reports whether encoded was produced with other parameters
// than the configured ones.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, _, _, ok := decode(encoded)
	return !ok || p != h.params
}

func decode(encoded string) (Params, []byte, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return Params{}, nil, nil, false
	}

	costs := strings.Split(parts[3], ",")
	if len(costs) != 3 {
		return Params{}, nil, nil, false
	}
	memory, ok := costField(costs[0], "m=", 32)
	if !ok {
		return Params{}, nil, nil, false
	}
	timeCost, ok := costField(costs[1], "t=", 32)
	if !ok {
		return Params{}, nil, nil, false
	}
	threads, ok := costField(costs[2], "p=", 8)
	if !ok || threads == 0 {
		return Params{}, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, false
	}

	return Params{
		Time:      uint32(timeCost),
		MemoryKiB: uint32(memory),
		Threads:   uint8(threads),
		KeyLen:    uint32(len(key)),
	}, salt, key, true
}

func costField(field, prefix string, bits int) (uint64, bool) {
	raw, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, false
	}
	return v, true
}
