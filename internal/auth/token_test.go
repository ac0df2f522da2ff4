package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub:   "user-1",
		Name:  "ada",
		Email: "ada@example.com",
		JTI:   "jti-1",
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := ParseToken(secret, issued)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Sub != "user-1" || claims.Name != "ada" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		Sub: "user-1",
		JTI: "jti-1",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	_, err = ParseToken(secret, issued)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("ParseToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{Sub: "user-1", JTI: "jti-1", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	cases := map[string]string{
		"wrong secret":  issued,
		"no signature":  strings.Split(issued, ".")[0],
		"bad signature": strings.Split(issued, ".")[0] + ".abc",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			key := secret
			if name == "wrong secret" {
				key = []byte("other")
			}
			if _, err := ParseToken(key, token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestParseTokenRequiresSubject(t *testing.T) {
	secret := []byte("secret")
	issued, _ := IssueToken(secret, Claims{JTI: "jti-1", Exp: time.Now().Add(time.Hour).Unix()})
	if _, err := ParseToken(secret, issued); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ParseToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") || HashToken("abc") == HashToken("abd") {
		t.Fatal("HashToken must be deterministic and distinguish inputs")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("unexpected hash length %d", len(HashToken("abc")))
	}
}
