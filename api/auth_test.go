package api

import (
	"testing"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"taskboard-api/domain"
)

const testSecret = "unit-test-secret"

func newTestAuth(t *testing.T, audience, issuer string) *Auth {
	t.Helper()
	t.Setenv(envAuthTestMode, "1")
	t.Setenv(envTestJWTSecret, testSecret)
	return NewAuth(nil, audience, issuer)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestActorFromAuthHeader(t *testing.T) {
	a := newTestAuth(t, "", "")
	token := signToken(t, jwt.MapClaims{
		"sub":          "user-1",
		"exp":          time.Now().Add(time.Hour).Unix(),
		claimActorKind: "admin",
		claimActorRole: "super_admin",
	})

	actor, err := a.ActorFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if actor.ID != "user-1" || actor.Kind != domain.ActorKindAdmin || actor.Role != domain.RoleSuperAdmin {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestActorDefaultsWithoutCustomClaims(t *testing.T) {
	a := newTestAuth(t, "", "")
	token := signToken(t, jwt.MapClaims{
		"sub": "user-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	actor, err := a.ActorFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if actor.Kind != domain.ActorKindStartup || actor.Role != domain.RoleMember {
		t.Fatalf("defaults = %+v", actor)
	}
}

func TestRejectsBadHeaders(t *testing.T) {
	a := newTestAuth(t, "", "")

	if _, err := a.ActorFromAuthHeader(""); err == nil {
		t.Fatal("empty header accepted")
	}
	if _, err := a.ActorFromAuthHeader("Basic abc"); err == nil {
		t.Fatal("non-bearer scheme accepted")
	}
	if _, err := a.ActorFromAuthHeader("Bearer not-a-jwt"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestRejectsExpiredToken(t *testing.T) {
	a := newTestAuth(t, "", "")
	token := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := a.ActorFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestRejectsMissingSubject(t *testing.T) {
	a := newTestAuth(t, "", "")
	token := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := a.ActorFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("token without sub accepted")
	}
}

func TestVerifiesAudienceAndIssuer(t *testing.T) {
	a := newTestAuth(t, "taskboard-api", "https://issuer.example")

	good := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"aud": "taskboard-api",
		"iss": "https://issuer.example",
	})
	if _, err := a.ActorFromAuthHeader("Bearer " + good); err != nil {
		t.Fatalf("matching aud/iss rejected: %v", err)
	}

	badAud := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"aud": "someone-else",
		"iss": "https://issuer.example",
	})
	if _, err := a.ActorFromAuthHeader("Bearer " + badAud); err == nil {
		t.Fatal("wrong audience accepted")
	}

	badIss := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"aud": "taskboard-api",
		"iss": "https://rogue.example",
	})
	if _, err := a.ActorFromAuthHeader("Bearer " + badIss); err == nil {
		t.Fatal("wrong issuer accepted")
	}
}

func TestKeyForTokenServesCachedKey(t *testing.T) {
	a := &Auth{JWKS: &keyfunc.JWKS{}, keyCacheTTL: time.Minute}
	a.keyCache.Store("kid-1", cachedKey{key: "cached-key", expiresAt: time.Now().Add(time.Minute)})

	key, err := a.keyForToken(&jwt.Token{Header: map[string]any{"kid": "kid-1"}})
	if err != nil {
		t.Fatalf("cached kid: %v", err)
	}
	if key != "cached-key" {
		t.Fatalf("key = %v, want the cached entry", key)
	}
}

func TestKeyForTokenDropsExpiredEntry(t *testing.T) {
	a := &Auth{JWKS: &keyfunc.JWKS{}, keyCacheTTL: time.Minute}
	a.keyCache.Store("kid-1", cachedKey{key: "stale-key", expiresAt: time.Now().Add(-time.Minute)})

	// The empty JWKS holds no keys, so a fallthrough lookup must fail
	// rather than serve the stale entry.
	if _, err := a.keyForToken(&jwt.Token{Header: map[string]any{"kid": "kid-1"}}); err == nil {
		t.Fatal("stale cache entry served")
	}
	if _, ok := a.keyCache.Load("kid-1"); ok {
		t.Fatal("stale entry still cached")
	}
}

func TestKeyForTokenRequiresJWKS(t *testing.T) {
	a := &Auth{}
	if _, err := a.keyForToken(&jwt.Token{Header: map[string]any{}}); err == nil {
		t.Fatal("nil JWKS accepted")
	}
}

func TestRejectsWrongSecret(t *testing.T) {
	a := newTestAuth(t, "", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := a.ActorFromAuthHeader("Bearer " + token); err == nil {
		t.Fatal("token signed with foreign secret accepted")
	}
}
