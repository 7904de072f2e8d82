package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestHashAndCheckPassword(t *testing.T) {
	BcryptCost = 4
	hashed, err := HashPassword("p@ss")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if !CheckPasswordHash("p@ss", hashed) {
		t.Fatalf("should match")
	}
	if CheckPasswordHash("hahaha", hashed) {
		t.Fatalf("should not match")
	}
}

func TestJWTGenerateAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	token, err := tm.GenerateToken("a@b.com", "user-87")
	if err != nil {
		t.Fatalf("gen token err: %v", err)
	}
	uid, err := tm.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if uid != "user-87" {
		t.Fatalf("want user-87 got %q", uid)
	}
}

func TestJWTRejects(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	other, _ := NewTokenManager("another-secret-another-secret-xx", time.Hour).GenerateToken("a@b.com", "u")
	expired, _ := NewTokenManager(testSecret, time.Hour).sign(jwt.MapClaims{
		"userId": "u", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	noUser, _ := tm.sign(jwt.MapClaims{"email": "a@b.com", "exp": time.Now().Add(time.Hour).Unix()})
	numericUser, _ := tm.sign(jwt.MapClaims{"userId": 42, "exp": time.Now().Add(time.Hour).Unix()})
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": other,
		"expired":      expired,
		"no userId":    noUser,
		"numeric user": numericUser,
		"alg none":     none,
	} {
		if _, err := tm.VerifyToken(tok); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func (tm *TokenManager) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func TestCacheInvalidator_Purge(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := NewCacheInvalidator(rdb)

	ctx := context.Background()
	_ = rdb.Set(ctx, ActivityListKeyPrefix+"page=1", "x", 0).Err()
	_ = rdb.Set(ctx, ActivityItemKey("abc"), "x", 0).Err()
	_ = rdb.Set(ctx, ActivityItemKey("abc")+":attendees", "x", 0).Err()
	_ = rdb.Set(ctx, ActivityItemKey("other"), "x", 0).Err()

	if err := inv.PurgeAll(ctx, "abc"); err != nil {
		t.Fatalf("purge: %v", err)
	}

	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != ActivityItemKey("other") {
		t.Fatalf("unexpected keys left: %v", keys)
	}
}
