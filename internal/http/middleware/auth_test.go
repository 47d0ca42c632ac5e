package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func authRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(opts))
	r.GET("/me", func(c *gin.Context) {
		uid, _ := UserID(c)
		c.String(http.StatusOK, strconv.FormatUint(uid, 10))
	})
	return r
}

func doGet(r http.Handler, target string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_BearerNumberAndStringClaims(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret})

	num := signToken(t, jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(testSecret))
	if w := doGet(r, "/me", map[string]string{"Authorization": "Bearer " + num}); w.Code != 200 || w.Body.String() != "42" {
		t.Fatalf("numeric claim: %d %q", w.Code, w.Body.String())
	}

	str := signToken(t, jwt.MapClaims{"user_id": "7"}, jwt.SigningMethodHS256, []byte(testSecret))
	if w := doGet(r, "/me", map[string]string{"Authorization": "bearer " + str}); w.Code != 200 || w.Body.String() != "7" {
		t.Fatalf("string claim: %d %q", w.Code, w.Body.String())
	}

	sub := signToken(t, jwt.MapClaims{"sub": "9"}, jwt.SigningMethodHS256, []byte(testSecret))
	if w := doGet(r, "/me?token="+sub, nil); w.Code != 200 || w.Body.String() != "9" {
		t.Fatalf("query token with sub: %d %q", w.Code, w.Body.String())
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	r := authRouter(AuthOptions{Secret: testSecret})

	cases := map[string]string{
		"missing":   "",
		"garbage":   "Bearer not.a.jwt",
		"wrong key": "Bearer " + signToken(t, jwt.MapClaims{"user_id": 1}, jwt.SigningMethodHS256, []byte("other")),
		"expired":   "Bearer " + signToken(t, jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(testSecret)),
		"no user":   "Bearer " + signToken(t, jwt.MapClaims{"username": "x"}, jwt.SigningMethodHS256, []byte(testSecret)),
		"zero user": "Bearer " + signToken(t, jwt.MapClaims{"user_id": 0}, jwt.SigningMethodHS256, []byte(testSecret)),
		"wrong alg": "Bearer " + signToken(t, jwt.MapClaims{"user_id": 1}, jwt.SigningMethodHS512, []byte(testSecret)),
	}
	for name, h := range cases {
		hdr := map[string]string{}
		if h != "" {
			hdr["Authorization"] = h
		}
		if w := doGet(r, "/me", hdr); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestAuthenticate_ProvisionsFromClaims(t *testing.T) {
	var got Identity
	calls := 0
	r := authRouter(AuthOptions{
		Secret: testSecret,
		Provision: func(_ context.Context, id Identity) error {
			calls++
			got = id
			return errors.New("ignored")
		},
	})

	tok := signToken(t, jwt.MapClaims{"user_id": 5, "username": "eve", "email": "eve@example.com"}, jwt.SigningMethodHS256, []byte(testSecret))
	if w := doGet(r, "/me", map[string]string{"Authorization": "Bearer " + tok}); w.Code != 200 {
		t.Fatalf("provision failure must not fail the request, got %d", w.Code)
	}
	if calls != 1 || got.UserID != 5 || got.Username != "eve" || got.Email != "eve@example.com" {
		t.Fatalf("provision calls=%d id=%+v", calls, got)
	}

	bare := signToken(t, jwt.MapClaims{"user_id": 6}, jwt.SigningMethodHS256, []byte(testSecret))
	doGet(r, "/me", map[string]string{"Authorization": "Bearer " + bare})
	if calls != 1 {
		t.Fatalf("tokens without username must not provision, calls=%d", calls)
	}
}

func TestAuthenticate_DevHeaderMode(t *testing.T) {
	r := authRouter(AuthOptions{})
	if w := doGet(r, "/me", map[string]string{"X-User-ID": " 12 "}); w.Code != 200 || w.Body.String() != "12" {
		t.Fatalf("dev header: %d %q", w.Code, w.Body.String())
	}
	for _, v := range []string{"", "abc", "0", "-1"} {
		if w := doGet(r, "/me", map[string]string{"X-User-ID": v}); w.Code != http.StatusUnauthorized {
			t.Fatalf("X-User-ID=%q: expected 401, got %d", v, w.Code)
		}
	}
}

func TestUserIDAndUserKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := UserID(c); ok || userKey(c) != "" {
		t.Fatal("anonymous context should have no user")
	}
	c.Set(ctxKeyUserID, "7") // wrong type
	if _, ok := UserID(c); ok {
		t.Fatal("wrong type must be ignored")
	}
	c.Set(ctxKeyUserID, uint64(7))
	if uid, ok := UserID(c); !ok || uid != 7 || userKey(c) != "7" {
		t.Fatalf("uid=%d ok=%v key=%q", uid, ok, userKey(c))
	}
}
