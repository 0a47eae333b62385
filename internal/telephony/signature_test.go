package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const (
	testAuthToken = "12345"
	testBaseURL   = "https://hooks.example.com"
)

// sign computes the Twilio webhook signature: base64(HMAC-SHA1(url + sorted key/value pairs)).
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/twilio/voice", RequireTwilioSignature(testAuthToken, testBaseURL), func(c *gin.Context) {
		c.String(http.StatusOK, c.PostForm("To"))
	})
	return r
}

func signedRequest(form url.Values, sig string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sig != "" {
		req.Header.Set(headerTwilioSignature, sig)
	}
	return req
}

func TestRequireTwilioSignature_Valid(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "From": {"+15551230000"}, "To": {"+15550001111"}}
	sig := sign(testAuthToken, testBaseURL+"/webhooks/twilio/voice", form)

	w := httptest.NewRecorder()
	signedRouter().ServeHTTP(w, signedRequest(form, sig))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// the form must still be readable downstream
	if w.Body.String() != "+15550001111" {
		t.Fatalf("expected downstream form access, got %q", w.Body.String())
	}
}

func TestRequireTwilioSignature_Tampered(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}, "To": {"+15550001111"}}
	sig := sign(testAuthToken, testBaseURL+"/webhooks/twilio/voice", form)
	form.Set("To", "+15559999999")

	w := httptest.NewRecorder()
	signedRouter().ServeHTTP(w, signedRequest(form, sig))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireTwilioSignature_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	signedRouter().ServeHTTP(w, signedRequest(url.Values{"To": {"+15550001111"}}, ""))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
