package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "testsecret"
	testTimestamp = "1700000000"
	testBody      = "{}"
)

var testNow = time.Unix(1700000000, 0)

func expectedSignature(secret, basestring string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(basestring))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestVerifier(t *testing.T, now time.Time) (*Verifier, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	v, err := NewVerifier([]byte(testSecret), clock)
	require.NoError(t, err)
	return v, clock
}

func flipLastHex(sig string) string {
	last := sig[len(sig)-1]
	replacement := byte('0')
	if last == '0' {
		replacement = '1'
	}
	return sig[:len(sig)-1] + string(replacement)
}

func TestNewVerifier_MissingSecret(t *testing.T) {
	for _, secret := range [][]byte{nil, {}} {
		v, err := NewVerifier(secret, clockwork.NewFakeClock())
		require.Error(t, err)
		assert.Nil(t, v)
		assert.ErrorIs(t, err, ErrConfig)
		assert.ErrorIs(t, err, ErrMissingSecret)
	}
}

func TestNewVerifier_NilClockUsesRealClock(t *testing.T) {
	v, err := NewVerifier([]byte(testSecret), nil)
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	body := []byte(`{"type":"event_callback"}`)
	assert.True(t, v.Verify(body, ts, v.Sign(body, ts)))
}

func TestNewVerifier_CopiesSecret(t *testing.T) {
	secret := []byte(testSecret)
	v, err := NewVerifier(secret, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, err)

	sig := v.Sign([]byte(testBody), testTimestamp)
	secret[0] = 'X'

	assert.True(t, v.Verify([]byte(testBody), testTimestamp, sig))
}

func TestSign_MatchesReferenceHMAC(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)

	want := expectedSignature(testSecret, "v0:1700000000:{}")
	assert.Equal(t, want, v.Sign([]byte(testBody), testTimestamp))
	assert.Len(t, want, 3+64)
}

func TestVerify_PublishedExample(t *testing.T) {
	body := "token=xyzz0WbapA4vBCDEFasx0q6G&team_id=T1DC2JH3J&team_domain=testteamnow&channel_id=G8PSS9T3V&channel_name=foobar&user_id=U2CERLKJA&user_name=roadrunner&command=%2Fwebhook-collect&text=&response_url=https%3A%2F%2Fhooks.slack.com%2Fcommands%2FT1DC2JH3J%2F397700885554%2F96rGlfmibIGlgcZRskXaIFfN&trigger_id=398738663015.47445629121.803a0bc887a14d10d2c447fce8b6703c"
	sig := "v0=a2114d57b48eac39b9ad189dd8316235a7b4a8d21a10bd27519666489c69b503"

	ok, err := Verify([]byte(body), "1531420618", sig, []byte("8f742231b10e8888abcd99yyyzzz85a5"), time.Unix(1531420618+60, 0))

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_Accepts(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)

	sig := expectedSignature(testSecret, "v0:1700000000:{}")
	assert.True(t, v.Verify([]byte(testBody), testTimestamp, sig))

	result := v.Check([]byte(testBody), testTimestamp, sig)
	assert.Equal(t, ReasonOK, result.Reason)
	assert.Equal(t, time.Duration(0), result.Skew)
}

func TestVerify_ReplayWindow(t *testing.T) {
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"exactly now", 0, true},
		{"299s later", 299 * time.Second, true},
		{"300s later", 300 * time.Second, true},
		{"301s later", 301 * time.Second, false},
		{"one hour later", time.Hour, false},
		{"300s earlier (future timestamp)", -300 * time.Second, true},
		{"301s earlier (future timestamp)", -301 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestVerifier(t, testNow.Add(tt.offset))
			assert.Equal(t, tt.want, v.Verify([]byte(testBody), testTimestamp, sig))
		})
	}
}

func TestVerify_ClockAdvance(t *testing.T) {
	v, clock := newTestVerifier(t, testNow)
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	require.True(t, v.Verify([]byte(testBody), testTimestamp, sig))

	clock.Advance(301 * time.Second)
	result := v.Check([]byte(testBody), testTimestamp, sig)
	assert.False(t, result.OK())
	assert.Equal(t, ReasonExpired, result.Reason)
	assert.Equal(t, 301*time.Second, result.Skew)
}

func TestVerify_TamperedSignature(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	result := v.Check([]byte(testBody), testTimestamp, flipLastHex(sig))
	assert.False(t, result.OK())
	assert.Equal(t, ReasonBadSignature, result.Reason)
}

func TestVerify_TamperedInputs(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	tests := []struct {
		name      string
		body      string
		timestamp string
		signature string
	}{
		{"body changed", `{"a":1}`, testTimestamp, sig},
		{"body reformatted", "{ }", testTimestamp, sig},
		{"timestamp changed within window", testBody, "1700000001", sig},
		{"uppercase hex", testBody, testTimestamp, "v0=" + strings.ToUpper(sig[3:])},
		{"wrong version prefix", testBody, testTimestamp, "v1=" + sig[3:]},
		{"missing prefix", testBody, testTimestamp, sig[3:]},
		{"signed with another secret", testBody, testTimestamp, expectedSignature("othersecret", "v0:1700000000:{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.Verify([]byte(tt.body), tt.timestamp, tt.signature))
		})
	}
}

func TestVerify_LengthMismatchDoesNotPanic(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	for _, provided := range []string{"", "v0=", "v0=abc", sig + "00", sig[:len(sig)-1], "v0=" + string(make([]byte, 4096))} {
		assert.NotPanics(t, func() {
			result := v.Check([]byte(testBody), testTimestamp, provided)
			assert.Equal(t, ReasonBadSignature, result.Reason)
		})
	}
}

func TestVerify_BadTimestamp(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)

	for _, ts := range []string{"not-a-number", "", "1700000000.5", "1.7e9", " 1700000000", "0x6553f100", "99999999999999999999999"} {
		t.Run(ts, func(t *testing.T) {
			sig := expectedSignature(testSecret, "v0:"+ts+":{}")
			var result Result
			assert.NotPanics(t, func() {
				result = v.Check([]byte(testBody), ts, sig)
			})
			assert.Equal(t, ReasonBadTimestamp, result.Reason)
			assert.False(t, result.OK())
		})
	}
}

func TestVerify_ExtremeTimestamps(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)

	for _, ts := range []int64{math.MaxInt64, math.MinInt64, -1, 0} {
		tsStr := strconv.FormatInt(ts, 10)
		sig := expectedSignature(testSecret, "v0:"+tsStr+":{}")
		assert.NotPanics(t, func() {
			result := v.Check([]byte(testBody), tsStr, sig)
			assert.Equal(t, ReasonExpired, result.Reason, tsStr)
		})
	}
}

func TestVerify_BinaryBody(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)
	body := []byte{0x00, 0xff, 0x10, '\n', ':'}

	sig := v.Sign(body, testTimestamp)
	assert.True(t, v.Verify(body, testTimestamp, sig))
	assert.False(t, v.Verify(body[:4], testTimestamp, sig))
}

func TestPackageVerify(t *testing.T) {
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	ok, err := Verify([]byte(testBody), testTimestamp, sig, []byte(testSecret), testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify([]byte(testBody), testTimestamp, sig, []byte(testSecret), testNow.Add(301*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Verify([]byte(testBody), "not-a-number", sig, []byte(testSecret), testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Verify([]byte(testBody), testTimestamp, sig, nil, testNow)
	assert.ErrorIs(t, err, ErrConfig)
	assert.False(t, ok)
}

func TestVerifier_ConcurrentUse(t *testing.T) {
	v, _ := newTestVerifier(t, testNow)
	sig := expectedSignature(testSecret, "v0:1700000000:{}")

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			provided := sig
			if i%2 == 1 {
				provided = flipLastHex(sig)
			}
			if v.Verify([]byte(testBody), testTimestamp, provided) != (i%2 == 0) {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Zero(t, failures)
}
