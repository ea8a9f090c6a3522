package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/login?x=1", "example.com"},
		{"http://docs.example.com/a", "example.com"},
		{"https://api.staging.example.com", "staging.example.com"},
		{"example.com", "example.com"},
		{"https://mail.google.com/mail/u/0", "google.com"},
		{"http://192.168.1.5/login", "192.168.1.5"},
		{"https://paypa1.com#frag", "paypa1.com"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "accounts.google.com", Hostname("https://Accounts.Google.com/signin"))
	assert.Equal(t, "example.com", Hostname("http://user@example.com:8080/"))
	assert.Equal(t, "", Hostname("not a url"))
	assert.Equal(t, "", Hostname("http://[::1"))
}

func TestNewScanTarget(t *testing.T) {
	got := NewScanTarget("https://www.paypal.com/signin")
	want := ScanTarget{RawURL: "https://www.paypal.com/signin", Domain: "paypal.com", Host: "www.paypal.com"}
	assert.Empty(t, cmp.Diff(want, got))
	assert.Equal(t, "paypal.com", StripWWW(got.Host))
}

func TestScanData_PushRecent_DedupAndCap(t *testing.T) {
	var d ScanData
	for i := 0; i < 7; i++ {
		d.PushRecent(ScanRecord{Domain: fmt.Sprintf("d%d.com", i), Verdict: VerdictSafe, Timestamp: int64(i)}, 5)
	}
	require.Len(t, d.RecentScans, 5)
	assert.Equal(t, "d6.com", d.RecentScans[0].Domain)
	assert.Equal(t, "d2.com", d.RecentScans[4].Domain)

	d.PushRecent(ScanRecord{Domain: "d4.com", Verdict: VerdictMalicious, Timestamp: 99}, 5)
	require.Len(t, d.RecentScans, 5)
	assert.Equal(t, "d4.com", d.RecentScans[0].Domain)
	assert.Equal(t, VerdictMalicious, d.RecentScans[0].Verdict)

	seen := map[string]int{}
	for _, r := range d.RecentScans {
		seen[r.Domain]++
	}
	assert.Equal(t, 1, seen["d4.com"])
}

func TestScanData_PushSuspicious(t *testing.T) {
	d := ScanData{SuspiciousSites: []string{"a.com", "b.com"}}
	d.PushSuspicious("b.com", 5)
	assert.Equal(t, []string{"b.com", "a.com"}, d.SuspiciousSites)

	for _, s := range []string{"c", "d", "e", "f"} {
		d.PushSuspicious(s, 5)
	}
	assert.Equal(t, []string{"f", "e", "d", "c", "b.com"}, d.SuspiciousSites)
}

func TestScanData_JSONKeys(t *testing.T) {
	d := ScanData{RecentScans: []ScanRecord{{Domain: "x.com", Verdict: VerdictSafe, Timestamp: 1}}}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"recentScans":[{"url":"x.com","status":"safe","timestamp":1}]`)
	assert.Contains(t, string(b), `"currentSite"`)
}

func TestPhishingResult_Flagged(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"explicit", `{"source":"A","details":"d","isPhishing":true}`, true},
		{"warnings list", `{"source":"B","details":"d","warnings":["bad"]}`, true},
		{"warnings string", `{"source":"B","details":"d","warnings":"listed"}`, true},
		{"empty warnings", `{"source":"C","details":"d","warnings":[]}`, false},
		{"null warnings", `{"source":"C","details":"d","warnings":null}`, false},
		{"clean", `{"source":"D","details":"d","isPhishing":false}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r PhishingResult
			require.NoError(t, json.Unmarshal([]byte(tt.in), &r))
			assert.Equal(t, tt.want, r.Flagged())
		})
	}
}

func TestPhishingResult_Warning(t *testing.T) {
	r := PhishingResult{Source: "PhishTank", Details: "listed as phishing"}
	assert.Equal(t, Warning("⚠️ PhishTank: listed as phishing"), r.Warning())
}

func TestVerdict_IsFinal(t *testing.T) {
	assert.False(t, VerdictScanning.IsFinal())
	assert.True(t, VerdictSafe.IsFinal())
	assert.True(t, VerdictMalicious.IsFinal())
}
