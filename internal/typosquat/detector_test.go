package typosquat

import (
	"testing"

	"github.com/dmitrijs2005/phishguard/internal/trustlist"
	"github.com/stretchr/testify/assert"
)

func TestMatch_DefaultList(t *testing.T) {
	d := New(trustlist.Default())

	tests := []struct {
		domain string
		want   string
		ok     bool
	}{
		{"g00gle.com", "google.com", true},
		{"www.paypa1.com", "paypal.com", true},
		{"AMAZ0N.com", "amazon.com", true},
		{"google.com", "", false},
		{"www.google.com", "", false},
		{"amazonshop.com", "", false},
		{"", "", false},
		{"totally-unrelated-site.net", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			got, ok := d.Match(tt.domain)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// "amazonas.com" is two insertions away from "amazon.com", so with amazon.com
// trusted it is reported.
func TestMatch_AmazonasIsWithinTwoEdits(t *testing.T) {
	d := New(trustlist.New([]string{"amazon.com"}))
	got, ok := d.Match("amazonas.com")
	assert.True(t, ok)
	assert.Equal(t, "amazon.com", got)
}

func TestMatch_FirstMatchWinsOverCloser(t *testing.T) {
	list := trustlist.New([]string{"paypel.com", "paypal.com"})

	// paypa1.com is 2 edits from paypel.com and 1 from paypal.com.
	got, ok := New(list).Match("paypa1.com")
	assert.True(t, ok)
	assert.Equal(t, "paypel.com", got, "first-match reports the earlier, farther entry")

	got, ok = New(list, WithClosestMatch()).Match("paypa1.com")
	assert.True(t, ok)
	assert.Equal(t, "paypal.com", got)
}

func TestMatch_TrustedDomainNeverReported(t *testing.T) {
	d := New(trustlist.New([]string{"ab.com", "ac.com"}))
	_, ok := d.Match("ac.com")
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	d := New(trustlist.Default())
	assert.Equal(t, []string{string(Warning)}, toStrings(d.Check("faceb00k.com")))
	assert.Nil(t, d.Check("facebook.com"))
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, string(v))
	}
	return out
}
