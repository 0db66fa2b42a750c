package fetch

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		msg  string
		want Kind
	}{
		{"ERROR: Sign in to confirm you're not a bot: CAPTCHA required", KindCaptcha},
		{"suspicious activity challenge was presented", KindCaptcha},
		{"ERROR: Video unavailable", KindUnavailable},
		{"This video is unavailable in your country", KindUnavailable},
		{"SSL: UNEXPECTED_EOF_WHILE_READING", KindTransient},
		{"unexpected EOF while reading", KindTransient},
		{"Connection reset by peer", KindTransient},
		{"ERROR: unable to download video data: HTTP Error 403", KindUnknown},
		{"", KindUnknown},
	}

	for _, tc := range cases {
		if got := Classify(tc.msg); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestKindString(t *testing.T) {
	pairs := map[Kind]string{
		KindCaptcha:     "captcha",
		KindUnavailable: "unavailable",
		KindTransient:   "transient",
		KindUnknown:     "unknown",
	}
	for k, want := range pairs {
		if k.String() != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", int(k), k.String(), want)
		}
	}
}
