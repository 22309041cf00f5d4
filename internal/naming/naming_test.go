package naming

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: ".button", want: "button"},
		{in: ".primary-button", want: "primaryButton"},
		{in: "%icon", want: "icon"},
		{in: "$font-size-lg", want: "fontSizeLg"},
		{in: "primary-500", want: "primary500"},
		{in: ".a .b", want: "aB"},
		{in: ".card__title--active", want: "cardTitleActive"},
		{in: "fooBar", want: "fooBar"},
		{in: ".HTMLParser", want: "htmlParser"},
		{in: ".2col", want: "_2col"},
		{in: ".default", want: "_default"},
		{in: "", want: "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Identifier(tt.in); got != tt.want {
				t.Fatalf("Identifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWords(t *testing.T) {
	got := Words("ad-exactSize_2x")
	want := []string{"ad", "exact", "Size", "2x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Words mismatch (-want +got):\n%s", diff)
	}
}
