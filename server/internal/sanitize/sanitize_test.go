package sanitize

import (
	"reflect"
	"testing"
)

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Error: foo", "Error: foo"},
		{"color", "Error: \u001b[31mfoo\u001b[0m", "Error: foo"},
		{"bold and color", "\u001b[1m\u001b[33mwarning\u001b[39m\u001b[22m: x", "warning: x"},
		{"empty", "", ""},
		{"multiline", "\u001b[31ma\u001b[0m\n\u001b[32mb\u001b[0m", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q): got %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAll_PreservesLengthAndOrder(t *testing.T) {
	in := []string{"\u001b[31mone\u001b[0m", "two", "\u001b[4mthree\u001b[24m"}
	got := All(in)
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("All: got %q, want %q", got, want)
	}
	if in[0] != "\u001b[31mone\u001b[0m" {
		t.Errorf("All modified its input: %q", in[0])
	}
}

func TestAll_Idempotent(t *testing.T) {
	in := []string{"Error: \u001b[31mfoo\u001b[0m", "clean"}
	once := All(in)
	twice := All(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("re-sanitizing changed output: %q -> %q", once, twice)
	}
}

func TestAll_Nil(t *testing.T) {
	got := All(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("All(nil): got %#v, want empty non-nil slice", got)
	}
}
