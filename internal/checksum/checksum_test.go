package checksum

import "testing"

func TestMD5_KnownValue(t *testing.T) {
	if got := MD5([]byte("hello")); got != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("MD5 = %q", got)
	}
}

func TestSum_KnownValue(t *testing.T) {
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := Sum([]byte("hello")); got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}
