package keys

import (
	"strings"
	"testing"
)

func TestDomainFile_PlainDomainKeepsDots(t *testing.T) {
	got := DomainFile("example.com")
	want := "example.com.ctx"
	if got != want {
		t.Fatalf("DomainFile = %q, want %q", got, want)
	}
}

func TestDomainFile_DeterministicAndCollisionSafe(t *testing.T) {
	f1 := DomainFile("exa/mple.com")
	f2 := DomainFile("exa\\mple.com")
	if f1 == f2 {
		t.Fatalf("distinct domains collided onto the same file name: %s", f1)
	}
	if DomainFile("exa/mple.com") != f1 {
		t.Fatal("DomainFile is not deterministic")
	}
}

func TestDomainFile_NoPathTraversal(t *testing.T) {
	got := DomainFile("../../etc/passwd")
	if strings.ContainsAny(got, "/\\") {
		t.Fatalf("DomainFile produced a path separator, enabling traversal: %q", got)
	}
}

func TestRegistryDir_EncodesDotsAsUnderscores(t *testing.T) {
	got := RegistryDir("example.com")
	want := "example_com"
	if got != want {
		t.Fatalf("RegistryDir = %q, want %q", got, want)
	}
}
