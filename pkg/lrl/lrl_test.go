package lrl

import (
	"testing"
)

// TestParseAndValidate tests the high-level API
func TestParseAndValidate(t *testing.T) {
	doc, err := ParseAndValidate("../../internal/lrl/testdata/valid/basic.yaml")
	if err != nil {
		t.Fatalf("ParseAndValidate() failed: %v", err)
	}

	if len(doc.Rules) != 2 {
		t.Errorf("len(Rules) = %d, want 2", len(doc.Rules))
	}
}

// TestParseAndValidateBytes tests parsing from bytes
func TestParseAndValidateBytes(t *testing.T) {
	yaml := []byte(`
- if:
    - [type, output]
    - [block, 3, 4]
  ops:
    - [multiply, 1.1]
    - [flip, v]
`)

	doc, err := ParseAndValidateBytes(yaml, "memory://test")
	if err != nil {
		t.Fatalf("ParseAndValidateBytes() failed: %v", err)
	}

	if len(doc.Rules) != 1 {
		t.Errorf("len(Rules) = %d, want 1", len(doc.Rules))
	}
	if len(doc.Rules[0].Ops) != 2 {
		t.Errorf("len(Ops) = %d, want 2", len(doc.Rules[0].Ops))
	}
}

// TestParseAndValidateBytes_SemanticError ensures validation runs after parsing
func TestParseAndValidateBytes_SemanticError(t *testing.T) {
	yaml := []byte(`
- if: [type, output]
  ops:
    - [multiply, 1.0, 2.0]
`)

	if _, err := ParseAndValidateBytes(yaml, "memory://test"); err == nil {
		t.Fatal("ParseAndValidateBytes() should reject a bad multiply arity")
	}
}

// BenchmarkParse benchmarks rule parsing
func BenchmarkParse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := Parse("../../internal/lrl/testdata/valid/basic.yaml")
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseAndValidate benchmarks parsing + validation
func BenchmarkParseAndValidate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := ParseAndValidate("../../internal/lrl/testdata/valid/basic.yaml")
		if err != nil {
			b.Fatal(err)
		}
	}
}
