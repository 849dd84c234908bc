package diagnostic

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	d := New()
	d.Errorf(3, 10, "undeclared variable '%s'", "x")
	d.ErrorWithHint(4, 1, "unclosed '('", "add a matching ')'")
	d.Warningf(5, 2, "unused binding '%s'", "z")

	want := "error[c.clar:3:10]: undeclared variable 'x'\n" +
		"error[c.clar:4:1]: unclosed '('\n  hint: add a matching ')'\n" +
		"warning[c.clar:5:2]: unused binding 'z'"
	if got := d.Format("c.clar"); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
	if d.ErrorCount() != 2 || len(d.Errors()) != 2 || len(d.All()) != 3 {
		t.Errorf("unexpected counts: errors=%d all=%d", d.ErrorCount(), len(d.All()))
	}
}

func TestErr(t *testing.T) {
	d := New()
	d.Warningf(1, 1, "just a warning")
	if err := d.Err("x.clar"); err != nil {
		t.Fatalf("warnings alone should not produce an error, got %v", err)
	}

	other := New()
	other.Errorf(2, 3, "boom")
	d.Merge(other)
	err := d.Err("x.clar")
	if err == nil {
		t.Fatal("expected an error after merge")
	}
	var derr *FailedError
	if !errors.As(err, &derr) || derr.Diagnostics != d {
		t.Errorf("expected *FailedError wrapping the collection, got %T", err)
	}
}
