package clparser

import (
	"testing"

	"github.com/cwbudde/go-clr/clr"
	"github.com/gkampitakis/go-snaps/snaps"
)

func mustParse(t *testing.T, src string) *clr.Record {
	t.Helper()
	r, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", src, err)
	}
	return r
}

func TestParseEmptyRecord(t *testing.T) {
	r := mustParse(t, "{}")
	out, err := clr.Export(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)
	if len(m) != 0 {
		t.Fatalf("expected empty record, got %#v", m)
	}
}

func TestParsePrecedence(t *testing.T) {
	r := mustParse(t, "{ x = 1 + 2 ** 3 * 3 }")
	v, err := r.Get("x")
	if err != nil || v != clr.Int(25) {
		t.Fatalf("expected x=25, got %v, %v", v, err)
	}
}

func TestParseParenthesizedExponent(t *testing.T) {
	r := mustParse(t, "{ x = (3 - 1) ** 3 }")
	v, err := r.Get("x")
	if err != nil || v != clr.Int(8) {
		t.Fatalf("expected x=8, got %v, %v", v, err)
	}
}

func TestParseUnaryMinusBindsTighterThanPow(t *testing.T) {
	// -2**2 == (-2)**2 == 4, not -(2**2) == -4.
	r := mustParse(t, "{ x = -2 ** 2 }")
	v, err := r.Get("x")
	if err != nil || v != clr.Int(4) {
		t.Fatalf("expected x=4, got %v, %v", v, err)
	}
}

func TestParseIfThenElse(t *testing.T) {
	r := mustParse(t, "{ x = true, y = if x then 5 else 10 }")
	y, err := r.Get("y")
	if err != nil || y != clr.Int(5) {
		t.Fatalf("expected y=5, got %v, %v", y, err)
	}
}

func TestParseNestedRecordAccess(t *testing.T) {
	r := mustParse(t, `{
		x = { a = 1, b = 3*a, c = { d = 9 } },
		y = x.a,
		z = x.c.d,
	}`)
	y, err := r.Get("y")
	if err != nil || y != clr.Int(1) {
		t.Fatalf("expected y=1, got %v, %v", y, err)
	}
	z, err := r.Get("z")
	if err != nil || z != clr.Int(9) {
		t.Fatalf("expected z=9, got %v, %v", z, err)
	}
}

func TestParseFactorial(t *testing.T) {
	r := mustParse(t, `{
		fact = { result = if n <= 1 then 1 else n * fact(n=n-1, fact=fact).result }
		f0 = fact(n=0, fact=fact).result
		f1 = fact(n=1, fact=fact).result
		f2 = fact(n=2, fact=fact).result
		f3 = fact(n=3, fact=fact).result
		f10 = fact(n=10, fact=fact).result
	}`)

	cases := map[string]clr.Value{
		"f0": clr.Int(1), "f1": clr.Int(1), "f2": clr.Int(2), "f3": clr.Int(6), "f10": clr.Int(3628800),
	}
	for name, want := range cases {
		v, err := r.Get(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if v != want {
			t.Fatalf("%s: expected %v, got %v", name, want, v)
		}
	}
}

func TestParseFibonacci(t *testing.T) {
	r := mustParse(t, `{
		fibo = { result = if n <= 1 then 1 else fibo(n=n-1, fibo=fibo).result + fibo(n=n-2, fibo=fibo).result }
		f10 = fibo(n=10, fibo=fibo).result
	}`)
	v, err := r.Get("f10")
	if err != nil || v != clr.Int(89) {
		t.Fatalf("expected fibo(10)=89, got %v, %v", v, err)
	}
}

func TestParseListAndMatrixAccess(t *testing.T) {
	r := mustParse(t, "{ v = [[1,2,3],[10,20,30]][1][0] }")
	v, err := r.Get("v")
	if err != nil || v != clr.Int(10) {
		t.Fatalf("expected v=10, got %v, %v", v, err)
	}
}

func TestParseListTrailingComma(t *testing.T) {
	r := mustParse(t, "{ v = [1, 2, 3,] }")
	lst, err := r.Get("v")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, ok := lst.(*clr.List)
	if !ok || len(l.Elems) != 3 {
		t.Fatalf("expected a 3-element list, got %#v", lst)
	}
}

func TestParseFieldWithoutInitializerErrorsOnAccess(t *testing.T) {
	r := mustParse(t, "{ x : type, y = 1 }")
	if _, err := r.Get("x"); err == nil {
		t.Fatal("expected an error accessing a field with no initializer")
	}
	y, err := r.Get("y")
	if err != nil || y != clr.Int(1) {
		t.Fatalf("expected y=1, got %v, %v", y, err)
	}
}

func TestParseComments(t *testing.T) {
	r := mustParse(t, `{
		// line comment
		x = 1, /* block
		comment */ y = 2
	}`)
	x, err := r.Get("x")
	if err != nil || x != clr.Int(1) {
		t.Fatalf("expected x=1, got %v, %v", x, err)
	}
	y, err := r.Get("y")
	if err != nil || y != clr.Int(2) {
		t.Fatalf("expected y=2, got %v, %v", y, err)
	}
}

func TestParseAndOrShortCircuit(t *testing.T) {
	r := mustParse(t, "{ a = true or (1/0 == 0), b = false and (1/0 == 0) }")
	a, err := r.Get("a")
	if err != nil || a != clr.Bool(true) {
		t.Fatalf("expected a=true (short-circuited or), got %v, %v", a, err)
	}
	b, err := r.Get("b")
	if err != nil || b != clr.Bool(false) {
		t.Fatalf("expected b=false (short-circuited and), got %v, %v", b, err)
	}
}

func TestParseResidualInputFails(t *testing.T) {
	if _, err := Parse("{} garbage"); err == nil {
		t.Fatal("expected an InvalidSource error for residual input")
	}
}

func TestParseInvalidInputFails(t *testing.T) {
	if _, err := Parse("{ x = }"); err == nil {
		t.Fatal("expected an error for a missing expression")
	}
}

// TestParseSnapshotsExportedTrees snapshot-tests representative CL
// documents' exported plain trees, catching accidental regressions in
// the grammar or evaluation semantics across the suite at once.
func TestParseSnapshotsExportedTrees(t *testing.T) {
	docs := map[string]string{
		"nested_record": `{
			x = { a = 1, b = 3*a, c = { d = 9 } },
			y = x.a,
			z = x.c.d,
		}`,
		"matrix_access": "{ m = [[1,2,3],[10,20,30]], v = m[1][0] }",
		"if_else":       "{ flag = true, chosen = if flag then \"yes\" else \"no\" }",
	}

	for name, src := range docs {
		t.Run(name, func(t *testing.T) {
			r := mustParse(t, src)
			out, err := clr.Export(r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			snaps.MatchSnapshot(t, out)
		})
	}
}
