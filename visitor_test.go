package pickle

import (
	"math/big"
	"testing"
)

// recordingVisitor records a flattened trace of the On* calls it receives,
// descending into sequences and maps itself.
type recordingVisitor struct {
	trace *[]string
}

func newRecordingVisitor() (*recordingVisitor, *[]string) {
	trace := &[]string{}
	return &recordingVisitor{trace: trace}, trace
}

func (v *recordingVisitor) sub() *recordingVisitor { return &recordingVisitor{trace: v.trace} }

func (v *recordingVisitor) OnNone() error    { *v.trace = append(*v.trace, "None"); return nil }
func (v *recordingVisitor) OnBool(b bool) error {
	*v.trace = append(*v.trace, "Bool")
	return nil
}
func (v *recordingVisitor) OnI64(i int64) error {
	*v.trace = append(*v.trace, "I64")
	return nil
}
func (v *recordingVisitor) OnBigInt(i *big.Int) error {
	*v.trace = append(*v.trace, "BigInt")
	return nil
}
func (v *recordingVisitor) OnF64(f float64) error {
	*v.trace = append(*v.trace, "F64")
	return nil
}
func (v *recordingVisitor) OnBytes(b []byte) error {
	*v.trace = append(*v.trace, "Bytes")
	return nil
}
func (v *recordingVisitor) OnString(s string) error {
	*v.trace = append(*v.trace, "String")
	return nil
}
func (v *recordingVisitor) OnRef(r Ref) error {
	*v.trace = append(*v.trace, "Ref")
	return nil
}

func (v *recordingVisitor) OnSeq(seq SeqAccess) error {
	*v.trace = append(*v.trace, "Seq(")
	for {
		ok, err := seq.Next(v.sub())
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	*v.trace = append(*v.trace, ")")
	return nil
}

func (v *recordingVisitor) OnMap(m MapAccess) error {
	*v.trace = append(*v.trace, "Map(")
	for {
		ok, err := m.Next(v.sub(), v.sub())
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	*v.trace = append(*v.trace, ")")
	return nil
}

func TestVisitScalars(t *testing.T) {
	v, trace := newRecordingVisitor()
	if err := VisitBytes([]byte("I42\n."), v); err != nil {
		t.Fatal(err)
	}
	if len(*trace) != 1 || (*trace)[0] != "I64" {
		t.Errorf("got %v, want [I64]", *trace)
	}
}

func TestVisitWidensFittingBigInt(t *testing.T) {
	v, trace := newRecordingVisitor()
	// L42L\n. decodes to an arbitrary-precision Int that happens to fit int64
	if err := VisitBytes([]byte("L42L\n."), v); err != nil {
		t.Fatal(err)
	}
	if len(*trace) != 1 || (*trace)[0] != "I64" {
		t.Errorf("got %v, want [I64] (Int that fits I64 must be widened)", *trace)
	}
}

func TestVisitKeepsOversizedBigInt(t *testing.T) {
	v, trace := newRecordingVisitor()
	if err := VisitBytes([]byte("L99999999999999999999999999L\n."), v); err != nil {
		t.Fatal(err)
	}
	if len(*trace) != 1 || (*trace)[0] != "BigInt" {
		t.Errorf("got %v, want [BigInt]", *trace)
	}
}

func TestVisitSeq(t *testing.T) {
	v, trace := newRecordingVisitor()
	// [1, 2]
	if err := VisitBytes([]byte("](K\x01K\x02e."), v); err != nil {
		t.Fatal(err)
	}
	got := join(*trace)
	want := "Seq(I64I64)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestVisitMap(t *testing.T) {
	v, trace := newRecordingVisitor()
	// {}.
	if err := VisitBytes([]byte("}."), v); err != nil {
		t.Fatal(err)
	}
	got := join(*trace)
	if got != "Map()" {
		t.Errorf("got %q, want Map()", got)
	}
}

func TestVisitMemoSharingReDrives(t *testing.T) {
	v, trace := newRecordingVisitor()
	// l = []; (l, l)
	if err := VisitBytes([]byte("]q\x00h\x00\x86."), v); err != nil {
		t.Fatal(err)
	}
	got := join(*trace)
	want := "Seq(Seq()Seq())"
	if got != want {
		t.Errorf("got %q, want %q (both tuple slots must independently drive the empty list)", got, want)
	}
}

func TestVisitCycleIsRecursive(t *testing.T) {
	v, _ := newRecordingVisitor()
	// l = []; l.append(l)
	err := VisitBytes([]byte("]q\x00h\x00a."), v)
	if err == nil {
		t.Fatal("expected Recursive error")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != Recursive {
		t.Fatalf("got %v, want Recursive", err)
	}
}

func join(ss []string) string {
	out := ""
	for _, s := range ss {
		out += s
	}
	return out
}
