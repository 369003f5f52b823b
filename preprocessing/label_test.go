package preprocessing_test

import (
	"testing"

	"github.com/ezoic/phishing-classifier/preprocessing"
)

func TestLabelEncoder_NumericOrder(t *testing.T) {
	le := preprocessing.NewLabelEncoder()
	codes, err := le.FitTransform([]string{"10", "2", "1", "2"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"1", "2", "10"}
	for i, c := range want {
		if le.Classes[i] != c {
			t.Errorf("Classes = %v, want %v", le.Classes, want)
			break
		}
	}
	if !le.Numeric {
		t.Error("labels should be ordered numerically")
	}

	wantCodes := []int{2, 1, 0, 1}
	for i := range wantCodes {
		if codes[i] != wantCodes[i] {
			t.Errorf("codes = %v, want %v", codes, wantCodes)
			break
		}
	}
}

func TestLabelEncoder_StringOrder(t *testing.T) {
	le := preprocessing.NewLabelEncoder()
	if err := le.Fit([]string{"phish", "benign", "10"}); err != nil {
		t.Fatal(err)
	}
	if le.Numeric {
		t.Error("mixed labels must fall back to lexicographic order")
	}
	if le.Classes[0] != "10" || le.Classes[1] != "benign" || le.Classes[2] != "phish" {
		t.Errorf("Classes = %v", le.Classes)
	}
}

func TestLabelEncoder_InverseAndUnknown(t *testing.T) {
	le := preprocessing.NewLabelEncoder()
	if err := le.Fit([]string{"0", "1"}); err != nil {
		t.Fatal(err)
	}

	labels, err := le.InverseTransform([]int{1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if labels[0] != "1" || labels[1] != "0" {
		t.Errorf("InverseTransform = %v", labels)
	}

	if _, err := le.Transform([]string{"2"}); err == nil {
		t.Error("Expected error for unseen label")
	}
	if _, err := le.InverseTransform([]int{5}); err == nil {
		t.Error("Expected error for out of range code")
	}

	vec, err := le.TransformVec([]string{"1", "0"})
	if err != nil {
		t.Fatal(err)
	}
	if vec.AtVec(0) != 1 || vec.AtVec(1) != 0 {
		t.Errorf("TransformVec = %v", vec.RawVector().Data)
	}
}

func TestLabelEncoder_Unfitted(t *testing.T) {
	le := preprocessing.NewLabelEncoder()
	if _, err := le.Transform([]string{"0"}); err == nil {
		t.Error("Expected NotFittedError")
	}
	if err := le.Fit(nil); err == nil {
		t.Error("Expected error for empty labels")
	}
}
