package preprocessing_test

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/phishing-classifier/preprocessing"
)

// ExampleStandardScaler demonstrates basic StandardScaler usage
func ExampleStandardScaler() {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	scaler := preprocessing.NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("mean=%.1f\n", scaler.Mean[0])
	fmt.Printf("scaled=[%.3f %.3f %.3f]\n", scaled.At(0, 0), scaled.At(1, 0), scaled.At(2, 0))

	// Output: mean=2.0
	// scaled=[-1.225 0.000 1.225]
}

// ExampleOneHotEncoder demonstrates encoding a file extension column
func ExampleOneHotEncoder() {
	data := [][]string{{"com"}, {"net"}, {"com"}}

	encoder := preprocessing.NewOneHotEncoder()
	encoded, err := encoder.FitTransform(data)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(encoder.GetFeatureNamesOut([]string{"ext"}))
	r, _ := encoded.Dims()
	for i := 0; i < r; i++ {
		fmt.Println(mat.Row(nil, i, encoded))
	}

	// Output: [ext_com ext_net]
	// [1 0]
	// [0 1]
	// [1 0]
}

// ExampleLabelEncoder shows numeric label ordering
func ExampleLabelEncoder() {
	le := preprocessing.NewLabelEncoder()
	codes, _ := le.FitTransform([]string{"1", "0", "1"})
	fmt.Println(le.Classes, codes)

	// Output: [0 1] [1 0 1]
}
