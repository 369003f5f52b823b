package linear_model

import (
	"encoding/gob"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/ezoic/phishing-classifier/core/model"
	clfErrors "github.com/ezoic/phishing-classifier/pkg/errors"
	"github.com/ezoic/phishing-classifier/pkg/log"
)

func init() {
	gob.Register(&LogisticRegression{})
}

const (
	solverLBFGS      = "lbfgs"
	penaltyL2        = "l2"
	penaltyNone      = "none"
	multiClassAuto   = "auto"
	multiClassOVR    = "ovr"
	multiClassMulti  = "multinomial"
	binaryClassCount = 2
)

// LogisticRegression implements logistic regression for classification
// Compatible with scikit-learn's LogisticRegression
//
// The objective is the mean log-loss plus ||w||^2 / (2*C*n_samples); the
// intercept is not penalized. Binary problems use a single sigmoid model,
// problems with more classes use a jointly fitted softmax (multinomial) or
// one-vs-rest sigmoids.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	Penalty      string  // Regularization: "l2" or "none"
	C            float64 // Inverse regularization strength
	FitIntercept bool    // Whether to fit intercept
	Solver       string  // Only "lbfgs"
	MaxIter      int     // Maximum L-BFGS iterations
	Tol          float64 // Gradient threshold for stopping
	MultiClass   string  // "auto", "ovr" or "multinomial"

	// Model parameters
	Coef      [][]float64 // 1 x n_features for binary, n_classes x n_features otherwise
	Intercept []float64
	Classes   []float64 // Sorted class labels
	NFeatures int
	NIter     []int // Iterations used per fitted model
	Strategy  string
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier with
// scikit-learn defaults: l2 penalty, C=1, lbfgs, max_iter=100, tol=1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		Penalty:      penaltyL2,
		C:            1.0,
		FitIntercept: true,
		Solver:       solverLBFGS,
		MaxIter:      100,
		Tol:          1e-4,
		MultiClass:   multiClassAuto,
	}
	lr.ModelType = "LogisticRegression"

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.Penalty = penalty }
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.FitIntercept = fit }
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.Solver = solver }
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.MaxIter = maxIter }
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.Tol = tol }
}

// WithLRMultiClass sets the multiclass strategy
func WithLRMultiClass(strategy string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.MultiClass = strategy }
}

// stableSigmoid computes sigmoid(z) in a numerically stable way.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// logSigmoid computes log(sigmoid(z)) without overflow.
func logSigmoid(z float64) float64 {
	if z >= 0 {
		return -math.Log1p(math.Exp(-z))
	}
	return z - math.Log1p(math.Exp(z))
}

func (lr *LogisticRegression) validate() error {
	if lr.Solver != solverLBFGS {
		return clfErrors.NewValidationError("solver", "only 'lbfgs' is supported", lr.Solver)
	}
	if lr.Penalty != penaltyL2 && lr.Penalty != penaltyNone {
		return clfErrors.NewValidationError("penalty", "lbfgs supports only 'l2' or 'none'", lr.Penalty)
	}
	if lr.Penalty == penaltyL2 && !(lr.C > 0) {
		return clfErrors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.MaxIter <= 0 {
		return clfErrors.NewValidationError("max_iter", "must be positive", lr.MaxIter)
	}
	if lr.Tol < 0 {
		return clfErrors.NewValidationError("tol", "must be non-negative", lr.Tol)
	}
	switch lr.MultiClass {
	case multiClassAuto, multiClassOVR, multiClassMulti:
	default:
		return clfErrors.NewValidationError("multi_class", "must be 'auto', 'ovr' or 'multinomial'", lr.MultiClass)
	}
	return nil
}

// Fit trains the logistic regression model. y holds class labels as
// float64 values.
func (lr *LogisticRegression) Fit(X mat.Matrix, y mat.Vector) (err error) {
	defer clfErrors.Recover(&err, "LogisticRegression.Fit")
	if err := lr.validate(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return clfErrors.NewModelError("LogisticRegression.Fit", "empty data", clfErrors.ErrEmptyData)
	}
	if y.Len() != nSamples {
		return clfErrors.NewDimensionError("LogisticRegression.Fit", nSamples, y.Len(), 0)
	}
	if err := clfErrors.CheckMatrix("LogisticRegression.Fit input", X, nSamples, nFeatures, 0); err != nil {
		return err
	}

	lr.Reset()
	lr.Coef, lr.Intercept, lr.NIter = nil, nil, nil
	lr.extractClasses(y)
	lr.NFeatures = nFeatures
	xD := mat.DenseCopyOf(X)

	switch {
	case len(lr.Classes) == 1:
		lr.fitSingleClass()
	case len(lr.Classes) == binaryClassCount:
		lr.Strategy = "binary"
		err = lr.fitBinary(xD, lr.binaryTargets(y, lr.Classes[1]), 0)
	case lr.MultiClass == multiClassOVR:
		lr.Strategy = multiClassOVR
		err = lr.fitOVR(xD, y)
	default:
		lr.Strategy = multiClassMulti
		err = lr.fitMultinomial(xD, y)
	}
	if err != nil {
		return err
	}

	lr.SetFitted()
	lr.LogInfo("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(lr.Classes),
		"strategy", lr.Strategy,
		log.IterationKey, lr.NIter,
	)
	return nil
}

// extractClasses identifies unique class labels, sorted ascending
func (lr *LogisticRegression) extractClasses(y mat.Vector) {
	seen := make(map[float64]struct{})
	for i := 0; i < y.Len(); i++ {
		seen[y.AtVec(i)] = struct{}{}
	}
	lr.Classes = make([]float64, 0, len(seen))
	for c := range seen {
		lr.Classes = append(lr.Classes, c)
	}
	sort.Float64s(lr.Classes)
}

// fitSingleClass handles training data with only one label. Every
// prediction is that label with probability 1.
func (lr *LogisticRegression) fitSingleClass() {
	lr.Strategy = "constant"
	lr.Coef = [][]float64{make([]float64, lr.NFeatures)}
	lr.Intercept = []float64{0}
	lr.NIter = []int{0}
	clfErrors.Warn(clfErrors.NewSingleClassWarning("LogisticRegression",
		strconv.FormatFloat(lr.Classes[0], 'g', -1, 64)))
}

func (lr *LogisticRegression) binaryTargets(y mat.Vector, positive float64) []float64 {
	out := make([]float64, y.Len())
	for i := range out {
		if y.AtVec(i) == positive {
			out[i] = 1
		}
	}
	return out
}

// l2Strength returns the coefficient of ||w||^2 in the mean objective.
func (lr *LogisticRegression) l2Strength(nSamples int) float64 {
	if lr.Penalty != penaltyL2 {
		return 0
	}
	return 1.0 / (2.0 * lr.C * float64(nSamples))
}

// fitBinary fits one sigmoid model with L-BFGS and stores it in row idx of
// Coef and Intercept.
func (lr *LogisticRegression) fitBinary(X *mat.Dense, target []float64, idx int) error {
	nSamples, nFeatures := X.Dims()
	alpha := lr.l2Strength(nSamples)
	invN := 1.0 / float64(nSamples)

	z := mat.NewVecDense(nSamples, nil)
	resid := mat.NewVecDense(nSamples, nil)
	gw := mat.NewVecDense(nFeatures, nil)

	// theta = [w_0..w_{d-1}, b]
	linear := func(theta []float64) {
		w := mat.NewVecDense(nFeatures, theta[:nFeatures])
		z.MulVec(X, w)
		if lr.FitIntercept {
			b := theta[nFeatures]
			for i := 0; i < nSamples; i++ {
				z.SetVec(i, z.AtVec(i)+b)
			}
		}
	}

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			linear(theta)
			loss := 0.0
			for i := 0; i < nSamples; i++ {
				zi := z.AtVec(i)
				loss -= target[i]*logSigmoid(zi) + (1-target[i])*logSigmoid(-zi)
			}
			loss *= invN
			if alpha > 0 {
				w := theta[:nFeatures]
				loss += alpha * floats.Dot(w, w)
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			linear(theta)
			for i := 0; i < nSamples; i++ {
				resid.SetVec(i, stableSigmoid(z.AtVec(i))-target[i])
			}
			gw.MulVec(X.T(), resid)
			for j := 0; j < nFeatures; j++ {
				grad[j] = gw.AtVec(j)*invN + 2*alpha*theta[j]
			}
			if lr.FitIntercept {
				grad[nFeatures] = mat.Sum(resid) * invN
			}
		},
	}

	dim := nFeatures
	if lr.FitIntercept {
		dim++
	}
	theta, iters, err := lr.minimize(prob, make([]float64, dim))
	if err != nil {
		return err
	}

	if lr.Coef == nil {
		lr.Coef = make([][]float64, 1)
		lr.Intercept = make([]float64, 1)
		lr.NIter = make([]int, 1)
	}
	lr.Coef[idx] = append([]float64(nil), theta[:nFeatures]...)
	if lr.FitIntercept {
		lr.Intercept[idx] = theta[nFeatures]
	}
	lr.NIter[idx] = iters
	return nil
}

// fitOVR fits one binary classifier per class.
func (lr *LogisticRegression) fitOVR(X *mat.Dense, y mat.Vector) error {
	k := len(lr.Classes)
	lr.Coef = make([][]float64, k)
	lr.Intercept = make([]float64, k)
	lr.NIter = make([]int, k)
	for idx, class := range lr.Classes {
		if err := lr.fitBinary(X, lr.binaryTargets(y, class), idx); err != nil {
			return clfErrors.Wrapf(err, "failed to fit class %v", class)
		}
	}
	return nil
}

// fitMultinomial fits a softmax model over all classes jointly.
func (lr *LogisticRegression) fitMultinomial(X *mat.Dense, y mat.Vector) error {
	nSamples, nFeatures := X.Dims()
	k := len(lr.Classes)
	alpha := lr.l2Strength(nSamples)
	invN := 1.0 / float64(nSamples)

	classIdx := make(map[float64]int, k)
	for i, c := range lr.Classes {
		classIdx[c] = i
	}
	labels := make([]int, nSamples)
	for i := range labels {
		labels[i] = classIdx[y.AtVec(i)]
	}

	stride := nFeatures
	if lr.FitIntercept {
		stride++
	}
	// theta is k blocks of [w_k, b_k]
	scores := mat.NewDense(nSamples, k, nil)
	W := mat.NewDense(nFeatures, k, nil)
	resid := mat.NewDense(nSamples, k, nil)
	gW := mat.NewDense(nFeatures, k, nil)

	compute := func(theta []float64) {
		for c := 0; c < k; c++ {
			for j := 0; j < nFeatures; j++ {
				W.Set(j, c, theta[c*stride+j])
			}
		}
		scores.Mul(X, W)
		if lr.FitIntercept {
			for i := 0; i < nSamples; i++ {
				for c := 0; c < k; c++ {
					scores.Set(i, c, scores.At(i, c)+theta[c*stride+nFeatures])
				}
			}
		}
	}

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			compute(theta)
			loss := 0.0
			for i := 0; i < nSamples; i++ {
				row := scores.RawRowView(i)
				loss += floats.LogSumExp(row) - row[labels[i]]
			}
			loss *= invN
			if alpha > 0 {
				for c := 0; c < k; c++ {
					w := theta[c*stride : c*stride+nFeatures]
					loss += alpha * floats.Dot(w, w)
				}
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			compute(theta)
			for i := 0; i < nSamples; i++ {
				row := scores.RawRowView(i)
				lse := floats.LogSumExp(row)
				for c := 0; c < k; c++ {
					p := math.Exp(row[c] - lse)
					if c == labels[i] {
						p--
					}
					resid.Set(i, c, p)
				}
			}
			gW.Mul(X.T(), resid)
			for c := 0; c < k; c++ {
				for j := 0; j < nFeatures; j++ {
					grad[c*stride+j] = gW.At(j, c)*invN + 2*alpha*theta[c*stride+j]
				}
				if lr.FitIntercept {
					grad[c*stride+nFeatures] = floats.Sum(mat.Col(nil, c, resid)) * invN
				}
			}
		},
	}

	theta, iters, err := lr.minimize(prob, make([]float64, k*stride))
	if err != nil {
		return err
	}

	lr.Coef = make([][]float64, k)
	lr.Intercept = make([]float64, k)
	for c := 0; c < k; c++ {
		lr.Coef[c] = append([]float64(nil), theta[c*stride:c*stride+nFeatures]...)
		if lr.FitIntercept {
			lr.Intercept[c] = theta[c*stride+nFeatures]
		}
	}
	lr.NIter = []int{iters}
	return nil
}

// minimize runs L-BFGS. Hitting the iteration limit, or a line search
// failure after some progress, emits a ConvergenceWarning and keeps the
// last iterate.
func (lr *LogisticRegression) minimize(prob optimize.Problem, x0 []float64) ([]float64, int, error) {
	settings := optimize.Settings{
		GradientThreshold: lr.Tol,
		MajorIterations:   lr.MaxIter,
	}
	result, err := optimize.Minimize(prob, x0, &settings, &optimize.LBFGS{})
	if result == nil || len(result.X) == 0 {
		if err == nil {
			err = clfErrors.New("optimizer returned no result")
		}
		return nil, 0, clfErrors.Wrap(err, "lbfgs optimization failed")
	}
	if floats.HasNaN(result.X) {
		return nil, 0, clfErrors.NewNumericalInstabilityError("lbfgs", result.X, result.Stats.MajorIterations)
	}

	iters := result.Stats.MajorIterations
	switch {
	case err != nil:
		clfErrors.Warn(clfErrors.NewConvergenceWarning(solverLBFGS, iters, err.Error()))
	case result.Status == optimize.IterationLimit:
		clfErrors.Warn(clfErrors.NewConvergenceWarning(solverLBFGS, iters, ""))
	}
	lr.LogDebug("lbfgs finished", "status", result.Status.String(), log.IterationKey, iters, log.LossKey, result.F)
	return result.X, iters, nil
}

// DecisionFunction returns the linear scores: n x 1 for binary models and
// n x n_classes otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, clfErrors.NewNotFittedError("LogisticRegression", "DecisionFunction")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.NFeatures {
		return nil, clfErrors.NewDimensionError("LogisticRegression.DecisionFunction", lr.NFeatures, nFeatures, 1)
	}
	if nSamples == 0 {
		return &mat.Dense{}, nil
	}

	k := len(lr.Coef)
	W := mat.NewDense(nFeatures, k, nil)
	for c := 0; c < k; c++ {
		for j := 0; j < nFeatures; j++ {
			W.Set(j, c, lr.Coef[c][j])
		}
	}
	scores := mat.NewDense(nSamples, k, nil)
	scores.Mul(X, W)
	for i := 0; i < nSamples; i++ {
		for c := 0; c < k; c++ {
			scores.Set(i, c, scores.At(i, c)+lr.Intercept[c])
		}
	}
	return scores, nil
}

// Predict makes predictions for input data. The result is an n x 1
// matrix of class labels.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, clfErrors.NewNotFittedError("LogisticRegression", "Predict")
	}
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return &mat.Dense{}, nil
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		switch len(lr.Classes) {
		case 1:
			predictions.Set(i, 0, lr.Classes[0])
		case binaryClassCount:
			if scores.At(i, 0) > 0 {
				predictions.Set(i, 0, lr.Classes[1])
			} else {
				predictions.Set(i, 0, lr.Classes[0])
			}
		default:
			row := mat.Row(nil, i, scores)
			predictions.Set(i, 0, lr.Classes[floats.MaxIdx(row)])
		}
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class, columns in
// the order of Classes.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, clfErrors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return &mat.Dense{}, nil
	}

	k := len(lr.Classes)
	probas := mat.NewDense(nSamples, k, nil)
	for i := 0; i < nSamples; i++ {
		switch {
		case k == 1:
			probas.Set(i, 0, 1)
		case k == binaryClassCount:
			p := stableSigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		case lr.Strategy == multiClassOVR:
			sum := 0.0
			for c := 0; c < k; c++ {
				p := stableSigmoid(scores.At(i, c))
				probas.Set(i, c, p)
				sum += p
			}
			for c := 0; c < k; c++ {
				probas.Set(i, c, probas.At(i, c)/sum)
			}
		default:
			row := mat.Row(nil, i, scores)
			lse := floats.LogSumExp(row)
			for c := 0; c < k; c++ {
				probas.Set(i, c, math.Exp(row[c]-lse))
			}
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X mat.Matrix, y mat.Vector) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	n := y.Len()
	if n == 0 {
		return 0, clfErrors.NewModelError("LogisticRegression.Score", "empty data", clfErrors.ErrEmptyData)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if predictions.At(i, 0) == y.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.Penalty,
		"C":             lr.C,
		"fit_intercept": lr.FitIntercept,
		"solver":        lr.Solver,
		"max_iter":      lr.MaxIter,
		"multi_class":   lr.MultiClass,
		"tol":           lr.Tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.Penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.FitIntercept, ok = value.(bool)
		case "solver":
			lr.Solver, ok = value.(string)
		case "max_iter":
			lr.MaxIter, ok = value.(int)
		case "multi_class":
			lr.MultiClass, ok = value.(string)
		case "tol":
			lr.Tol, ok = value.(float64)
		default:
			return clfErrors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return clfErrors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}
