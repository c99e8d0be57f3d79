package boltzmann

import (
	"github.com/gorgonia/boltzmann/svm"
	"github.com/pkg/errors"
)

// TrainSVM trains a support vector classifier on the activations of the top layer.
func (d *DBN) TrainSVM(inputs [][]float32, labels []int, p svm.Parameters) (*svm.Model, error) {
	features, err := d.Activations(inputs)
	if err != nil {
		return nil, err
	}
	m, err := svm.Train(features, labels, p)
	return m, errors.Wrap(err, "Unable to train the SVM")
}

// SVMPredict classifies the samples with a model trained by TrainSVM.
func (d *DBN) SVMPredict(m *svm.Model, inputs [][]float32) ([]int, error) {
	features, err := d.Activations(inputs)
	if err != nil {
		return nil, err
	}
	retVal := make([]int, len(features))
	for i, f := range features {
		retVal[i] = m.Predict(f)
	}
	return retVal, nil
}

// SVMGridSearch cross validates the SVM parameters on the activations of the top layer.
func (d *DBN) SVMGridSearch(inputs [][]float32, labels []int, p svm.Parameters, grid svm.Grid, folds int) (svm.Result, error) {
	features, err := d.Activations(inputs)
	if err != nil {
		return svm.Result{}, err
	}
	return svm.GridSearch(features, labels, p, grid, folds)
}
