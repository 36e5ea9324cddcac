package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/dmitryikh/leaves"

	domrepo "BotBourse/internal/domain/repository"
	applogger "BotBourse/pkg/logger"
)

// Artifact file names inside the models directory. The .txt files are
// LightGBM text dumps readable by leaves; the rule table is plain JSON.
const (
	classifierFile = "short_term.txt"
	regressorFile  = "medium_term.txt"
	ruleTableFile  = "long_term.json"
)

// FileArtifactStore loads trained model artifacts from a directory. Any
// absent artifact loads as nil with no error, so the caller substitutes
// the neutral default for that horizon.
type FileArtifactStore struct {
	modelsDir string
	l         *applogger.Logger
}

// NewFileArtifactStore creates an artifact store over modelsDir.
func NewFileArtifactStore(modelsDir string, l *applogger.Logger) *FileArtifactStore {
	return &FileArtifactStore{modelsDir: modelsDir, l: l}
}

func (s *FileArtifactStore) LoadClassifier(_ context.Context) (domrepo.Classifier, error) {
	path := filepath.Join(s.modelsDir, classifierFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logMissing("classifier", path)
		return nil, nil
	}
	ensemble, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}
	if groups := ensemble.NOutputGroups(); groups != 3 {
		return nil, fmt.Errorf("load classifier: %d output groups, want 3", groups)
	}
	if s.l != nil {
		s.l.Info("loaded short-term classifier", applogger.String("path", path))
	}
	return &lgbmClassifier{ensemble: ensemble}, nil
}

func (s *FileArtifactStore) LoadRegressor(_ context.Context) (domrepo.Regressor, error) {
	path := filepath.Join(s.modelsDir, regressorFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logMissing("regressor", path)
		return nil, nil
	}
	ensemble, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("load regressor: %w", err)
	}
	if s.l != nil {
		s.l.Info("loaded medium-term regressor", applogger.String("path", path))
	}
	return &lgbmRegressor{ensemble: ensemble}, nil
}

func (s *FileArtifactStore) LoadRuleTable(_ context.Context) (*domrepo.RuleTable, error) {
	path := filepath.Join(s.modelsDir, ruleTableFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logMissing("rule table", path)
			return nil, nil
		}
		return nil, fmt.Errorf("load rule table: %w", err)
	}
	var table domrepo.RuleTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("load rule table: %w", err)
	}
	if s.l != nil {
		s.l.Info("loaded long-term rule table",
			applogger.String("path", path),
			applogger.String("version", table.Version),
			applogger.Int("rules", len(table.Scoring)),
		)
	}
	return &table, nil
}

func (s *FileArtifactStore) logMissing(kind, path string) {
	if s.l != nil {
		s.l.Warn("model artifact absent, horizon falls back to neutral",
			applogger.String("artifact", kind),
			applogger.String("path", path),
		)
	}
}

// lgbmClassifier adapts a leaves ensemble trained with multiclass
// objective to class probabilities via softmax over the raw scores.
type lgbmClassifier struct {
	ensemble *leaves.Ensemble
}

func (c *lgbmClassifier) PredictProba(features []float64) ([]float64, error) {
	raw := make([]float64, c.ensemble.NOutputGroups())
	if err := c.ensemble.Predict(features, 0, raw); err != nil {
		return nil, fmt.Errorf("lgbm predict: %w", err)
	}
	return softmax(raw), nil
}

// lgbmRegressor adapts a single-output leaves ensemble.
type lgbmRegressor struct {
	ensemble *leaves.Ensemble
}

func (r *lgbmRegressor) Predict(features []float64) (float64, error) {
	return r.ensemble.PredictSingle(features, 0), nil
}

func softmax(xs []float64) []float64 {
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		out[i] = math.Exp(x - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
