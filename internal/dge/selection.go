package dge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

// Selection is one pooled gene list: genes of Input expressed above the
// logCPM threshold are written to Output.
type Selection struct {
	Species string `mapstructure:"species" yaml:"species"`
	Name    string `mapstructure:"name" yaml:"name"`
	Input   string `mapstructure:"input" yaml:"input"`
	Output  string `mapstructure:"output" yaml:"output"`
}

// Selector runs pooled selections.
type Selector struct {
	th     Thresholds
	logger *zap.Logger
}

// NewSelector creates a selector using the given thresholds.
func NewSelector(th Thresholds) *Selector {
	return &Selector{th: th, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (s *Selector) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Select filters sel.Input by logCPM, writes sel.Output and returns the
// number of genes kept.
func (s *Selector) Select(sel Selection) (int, error) {
	t, err := table.Read(sel.Input, table.ReadOptions{})
	if err != nil {
		return 0, err
	}

	kept, err := table.Filter(t, ExpressedPredicate(s.th))
	if err != nil {
		return 0, fmt.Errorf("select %s %s: %w", sel.Species, sel.Name, err)
	}

	if err := table.Write(sel.Output, kept); err != nil {
		return 0, err
	}

	s.logger.Info("selected genes",
		zap.String("species", sel.Species),
		zap.String("comparison", sel.Name),
		zap.Int("n", kept.Len()),
		zap.String("output", sel.Output))

	return kept.Len(), nil
}
