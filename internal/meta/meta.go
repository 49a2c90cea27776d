// Package meta matches eggNOG orthologous groups against the STRING
// identifiers of each species' DE gene table to build cross-species meta
// genes.
package meta

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/meiosis-lab/dgecmp/internal/dge"
	"github.com/meiosis-lab/dgecmp/internal/table"
)

// ColIDString names the STRING identifier column of a DE gene table.
const ColIDString = dge.ColIDString

// Species of a meta gene row, in output order, with their NCBI taxon ids.
var (
	Species = []string{"HS", "MM", "DM"}
	Taxa    = map[string]string{"HS": "9606", "MM": "10090", "DM": "7227"}
)

// Source is one species' DE gene table.
type Source struct {
	Species string `mapstructure:"species" yaml:"species"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Config locates the inputs and output of a meta gene run.
type Config struct {
	Sources     []Source `mapstructure:"sources" yaml:"sources"`
	Members     string   `mapstructure:"members" yaml:"members"`
	Annotations string   `mapstructure:"annotations" yaml:"annotations"`
	Output      string   `mapstructure:"output" yaml:"output"`
	BaseURL     string   `mapstructure:"base_url" yaml:"base_url"`
	Taxon       string   `mapstructure:"taxon" yaml:"taxon"`
}

// Family is one orthologous group with the matching identifiers per species.
type Family struct {
	ID         string
	Members    map[string][]string
	Annotation string
}

// Matcher selects families whose aliases hit the known identifiers.
type Matcher struct {
	taxa   map[string]string              // taxon id -> species
	known  map[string]map[string]struct{} // species -> identifiers
	any    map[string]struct{}
	logger *zap.Logger
}

// NewMatcher creates a matcher over the identifier sets of each species.
func NewMatcher(ids map[string][]string) *Matcher {
	m := &Matcher{
		taxa:   make(map[string]string, len(Taxa)),
		known:  make(map[string]map[string]struct{}, len(ids)),
		any:    make(map[string]struct{}),
		logger: zap.NewNop(),
	}
	for sp, taxon := range Taxa {
		m.taxa[taxon] = sp
	}
	for sp, list := range ids {
		set := make(map[string]struct{}, len(list))
		for _, id := range list {
			if id == "" {
				continue
			}
			set[id] = struct{}{}
			m.any[id] = struct{}{}
		}
		m.known[sp] = set
	}
	return m
}

// SetLogger sets the logger for progress messages.
func (m *Matcher) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Match returns the family of one members line, or false when no alias of
// a wanted species is a known identifier.
func (m *Matcher) Match(id string, aliases []string) (Family, bool) {
	var hits []string
	for _, a := range aliases {
		taxon, _, _ := strings.Cut(a, ".")
		if _, ok := m.taxa[taxon]; !ok {
			continue
		}
		if _, ok := m.any[a]; ok {
			hits = append(hits, a)
		}
	}
	if len(hits) == 0 {
		return Family{}, false
	}

	f := Family{ID: id, Members: make(map[string][]string, len(Species))}
	for _, sp := range Species {
		for _, a := range hits {
			if _, ok := m.known[sp][a]; ok {
				f.Members[sp] = append(f.Members[sp], a)
			}
		}
	}
	return f, true
}

// ReadMembers scans an eggNOG members file. Each line has five fixed
// tab-separated fields (family, id, two counts, comma-separated aliases)
// followed by a free-form last field. Matching families are returned in
// file order.
func (m *Matcher) ReadMembers(r io.Reader) ([]Family, error) {
	br := bufio.NewReader(r)
	var families []Family
	lines := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lines++
			fields := strings.SplitN(strings.TrimRight(line, "\r\n"), "\t", 6)
			if len(fields) < 5 {
				return nil, fmt.Errorf("members line %d: %d fields, want at least 5", lines, len(fields))
			}
			if f, ok := m.Match(fields[1], strings.Split(fields[4], ",")); ok {
				families = append(families, f)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read members: %w", err)
		}
	}
	m.logger.Debug("scanned members", zap.Int("lines", lines), zap.Int("families", len(families)))
	return families, nil
}

// ReadAnnotations reads a headerless eggNOG annotations file with the
// fields species, id, category letter and annotation. The first
// annotation of a repeated id is kept.
func ReadAnnotations(r io.Reader) (map[string]string, error) {
	ann := make(map[string]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) < 4 {
			return nil, fmt.Errorf("annotations line %d: %d fields, want 4", n, len(fields))
		}
		if _, ok := ann[fields[1]]; !ok {
			ann[fields[1]] = fields[3]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	return ann, nil
}

// Annotate sets the annotation of every family found in ann.
func Annotate(families []Family, ann map[string]string) {
	for i := range families {
		families[i].Annotation = ann[families[i].ID]
	}
}

// Table lays families out as id_eggnog, one id_string_<species> column per
// species with comma-joined identifiers, and annotation.
func Table(families []Family) (*table.Table, error) {
	header := []string{"id_eggnog"}
	for _, sp := range Species {
		header = append(header, "id_string_"+sp)
	}
	header = append(header, "annotation")

	t := table.New(header...)
	for _, f := range families {
		row := []string{f.ID}
		for _, sp := range Species {
			row = append(row, strings.Join(f.Members[sp], ","))
		}
		row = append(row, f.Annotation)
		if err := t.Append(row); err != nil {
			return nil, fmt.Errorf("family %s: %w", f.ID, err)
		}
	}
	return t, nil
}

// StringIDs returns the non-empty id_string values of each source table.
func StringIDs(ctx context.Context, sources []Source) (map[string][]string, error) {
	paths := make([]string, len(sources))
	for i, s := range sources {
		paths[i] = s.Path
	}
	tables, err := dge.LoadTables(ctx, paths, table.ReadOptions{Columns: []string{ColIDString}})
	if err != nil {
		return nil, err
	}

	ids := make(map[string][]string, len(sources))
	for _, s := range sources {
		t := tables[s.Path]
		for i := 0; i < t.Len(); i++ {
			if v := t.Get(i, ColIDString); v != "" {
				ids[s.Species] = append(ids[s.Species], v)
			}
		}
	}
	return ids, nil
}

// Run builds the meta gene table described by cfg and writes it to
// cfg.Output. It returns the number of families written.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ids, err := StringIDs(ctx, cfg.Sources)
	if err != nil {
		return 0, err
	}

	af, err := table.Open(cfg.Annotations)
	if err != nil {
		return 0, err
	}
	ann, err := ReadAnnotations(af)
	af.Close()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cfg.Annotations, err)
	}

	mf, err := table.Open(cfg.Members)
	if err != nil {
		return 0, err
	}
	defer mf.Close()

	m := NewMatcher(ids)
	m.SetLogger(logger)
	logger.Info("matching eggNOG members", zap.String("members", cfg.Members))
	families, err := m.ReadMembers(mf)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cfg.Members, err)
	}
	Annotate(families, ann)

	out, err := Table(families)
	if err != nil {
		return 0, err
	}
	if err := table.Write(cfg.Output, out); err != nil {
		return 0, err
	}
	logger.Info("wrote meta genes", zap.Int("families", len(families)), zap.String("output", cfg.Output))
	return len(families), nil
}
