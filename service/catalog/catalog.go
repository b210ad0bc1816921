// Package catalog holds the orderable test definitions.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/afs"
	"github.com/viant/labflow/internal/yml"
	"github.com/viant/labflow/model"
)

// Document is the YAML layout of a catalog file.
type Document struct {
	Tests []*model.Test `yaml:"tests" json:"tests" validate:"dive,required"`
}

// Service is a read-only index of tests by code.
type Service struct {
	tests map[string]*model.Test
	codes []string
}

// New indexes tests; codes must be unique and every test must validate.
func New(tests ...*model.Test) (*Service, error) {
	ret := &Service{tests: make(map[string]*model.Test, len(tests))}
	for _, test := range tests {
		if test == nil {
			return nil, fmt.Errorf("nil test")
		}
		if err := yml.Validator().Struct(test); err != nil {
			return nil, fmt.Errorf("invalid test %q: %w", test.Code, err)
		}
		if test.RefMin != nil && test.RefMax != nil && *test.RefMin > *test.RefMax {
			return nil, fmt.Errorf("invalid test %q: refMin %v > refMax %v", test.Code, *test.RefMin, *test.RefMax)
		}
		if _, ok := ret.tests[test.Code]; ok {
			return nil, fmt.Errorf("duplicate test code %q", test.Code)
		}
		for _, other := range ret.tests {
			if test.TMLTCode != "" && test.TMLTCode == other.TMLTCode {
				return nil, fmt.Errorf("tests %q and %q share TMLT code %q", other.Code, test.Code, test.TMLTCode)
			}
			if test.LOINC != "" && test.LOINC == other.LOINC {
				return nil, fmt.Errorf("tests %q and %q share LOINC %q", other.Code, test.Code, test.LOINC)
			}
		}
		clone := *test
		ret.tests[test.Code] = &clone
		ret.codes = append(ret.codes, test.Code)
	}
	return ret, nil
}

// Decode builds a catalog from YAML.
func Decode(data []byte) (*Service, error) {
	doc := &Document{}
	if err := yml.Decode(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(doc.Tests...)
}

// Load builds a catalog from the YAML document at URL.
func Load(ctx context.Context, fs afs.Service, URL string) (*Service, error) {
	doc := &Document{}
	if err := yml.Load(ctx, fs, URL, doc); err != nil {
		return nil, err
	}
	return New(doc.Tests...)
}

// Lookup returns an orderable test. Missing and inactive codes yield
// model.ErrUnknownTest.
func (s *Service) Lookup(code string) (*model.Test, error) {
	test, ok := s.tests[code]
	if !ok || !test.Active {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownTest, code)
	}
	return test, nil
}

// Test returns a test by code regardless of its active flag.
func (s *Service) Test(code string) (*model.Test, bool) {
	test, ok := s.tests[code]
	return test, ok
}

// Codes returns test codes in declaration order.
func (s *Service) Codes() []string {
	return append([]string(nil), s.codes...)
}

// Len returns the number of tests.
func (s *Service) Len() int {
	return len(s.codes)
}

// Panels returns the distinct panel names, sorted.
func (s *Service) Panels() []string {
	seen := map[string]bool{}
	var ret []string
	for _, code := range s.codes {
		panel := s.tests[code].Panel
		if panel == "" || seen[panel] {
			continue
		}
		seen[panel] = true
		ret = append(ret, panel)
	}
	sort.Strings(ret)
	return ret
}

// PanelCodes returns the active test codes of panel in declaration order.
func (s *Service) PanelCodes(panel string) []string {
	var ret []string
	for _, code := range s.codes {
		if test := s.tests[code]; test.Panel == panel && test.Active {
			ret = append(ret, code)
		}
	}
	return ret
}
