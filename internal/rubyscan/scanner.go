// Package rubyscan inventories Ruby sources with tree-sitter: class
// declarations and the meta-programming constructs a conversion cannot
// follow statically.
package rubyscan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"djangify/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"
	"go.uber.org/zap"
)

// Class is one class declaration.
type Class struct {
	Name       string `json:"name"`
	Superclass string `json:"superclass,omitempty"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

// Finding is one meta-programming site.
type Finding struct {
	Construct string `json:"construct"`
	File      string `json:"file"`
	Line      int    `json:"line"`
}

// Inventory is the scan result over a set of files.
type Inventory struct {
	Classes         []Class   `json:"classes"`
	Modules         []string  `json:"modules"`
	MetaProgramming []Finding `json:"meta_programming"`
	ParseErrors     []string  `json:"parse_errors,omitempty"`
}

// metaDefinitions are method names whose definition signals dynamic dispatch.
var metaDefinitions = map[string]bool{
	"method_missing":      true,
	"respond_to_missing?": true,
	"const_missing":       true,
}

// metaCalls are calls that define or invoke methods dynamically.
var metaCalls = map[string]bool{
	"define_method":         true,
	"class_eval":            true,
	"instance_eval":         true,
	"module_eval":           true,
	"send":                  true,
	"public_send":           true,
	"instance_variable_set": true,
	"instance_variable_get": true,
}

// Scanner parses Ruby files. It is not safe for concurrent use.
type Scanner struct {
	parser *sitter.Parser
}

// NewScanner creates a scanner with the Ruby grammar loaded.
func NewScanner() *Scanner {
	p := sitter.NewParser()
	p.SetLanguage(ruby.GetLanguage())
	return &Scanner{parser: p}
}

// Close releases the parser.
func (s *Scanner) Close() {
	s.parser.Close()
}

// ScanFile adds the declarations and findings of one file to inv.
func (s *Scanner) ScanFile(ctx context.Context, inv *Inventory, path string, content []byte) error {
	tree, err := s.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		inv.ParseErrors = append(inv.ParseErrors, path)
	}

	text := func(n *sitter.Node) string { return n.Content(content) }
	line := func(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "class":
			c := Class{File: path, Line: line(n)}
			if name := n.ChildByFieldName("name"); name != nil {
				c.Name = text(name)
			}
			if sup := n.ChildByFieldName("superclass"); sup != nil {
				c.Superclass = strings.TrimSpace(strings.TrimPrefix(text(sup), "<"))
			}
			inv.Classes = append(inv.Classes, c)
		case "module":
			if name := n.ChildByFieldName("name"); name != nil {
				inv.Modules = append(inv.Modules, text(name))
			}
		case "method", "singleton_method":
			if name := n.ChildByFieldName("name"); name != nil && metaDefinitions[text(name)] {
				inv.MetaProgramming = append(inv.MetaProgramming, Finding{Construct: text(name), File: path, Line: line(n)})
			}
		case "call", "method_call":
			if m := n.ChildByFieldName("method"); m != nil && metaCalls[text(m)] {
				inv.MetaProgramming = append(inv.MetaProgramming, Finding{Construct: text(m), File: path, Line: line(n)})
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return nil
}

// ScanFiles scans every file in order. Files that fail to parse are logged
// and recorded in ParseErrors; the scan continues.
func (s *Scanner) ScanFiles(ctx context.Context, files map[string][]byte, order []string) *Inventory {
	start := time.Now()
	log := logging.Get(logging.CategoryPlanner)

	inv := &Inventory{Classes: []Class{}, Modules: []string{}, MetaProgramming: []Finding{}}
	for _, path := range order {
		content, ok := files[path]
		if !ok {
			continue
		}
		if err := s.ScanFile(ctx, inv, path, content); err != nil {
			log.Warn("ruby scan failed", zap.String("path", path), zap.Error(err))
			inv.ParseErrors = append(inv.ParseErrors, path)
		}
	}

	log.Debug("ruby scan finished",
		zap.Int("files", len(order)),
		zap.Int("classes", len(inv.Classes)),
		zap.Int("meta_programming", len(inv.MetaProgramming)),
		zap.Duration("elapsed", time.Since(start)))
	return inv
}

// Risks renders findings as plan risk lines, one per construct kind.
func (inv *Inventory) Risks() []string {
	if len(inv.MetaProgramming) == 0 {
		return nil
	}
	byConstruct := make(map[string][]string)
	var order []string
	for _, f := range inv.MetaProgramming {
		if _, seen := byConstruct[f.Construct]; !seen {
			order = append(order, f.Construct)
		}
		byConstruct[f.Construct] = append(byConstruct[f.Construct], fmt.Sprintf("%s:%d", f.File, f.Line))
	}

	risks := make([]string, 0, len(order))
	for _, c := range order {
		sites := byConstruct[c]
		shown := sites
		if len(shown) > 3 {
			shown = shown[:3]
		}
		risk := fmt.Sprintf("possible meta-programming issues: %s at %s", c, strings.Join(shown, ", "))
		if extra := len(sites) - len(shown); extra > 0 {
			risk += fmt.Sprintf(" (+%d more)", extra)
		}
		risks = append(risks, risk)
	}
	return risks
}
