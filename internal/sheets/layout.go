package sheets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"findash/internal/core"
)

//go:embed default_layout.yaml
var defaultLayoutYAML []byte

// DefaultLayoutParentDir is the directory under the XDG config home searched for layout.yaml.
const DefaultLayoutParentDir = "findash"

// RowRef points at one row of one sheet, by label or by 1-based row number.
type RowRef struct {
	Sheet string `yaml:"sheet"`
	Label string `yaml:"label"`
	Row   int    `yaml:"row"`
}

func (r RowRef) String() string {
	if r.Label != "" {
		return fmt.Sprintf("%s!%q", r.Sheet, r.Label)
	}
	return fmt.Sprintf("%s!row %d", r.Sheet, r.Row)
}

// BalanceLayout describes the optional balance block.
type BalanceLayout struct {
	Months   int                         `yaml:"months"`
	Optional bool                        `yaml:"optional"`
	Rows     map[core.BalanceItem]RowRef `yaml:"rows"`
}

// Layout maps categories to their place in the workbook.
type Layout struct {
	LabelColumn      int                      `yaml:"label_column"`
	FirstMonthColumn int                      `yaml:"first_month_column"`
	Rows             map[core.Category]RowRef `yaml:"rows"`
	Balance          BalanceLayout            `yaml:"balance"`
}

// Validate checks that every category is mapped and that columns make sense.
func (l Layout) Validate() error {
	var problems []string
	if l.LabelColumn < 0 {
		problems = append(problems, fmt.Sprintf("label_column %d must not be negative", l.LabelColumn))
	}
	if l.FirstMonthColumn < 0 {
		problems = append(problems, fmt.Sprintf("first_month_column %d must not be negative", l.FirstMonthColumn))
	}
	if l.LabelColumn >= l.FirstMonthColumn && l.LabelColumn < l.FirstMonthColumn+core.MonthsInYear {
		problems = append(problems, "label_column overlaps the monthly columns")
	}
	for _, c := range core.Categories {
		ref, ok := l.Rows[c]
		if !ok {
			problems = append(problems, fmt.Sprintf("category %s is not mapped", c))
			continue
		}
		if ref.Label == "" && ref.Row < 1 {
			problems = append(problems, fmt.Sprintf("category %s needs a label or a row number", c))
		}
	}
	if l.Balance.Months < 0 || l.Balance.Months > core.MonthsInYear {
		problems = append(problems, fmt.Sprintf("balance months %d must be between 0 and %d", l.Balance.Months, core.MonthsInYear))
	}
	if l.Balance.Months > 0 && len(l.Balance.Rows) == 0 {
		problems = append(problems, "balance months set but no balance rows mapped")
	}
	for item, ref := range l.Balance.Rows {
		if ref.Label == "" && ref.Row < 1 {
			problems = append(problems, fmt.Sprintf("balance item %s needs a label or a row number", item))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("layout validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// SheetNames returns every sheet the layout reads, sorted.
func (l Layout) SheetNames() []string {
	seen := map[string]struct{}{}
	for _, ref := range l.Rows {
		seen[ref.Sheet] = struct{}{}
	}
	if l.Balance.Months > 0 {
		for _, ref := range l.Balance.Rows {
			seen[ref.Sheet] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(b []byte) (Layout, error) {
	l := Layout{FirstMonthColumn: 1}
	if err := yaml.Unmarshal(b, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// DefaultLayout is the layout embedded in the binary.
func DefaultLayout() Layout {
	l, err := ParseLayout(defaultLayoutYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded layout is invalid: %v", err))
	}
	return l
}

// LoadLayout loads the layout from file when given, then from the XDG config
// dir, then falls back to the embedded default.
//
// The second return value is the path the layout was loaded from, or
// "embedded" for the default.
func LoadLayout(file string) (Layout, string, error) {
	if file != "" {
		l, err := loadLayoutFrom(file)
		if err != nil {
			return Layout{}, "", err
		}
		return l, file, nil
	}

	xdgFile := filepath.Join(xdg.ConfigHome, DefaultLayoutParentDir, "layout.yaml")
	if _, err := os.Stat(xdgFile); err == nil {
		l, err := loadLayoutFrom(xdgFile)
		if err != nil {
			return Layout{}, "", err
		}
		return l, xdgFile, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Layout{}, "", fmt.Errorf("stat %s: %w", xdgFile, err)
	}

	return DefaultLayout(), "embedded", nil
}

func loadLayoutFrom(file string) (Layout, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to load layout %s: %w", file, err)
	}
	l, err := ParseLayout(b)
	if err != nil {
		return Layout{}, fmt.Errorf("layout %s: %w", file, err)
	}
	return l, nil
}
