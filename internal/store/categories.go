package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/vesta-fin/vesta/internal/model"
)

// CategoriesHeader is the CSV header for categories.csv.
const CategoriesHeader = "category_id,name,type,parent_id"

// RulesHeader is the CSV header for rules.csv. Row order is rule
// precedence.
const RulesHeader = "mcc,pattern,category_id"

const (
	catNumFields = 4
	catColID     = 0
	catColName   = 1
	catColType   = 2
	catColParent = 3

	ruleNumFields  = 3
	ruleColMCC     = 0
	ruleColPattern = 1
	ruleColCatID   = 2
)

const uncategorizedName = "Uncategorized"

// MarshalCategory converts a Category to a CSV row.
func MarshalCategory(c model.Category) []string {
	row := make([]string, catNumFields)
	row[catColID] = strconv.Itoa(c.ID)
	row[catColName] = c.Name
	row[catColType] = string(c.Type)
	if c.ParentID != 0 {
		row[catColParent] = strconv.Itoa(c.ParentID)
	}
	return row
}

// UnmarshalCategory converts a CSV row to a Category.
func UnmarshalCategory(record []string) (model.Category, error) {
	if len(record) != catNumFields {
		return model.Category{}, fmt.Errorf("expected %d fields, got %d", catNumFields, len(record))
	}

	id, err := strconv.Atoi(record[catColID])
	if err != nil {
		return model.Category{}, fmt.Errorf("parsing category_id %q: %w", record[catColID], err)
	}

	var parentID int
	if record[catColParent] != "" {
		parentID, err = strconv.Atoi(record[catColParent])
		if err != nil {
			return model.Category{}, fmt.Errorf("parsing parent_id %q: %w", record[catColParent], err)
		}
	}

	return model.Category{
		ID:       id,
		Name:     record[catColName],
		Type:     model.CategoryType(record[catColType]),
		ParentID: parentID,
	}, nil
}

// MarshalRule converts a Rule to a CSV row.
func MarshalRule(r model.Rule) []string {
	row := make([]string, ruleNumFields)
	row[ruleColMCC] = r.MCC
	row[ruleColPattern] = r.Pattern
	row[ruleColCatID] = strconv.Itoa(r.CategoryID)
	return row
}

// UnmarshalRule converts a CSV row to a Rule.
func UnmarshalRule(record []string) (model.Rule, error) {
	if len(record) != ruleNumFields {
		return model.Rule{}, fmt.Errorf("expected %d fields, got %d", ruleNumFields, len(record))
	}

	catID, err := strconv.Atoi(record[ruleColCatID])
	if err != nil {
		return model.Rule{}, fmt.Errorf("parsing category_id %q: %w", record[ruleColCatID], err)
	}

	return model.Rule{
		MCC:        record[ruleColMCC],
		Pattern:    record[ruleColPattern],
		CategoryID: catID,
	}, nil
}

func readCategories(r io.Reader) ([]model.Category, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = catNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading categories CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var categories []model.Category
	for i, rec := range records[1:] {
		c, err := UnmarshalCategory(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func readRules(r io.Reader) ([]model.Rule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = ruleNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rules CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rules []model.Rule
	for i, rec := range records[1:] {
		rule, err := UnmarshalRule(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Categories returns the category tree.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	f, err := os.Open(s.path(categoriesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening categories: %w", err)
	}
	defer f.Close()

	return readCategories(f)
}

// CategoryRules returns the ordered classification rule table.
func (s *Store) CategoryRules(ctx context.Context) ([]model.Rule, error) {
	f, err := os.Open(s.path(rulesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()

	return readRules(f)
}

// EnsureUncategorized returns the id of the uncategorized leaf for the
// given category type, creating it on first use.
func (s *Store) EnsureUncategorized(ctx context.Context, t model.CategoryType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.Categories(ctx)
	if err != nil {
		return 0, err
	}

	maxID := 0
	for _, c := range categories {
		if c.Name == uncategorizedName && c.Type == t {
			return c.ID, nil
		}
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	created := model.Category{ID: maxID + 1, Name: uncategorizedName, Type: t}
	categories = append(categories, created)
	if err := s.writeCategories(categories); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (s *Store) writeCategories(categories []model.Category) error {
	f, err := os.Create(s.path(categoriesFile))
	if err != nil {
		return fmt.Errorf("creating categories file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(strings.Split(CategoriesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range categories {
		if err := cw.Write(MarshalCategory(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func (s *Store) writeRules(rules []model.Rule) error {
	f, err := os.Create(s.path(rulesFile))
	if err != nil {
		return fmt.Errorf("creating rules file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(strings.Split(RulesHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range rules {
		if err := cw.Write(MarshalRule(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
