// Package suite provides the test cases: the built-in France Culture suite
// or steps read from a workbook.
package suite

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"ui_regression/internal/config"
	"ui_regression/internal/consent"
	"ui_regression/internal/model"
)

const DefaultName = "Fonctionnalités de base de France Culture"

// Default returns the built-in suite for baseURL.
func Default(baseURL string) model.Suite {
	return model.Suite{
		Name:    DefaultName,
		URL:     baseURL,
		Consent: consent.Defaults,
		Cases: []model.TestCase{
			{
				CaseName: "charge la page d'accueil et vérifie le titre",
				Steps: []model.Step{
					{Condition: model.TitleInclude, Value: "France Culture", Message: "Titre de la page: {title}"},
				},
			},
			{
				CaseName: "vérifie le menu principal",
				Steps: []model.Step{
					{
						Selector:  `nav[role="navigation"][aria-label="menu principal"]`,
						Condition: model.Visible,
						Message:   "Menu principal trouvé",
					},
					{
						Selector:  `nav[role="navigation"][aria-label="menu principal"] ul li`,
						Condition: model.LengthAtLeast,
						Value:     "5",
						Message:   "Nombre d'éléments dans le menu principal: {count}",
					},
				},
			},
			{
				CaseName: "vérifie les menus de catégories",
				Steps: []model.Step{
					{
						Selector:  `[class*="category"] a, [class*="Category"] a`,
						Condition: model.LengthAtLeast,
						Value:     "3",
						Message:   "Nombre de catégories: {count}",
					},
				},
			},
			{
				CaseName: "vérifie la liste des stations",
				Steps: []model.Step{
					{
						Selector:  `a[href*="radiofrance.fr"], [class*="station"] li`,
						Condition: model.LengthAtLeast,
						Value:     "1",
						Message:   "Nombre de stations: {count}",
					},
				},
			},
			{
				CaseName: "vérifie le lien de recherche",
				Steps: []model.Step{
					{
						Selector:  `a[href="/recherche"]`,
						Condition: model.Visible,
						Message:   "Lien de recherche trouvé",
					},
				},
			},
		},
	}
}

// Load returns the workbook suite when one is configured, otherwise the
// built-in one. A consent list in the config replaces the defaults.
func Load(cfg *config.Config) (model.Suite, error) {
	s := Default(cfg.BaseURL)
	if cfg.Suite.ExcelPath != "" {
		cases, err := LoadExcel(cfg.Suite)
		if err != nil {
			return model.Suite{}, err
		}
		s.Name = cfg.Suite.SheetName
		s.Cases = cases
	}
	if len(cfg.Consent) > 0 {
		s.Consent = cfg.Consent
	}
	return s, nil
}

// Column order: case name, selector, condition, value, message.
const (
	colCase = iota
	colSelector
	colCondition
	colValue
	colMessage
)

// LoadExcel reads test cases from a sheet. Rows sharing a case name, or with
// an empty one, extend the current case.
func LoadExcel(src config.SuiteSource) ([]model.TestCase, error) {
	f, err := excelize.OpenFile(src.ExcelPath)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", src.ExcelPath, err)
	}
	defer f.Close()

	rows, err := f.GetRows(src.SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", src.SheetName, err)
	}
	if src.HeaderRow < 0 {
		return nil, fmt.Errorf("header row %d must not be negative", src.HeaderRow)
	}
	if src.HeaderRow > len(rows) {
		return nil, fmt.Errorf("sheet %s has no test cases", src.SheetName)
	}

	var cases []model.TestCase
	for i, row := range rows[src.HeaderRow:] {
		rowNum := src.HeaderRow + i + 1
		if isBlank(row) {
			continue
		}

		name := cell(row, colCase)
		step := model.Step{
			Selector:  cell(row, colSelector),
			Condition: model.Condition(cell(row, colCondition)),
			Value:     cell(row, colValue),
			Message:   cell(row, colMessage),
		}
		if err := checkStep(step); err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		if name == "" || (len(cases) > 0 && cases[len(cases)-1].CaseName == name) {
			if len(cases) == 0 {
				return nil, fmt.Errorf("row %d: step has no case name", rowNum)
			}
			last := &cases[len(cases)-1]
			last.Steps = append(last.Steps, step)
			continue
		}
		cases = append(cases, model.TestCase{CaseName: name, Steps: []model.Step{step}})
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("sheet %s has no test cases", src.SheetName)
	}
	return cases, nil
}

func checkStep(s model.Step) error {
	if !s.Condition.Valid() {
		return fmt.Errorf("unknown condition %q", s.Condition)
	}
	if s.Condition != model.TitleInclude && s.Selector == "" {
		return fmt.Errorf("condition %s needs a selector", s.Condition)
	}
	if s.Condition == model.LengthAtLeast {
		if n, err := s.MinCount(); err != nil || n < 0 {
			return fmt.Errorf("bad count %q", s.Value)
		}
	}
	return nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
