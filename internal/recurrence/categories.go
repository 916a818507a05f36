package recurrence

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Expense categories recognized by the default vocabulary.
const (
	CategoryInsurance  = "insurance"
	CategoryCellular   = "cellular"
	CategoryLoan       = "loan"
	CategoryUtilities  = "utilities"
	CategorySchool     = "school_maintenance"
	CategoryVehicle    = "vehicle"
	CategoryDebitOrder = "debit_order"
)

// CategoryMap maps lower-case narration keywords to expense categories. The
// vocabulary is data, not code: bank-specific terms can be swapped through a
// YAML file without touching the clustering algorithm.
type CategoryMap map[string]string

// categoriesFile mirrors the YAML layout: a list of categories each carrying
// its keyword list.
type categoriesFile struct {
	Categories []categoryEntry `yaml:"categories"`
}

type categoryEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// DefaultCategoryMap returns the built-in South African vocabulary. Mixed
// English and Afrikaans terms cover the narration styles of the major banks.
func DefaultCategoryMap() CategoryMap {
	return CategoryMap{
		"insurance":   CategoryInsurance,
		"assur":       CategoryInsurance,
		"versekering": CategoryInsurance,
		"medical aid": CategoryInsurance,
		"medies":      CategoryInsurance,
		"funeral":     CategoryInsurance,

		"vodacom":  CategoryCellular,
		"mtn":      CategoryCellular,
		"cell c":   CategoryCellular,
		"telkom":   CategoryCellular,
		"cellular": CategoryCellular,
		"airtime":  CategoryCellular,

		"loan":       CategoryLoan,
		"lening":     CategoryLoan,
		"instalment": CategoryLoan,
		"repayment":  CategoryLoan,

		"electricity":    CategoryUtilities,
		"eskom":          CategoryUtilities,
		"municipality":   CategoryUtilities,
		"munisipaliteit": CategoryUtilities,
		"water":          CategoryUtilities,
		"rates":          CategoryUtilities,

		"school":      CategorySchool,
		"skool":       CategorySchool,
		"skoolgeld":   CategorySchool,
		"creche":      CategorySchool,
		"maintenance": CategorySchool,
		"onderhoud":   CategorySchool,

		"vehicle":  CategoryVehicle,
		"motor":    CategoryVehicle,
		"wesbank":  CategoryVehicle,
		"mfc":      CategoryVehicle,
		"voertuig": CategoryVehicle,

		"debit order": CategoryDebitOrder,
		"debiet":      CategoryDebitOrder,
		"d/o":         CategoryDebitOrder,
		"stop order":  CategoryDebitOrder,
	}
}

// LoadCategoryMap reads a keyword vocabulary from a YAML file.
func LoadCategoryMap(path string) (CategoryMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file %s: %w", path, err)
	}

	var file categoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories file %s: %w", path, err)
	}

	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s defines no categories", path)
	}

	cm := make(CategoryMap)
	for _, entry := range file.Categories {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("categories file %s contains a category without a name", path)
		}
		for _, keyword := range entry.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				continue
			}
			cm[keyword] = name
		}
	}

	return cm, nil
}

// Categorize returns the category whose keyword appears in the normalized
// description, if any. Longer keywords are tried first so that "debit order"
// wins over "order"-style fragments.
func (cm CategoryMap) Categorize(description string) (string, bool) {
	description = strings.ToLower(description)

	keywords := make([]string, 0, len(cm))
	for keyword := range cm {
		keywords = append(keywords, keyword)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if len(keywords[i]) != len(keywords[j]) {
			return len(keywords[i]) > len(keywords[j])
		}
		return keywords[i] < keywords[j]
	})

	for _, keyword := range keywords {
		if strings.Contains(description, keyword) {
			return cm[keyword], true
		}
	}

	return "", false
}

// Clone creates a copy of the category map
func (cm CategoryMap) Clone() CategoryMap {
	if cm == nil {
		return nil
	}

	clone := make(CategoryMap, len(cm))
	for k, v := range cm {
		clone[k] = v
	}
	return clone
}
