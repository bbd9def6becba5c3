package seed

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"atelier/internal/models"
	"atelier/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Preset describes how much data a seeding run creates. Probabilities are in
// [0, 1].
type Preset struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Password    string         `yaml:"password"`
	Accounts    AccountsPreset `yaml:"accounts"`
	Follows     struct {
		Probability float64 `yaml:"probability"`
	} `yaml:"follows"`
	Posts struct {
		PerAccount int     `yaml:"per_account"`
		ImageRatio float64 `yaml:"image_ratio"`
		MaxDays    int     `yaml:"max_days"`
	} `yaml:"posts"`
	Engagement struct {
		LikeProbability float64 `yaml:"like_probability"`
		CommentsPerPost int     `yaml:"comments_per_post"`
	} `yaml:"engagement"`
	Messages struct {
		PerAccount int `yaml:"per_account"`
	} `yaml:"messages"`
	Projects ProjectsPreset `yaml:"projects"`
}

// AccountsPreset lists named accounts plus a number of generated ones.
type AccountsPreset struct {
	Fixed  []FixedAccount     `yaml:"fixed"`
	Random int                `yaml:"random"`
	Roles  map[string]float64 `yaml:"roles"`
}

// FixedAccount is an account created with known credentials.
type FixedAccount struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Bio      string `yaml:"bio"`
}

type ProjectsPreset struct {
	Count                int      `yaml:"count"`
	Collaborators        int      `yaml:"collaborators"`
	FundingRatio         float64  `yaml:"funding_ratio"`
	SupportersPerProject int      `yaml:"supporters_per_project"`
	BudgetItems          int      `yaml:"budget_items"`
	CalendarEntries      int      `yaml:"calendar_entries"`
	Manifestations       []string `yaml:"manifestations"`
}

// PresetNames lists the embedded presets.
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadPreset reads an embedded preset by name.
func LoadPreset(name string) (*Preset, error) {
	data, err := presetFS.ReadFile("presets/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown seed preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return ParsePreset(data)
}

// ParsePreset decodes and checks a preset document.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return &p, nil
}

func (p *Preset) validate() error {
	if err := validation.ValidatePassword(p.Password); err != nil {
		return err
	}
	for _, a := range p.Accounts.Fixed {
		if err := validation.ValidateUsername(a.Username); err != nil {
			return fmt.Errorf("account %q: %w", a.Username, err)
		}
		if a.Role != "" && !models.ProfileRole(a.Role).Valid() {
			return fmt.Errorf("account %q: unknown role %q", a.Username, a.Role)
		}
	}
	for role := range p.Accounts.Roles {
		if !models.ProfileRole(role).Valid() {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	if p.Accounts.Random < 0 || p.Posts.PerAccount < 0 || p.Projects.Count < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	for name, v := range map[string]float64{
		"follows.probability":         p.Follows.Probability,
		"posts.image_ratio":           p.Posts.ImageRatio,
		"engagement.like_probability": p.Engagement.LikeProbability,
		"projects.funding_ratio":      p.Projects.FundingRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if p.Posts.MaxDays <= 0 {
		p.Posts.MaxDays = 90
	}
	return nil
}

// TotalAccounts is the number of accounts the preset creates.
func (p *Preset) TotalAccounts() int {
	return len(p.Accounts.Fixed) + p.Accounts.Random
}
