package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// Options configures a Seeder.
type Options struct {
	// Seed fixes the generator; zero picks a random one.
	Seed int64
	// FastHash hashes passwords at bcrypt.MinCost.
	FastHash bool
	// Clean empties every domain table before seeding.
	Clean bool
}

// Summary counts what a run created.
type Summary struct {
	Accounts   int `json:"accounts"`
	Follows    int `json:"follows"`
	Posts      int `json:"posts"`
	Likes      int `json:"likes"`
	Comments   int `json:"comments"`
	Messages   int `json:"messages"`
	Projects   int `json:"projects"`
	Supporters int `json:"supporters"`
}

// Seeder populates the database from a Preset.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// tables in child-first order.
var tables = []string{
	"project_supporters",
	"project_budget_items",
	"project_fundings",
	"project_calendar_entries",
	"project_photos",
	"project_manifestations",
	"project_collaborators",
	"projects",
	"manifestations",
	"messages",
	"comments",
	"likes",
	"text_posts",
	"image_posts",
	"follows",
	"profiles",
	"accounts",
}

// Clean deletes every row of the domain tables.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clean %s: %w", table, err)
			}
		}
		return nil
	})
}

type contentRef struct {
	content models.Content
	owner   uint
}

// Run creates the data described by p.
func (s *Seeder) Run(ctx context.Context, p *Preset) (*Summary, error) {
	start := time.Now()
	slog.InfoContext(ctx, "seeding started", slog.String("preset", p.Name), slog.Int("accounts", p.TotalAccounts()))

	if s.opts.Clean {
		if err := Clean(ctx, s.db); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	f := s.factory

	accounts, err := s.seedAccounts(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}
	sum.Accounts = len(accounts)
	if len(accounts) == 0 {
		return sum, nil
	}

	for _, a := range accounts {
		for _, b := range accounts {
			if a.ID == b.ID || !f.chance(p.Follows.Probability) {
				continue
			}
			created, err := f.Follow(ctx, a, b)
			if err != nil {
				return nil, fmt.Errorf("seed follows: %w", err)
			}
			if created {
				sum.Follows++
			}
		}
	}

	var contents []contentRef
	for _, a := range accounts {
		for i := 0; i < p.Posts.PerAccount; i++ {
			at := f.backdate(p.Posts.MaxDays)
			var c models.Content
			if f.chance(p.Posts.ImageRatio) {
				c, err = f.CreateImagePost(ctx, a, at)
			} else {
				c, err = f.CreateTextPost(ctx, a, at)
			}
			if err != nil {
				return nil, fmt.Errorf("seed posts: %w", err)
			}
			contents = append(contents, contentRef{content: c, owner: a.ID})
		}
	}
	sum.Posts = len(contents)

	for _, ref := range contents {
		for _, a := range accounts {
			if a.ID == ref.owner || !f.chance(p.Engagement.LikeProbability) {
				continue
			}
			created, err := f.Like(ctx, a, ref.content)
			if err != nil {
				return nil, fmt.Errorf("seed likes: %w", err)
			}
			if created {
				sum.Likes++
			}
		}
		comments := f.between(0, p.Engagement.CommentsPerPost)
		for i := 0; i < comments; i++ {
			author := accounts[f.between(0, len(accounts)-1)]
			if _, err := f.CreateComment(ctx, author, ref.content); err != nil {
				return nil, fmt.Errorf("seed comments: %w", err)
			}
			sum.Comments++
		}
	}

	if len(accounts) > 1 {
		for _, a := range accounts {
			for i := 0; i < p.Messages.PerAccount; i++ {
				to := s.other(accounts, a)
				if _, err := f.CreateMessage(ctx, a, to, f.chance(0.5)); err != nil {
					return nil, fmt.Errorf("seed messages: %w", err)
				}
				sum.Messages++
			}
		}
	}

	supporters, err := s.seedProjects(ctx, p, accounts, sum)
	if err != nil {
		return nil, fmt.Errorf("seed projects: %w", err)
	}
	sum.Supporters = supporters

	slog.InfoContext(ctx, "seeding completed",
		slog.String("preset", p.Name),
		slog.Int("accounts", sum.Accounts),
		slog.Int("follows", sum.Follows),
		slog.Int("posts", sum.Posts),
		slog.Int("likes", sum.Likes),
		slog.Int("comments", sum.Comments),
		slog.Int("messages", sum.Messages),
		slog.Int("projects", sum.Projects),
		slog.Int("supporters", sum.Supporters),
		slog.Duration("took", time.Since(start)))
	return sum, nil
}

func (s *Seeder) seedAccounts(ctx context.Context, p *Preset) ([]*models.Account, error) {
	f := s.factory
	accounts := make([]*models.Account, 0, p.TotalAccounts())

	for _, fixed := range p.Accounts.Fixed {
		a, err := f.CreateAccount(ctx, p.Password, func(a *models.Account) {
			a.Username = fixed.Username
			a.Email = fixed.Username + "@atelier.local"
			if fixed.Email != "" {
				a.Email = fixed.Email
			}
			if fixed.Role != "" {
				a.Profile.Role = models.ProfileRole(fixed.Role)
			}
			if fixed.Bio != "" {
				a.Profile.Bio = fixed.Bio
			}
		})
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", fixed.Username, err)
		}
		accounts = append(accounts, a)
	}

	for i := 0; i < p.Accounts.Random; i++ {
		role := s.pickRole(p.Accounts.Roles)
		a, err := f.CreateAccount(ctx, p.Password, func(a *models.Account) {
			a.Profile.Role = role
		})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// pickRole draws a role from weights; missing weights mean artist.
func (s *Seeder) pickRole(weights map[string]float64) models.ProfileRole {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return models.RoleArtist
	}
	x := s.factory.faker.Float64Range(0, total)
	for _, role := range []models.ProfileRole{models.RoleArtist, models.RoleCollector, models.RoleGallery} {
		w := weights[string(role)]
		if x < w {
			return role
		}
		x -= w
	}
	return models.RoleArtist
}

func (s *Seeder) other(accounts []*models.Account, not *models.Account) *models.Account {
	for {
		a := accounts[s.factory.between(0, len(accounts)-1)]
		if a.ID != not.ID {
			return a
		}
	}
}

func (s *Seeder) seedProjects(ctx context.Context, p *Preset, accounts []*models.Account, sum *Summary) (int, error) {
	f := s.factory
	cfg := p.Projects
	supporters := 0

	for i := 0; i < cfg.Count; i++ {
		creator := accounts[f.between(0, len(accounts)-1)]

		spec := ProjectSpec{Funded: f.chance(cfg.FundingRatio)}
		if spec.Funded {
			spec.Goal = int64(f.between(10, 500)) * 10000
		}
		seen := map[uint]struct{}{creator.ID: {}}
		for j := 0; j < cfg.Collaborators && len(seen) < len(accounts); j++ {
			c := s.other(accounts, creator)
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			spec.CollaboratorIDs = append(spec.CollaboratorIDs, c.ID)
		}
		if n := len(cfg.Manifestations); n > 0 {
			picked := map[string]struct{}{}
			want := f.between(1, min(3, n))
			for j := 0; j < want; j++ {
				name := cfg.Manifestations[f.between(0, n-1)]
				if _, dup := picked[name]; dup {
					continue
				}
				picked[name] = struct{}{}
				spec.Manifestations = append(spec.Manifestations, name)
			}
		}

		project, err := f.CreateProject(ctx, creator, spec)
		if err != nil {
			return supporters, err
		}
		sum.Projects++

		for j := 0; j < cfg.CalendarEntries; j++ {
			if _, err := f.CreateCalendarEntry(ctx, project); err != nil {
				return supporters, err
			}
		}

		if !spec.Funded {
			continue
		}
		funding, err := f.funding.GetByProjectID(ctx, project.ID)
		if err != nil {
			return supporters, err
		}
		for j := 0; j < cfg.BudgetItems; j++ {
			if _, err := f.CreateBudgetItem(ctx, funding, j); err != nil {
				return supporters, err
			}
		}
		for j := 0; j < cfg.SupportersPerProject; j++ {
			var backer *models.Account
			if len(accounts) > 1 && f.chance(0.6) {
				backer = s.other(accounts, creator)
			}
			if _, err := f.Support(ctx, funding, backer); err != nil {
				return supporters, err
			}
			supporters++
		}
	}
	return supporters, nil
}
