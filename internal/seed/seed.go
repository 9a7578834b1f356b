package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fundboard/internal/models"

	"gopkg.in/yaml.v3"
)

// Options controls a generated run.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// ReactionChance is the probability, per user and post, of a like or dislike.
	ReactionChance float64
	WithProfiles   bool
}

// DefaultOptions seeds a small but realistic board.
var DefaultOptions = Options{
	Users:           10,
	PostsPerUser:    3,
	CommentsPerPost: 4,
	ReactionChance:  0.4,
	WithProfiles:    true,
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Profiles  int
	Posts     int
	Comments  int
	Reactions int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d profiles, %d posts, %d comments, %d reactions",
		s.Users, s.Profiles, s.Posts, s.Comments, s.Reactions)
}

// Preset pins accounts and posts so demos start from a known state.
type Preset struct {
	Users []PresetUser `yaml:"users"`
	// Generate adds fake users on top of the listed ones.
	Generate *PresetGenerate `yaml:"generate,omitempty"`
}

type PresetUser struct {
	Username string       `yaml:"username"`
	Email    string       `yaml:"email"`
	Password string       `yaml:"password"`
	Profile  bool         `yaml:"profile"`
	Posts    []PresetPost `yaml:"posts"`
}

type PresetPost struct {
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	DueInDays       int    `yaml:"due_in_days"`
	RequiredAmount  int64  `yaml:"required_amount"`
	CollectedAmount int64  `yaml:"collected_amount"`
	Inactive        bool   `yaml:"inactive"`
}

type PresetGenerate struct {
	Users           int     `yaml:"users"`
	PostsPerUser    int     `yaml:"posts_per_user"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	ReactionChance  float64 `yaml:"reaction_chance"`
}

// LoadPreset reads a YAML preset file.
func LoadPreset(path string) (*Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(raw)
}

// ParsePreset decodes and checks a YAML preset.
func ParsePreset(raw []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	seen := make(map[string]bool, len(p.Users))
	for i, u := range p.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("preset user %d: username is required", i)
		}
		if seen[u.Username] {
			return nil, fmt.Errorf("preset user %q listed twice", u.Username)
		}
		seen[u.Username] = true
		for j, post := range u.Posts {
			if post.Title == "" {
				return nil, fmt.Errorf("preset user %q post %d: title is required", u.Username, j)
			}
			if post.RequiredAmount < 0 || post.CollectedAmount < 0 {
				return nil, fmt.Errorf("preset user %q post %q: amounts must not be negative", u.Username, post.Title)
			}
		}
	}
	return &p, nil
}

// Options converts the preset's generate block, falling back to no generated data.
func (p *Preset) Options() Options {
	if p.Generate == nil {
		return Options{}
	}
	return Options{
		Users:           p.Generate.Users,
		PostsPerUser:    p.Generate.PostsPerUser,
		CommentsPerPost: p.Generate.CommentsPerPost,
		ReactionChance:  p.Generate.ReactionChance,
		WithProfiles:    true,
	}
}

// Run generates users, then posts for each, then comments and reactions from
// the whole user pool.
func (f *Factory) Run(ctx context.Context, opts Options) (Summary, error) {
	return f.populate(ctx, nil, opts)
}

// ApplyPreset creates the preset's accounts and posts, then any generated data.
func (f *Factory) ApplyPreset(ctx context.Context, p *Preset) (Summary, error) {
	var (
		sum   Summary
		users []*models.User
		posts []*models.Post
	)
	for _, pu := range p.Users {
		user, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = pu.Username
			if pu.Email != "" {
				u.Email = pu.Email
			}
			u.Password = pu.Password
		})
		if err != nil {
			return sum, err
		}
		sum.Users++
		users = append(users, user)

		if pu.Profile {
			if _, err := f.CreateProfile(ctx, user); err != nil {
				return sum, err
			}
			sum.Profiles++
		}

		for _, pp := range pu.Posts {
			post, err := f.CreatePost(ctx, user, func(post *models.Post) {
				post.Title = pp.Title
				if pp.Description != "" {
					post.Description = pp.Description
				}
				if pp.DueInDays > 0 {
					post.DueDate = f.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, pp.DueInDays)
				}
				if pp.RequiredAmount > 0 {
					post.RequiredAmount = pp.RequiredAmount
					post.CollectedAmount = pp.CollectedAmount
				}
				post.Active = !pp.Inactive
			})
			if err != nil {
				return sum, err
			}
			sum.Posts++
			posts = append(posts, post)
		}
	}

	generated, err := f.populate(ctx, &pool{users: users, posts: posts}, p.Options())
	generated.Users += sum.Users
	generated.Profiles += sum.Profiles
	generated.Posts += sum.Posts
	return generated, err
}

type pool struct {
	users []*models.User
	posts []*models.Post
}

func (f *Factory) populate(ctx context.Context, existing *pool, opts Options) (Summary, error) {
	var sum Summary
	p := existing
	if p == nil {
		p = &pool{}
	}

	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return sum, err
		}
		sum.Users++
		p.users = append(p.users, user)

		if opts.WithProfiles {
			if _, err := f.CreateProfile(ctx, user); err != nil {
				return sum, err
			}
			sum.Profiles++
		}

		for j := 0; j < opts.PostsPerUser; j++ {
			post, err := f.CreatePost(ctx, user, func(post *models.Post) {
				// Roughly one in five generated posts starts hidden.
				post.Active = f.faker.Number(1, 5) != 1
			})
			if err != nil {
				return sum, err
			}
			sum.Posts++
			p.posts = append(p.posts, post)
		}
	}

	if len(p.users) == 0 {
		return sum, nil
	}

	for _, post := range p.posts {
		for k := 0; k < opts.CommentsPerPost; k++ {
			author := p.users[f.faker.Number(0, len(p.users)-1)]
			if _, err := f.CreateComment(ctx, post, author); err != nil {
				return sum, err
			}
			sum.Comments++
		}
		if opts.ReactionChance <= 0 {
			continue
		}
		for _, user := range p.users {
			if f.faker.Float64Range(0, 1) >= opts.ReactionChance {
				continue
			}
			if err := f.React(ctx, post, user, f.faker.Number(1, 4) != 1); err != nil {
				return sum, err
			}
			sum.Reactions++
		}
	}

	slog.InfoContext(ctx, "seed complete", slog.String("summary", sum.String()))
	return sum, nil
}
