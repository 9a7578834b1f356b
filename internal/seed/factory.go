// Package seed creates demo data for development databases and tests.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fundboard/internal/auth"
	"fundboard/internal/models"
	"fundboard/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to generated accounts.
const DefaultPassword = "password123"

// Factory builds domain entities with fake content and persists them through
// the repositories, so seeded rows go through the same code paths as API writes.
type Factory struct {
	faker     *gofakeit.Faker
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	now       func() time.Time

	passwordHash string
}

// NewFactory binds a Factory to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{
		faker:     gofakeit.New(seed),
		users:     repository.NewUserRepository(db),
		profiles:  repository.NewProfileRepository(db),
		posts:     repository.NewPostRepository(db),
		comments:  repository.NewCommentRepository(db),
		reactions: repository.NewReactionRepository(db),
		now:       time.Now,
	}
}

// hash caches the bcrypt hash of DefaultPassword; hashing per user dominates seeding time.
func (f *Factory) hash(password string) (string, error) {
	if password != "" && password != DefaultPassword {
		return auth.HashPassword(password)
	}
	if f.passwordHash == "" {
		h, err := auth.HashPassword(DefaultPassword)
		if err != nil {
			return "", err
		}
		f.passwordHash = h
	}
	return f.passwordHash, nil
}

// CreateUser persists a user with a unique fake username. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: fmt.Sprintf("%s%d", sanitizeUsername(f.faker.Username()), f.faker.Number(100, 99999)),
		Email:    f.faker.Email(),
		IsActive: true,
	}
	for _, override := range overrides {
		override(user)
	}

	hashed, err := f.hash(user.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.Password = hashed

	if err := f.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return user, nil
}

// CreateProfile persists a profile for user.
func (f *Factory) CreateProfile(ctx context.Context, user *models.User) (*models.Profile, error) {
	dob := f.faker.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC))
	profile := &models.Profile{
		UserID:           user.ID,
		DOB:              &dob,
		Phone:            f.faker.Phone(),
		Gender:           f.faker.RandomString([]string{"M", "F", "O"}),
		IsStudent:        f.faker.Bool(),
		WorkplaceName:    truncate(f.faker.Company(), 100),
		WorkplaceAddress: f.faker.Street(),
		Address:          f.faker.Street(),
		City:             truncate(f.faker.City(), 30),
		State:            truncate(f.faker.State(), 30),
		Zipcode:          truncate(f.faker.Zip(), 10),
	}
	if err := f.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile for user %d: %w", user.ID, err)
	}
	return profile, nil
}

// BuildPost returns an unsaved post owned by owner with a due date in the coming months.
func (f *Factory) BuildPost(owner *models.User, overrides ...func(*models.Post)) *models.Post {
	required := int64(f.faker.Number(10, 500)) * 100
	post := &models.Post{
		OwnerID:         owner.ID,
		Title:           truncate(strings.TrimSuffix(f.faker.Sentence(5), "."), 200),
		Description:     f.faker.Paragraph(1, 3, 12, "\n"),
		DueDate:         f.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, f.faker.Number(7, 180)),
		Active:          true,
		RequiredAmount:  required,
		CollectedAmount: int64(f.faker.Number(0, int(required))),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post.
func (f *Factory) CreatePost(ctx context.Context, owner *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(owner, overrides...)
	active := post.Active
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	// Create omits false booleans in favour of the column default.
	if !active {
		if _, err := f.posts.Toggle(ctx, post.ID); err != nil {
			return nil, fmt.Errorf("deactivate post %d: %w", post.ID, err)
		}
		post.Active = false
	}
	return post, nil
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		PostID: post.ID,
		UserID: author.ID,
		Body:   f.faker.Sentence(f.faker.Number(4, 16)),
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment on post %d: %w", post.ID, err)
	}
	return comment, nil
}

// React records a like, or a dislike when like is false.
func (f *Factory) React(ctx context.Context, post *models.Post, user *models.User, like bool) error {
	if like {
		return f.reactions.Like(ctx, post.ID, user.ID)
	}
	return f.reactions.Dislike(ctx, post.ID, user.ID)
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 128 && (r == '_' || r == '-' || r == '.' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "_.-")
	if out == "" {
		return "user"
	}
	return truncate(out, 140)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
