package services

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jjudge-oj/userdir/types"
)

const (
	seedEmailDomain = "example.com"
	minSeedAgeYears = 18
	maxSeedAgeYears = 80
)

// SeedGenerator produces plausible synthetic users. It is safe for concurrent
// use. Randomness is not cryptographically strong; email uniqueness comes
// from a UUID fragment embedded in every address.
type SeedGenerator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	token func() string
}

// NewSeedGenerator returns a generator seeded with seed, or with the current
// time when seed is 0.
func NewSeedGenerator(seed int64) *SeedGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeedGenerator{
		rng:   rand.New(rand.NewSource(seed)),
		token: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
}

// Generate returns n users created at now. Emails are unique within the batch.
func (g *SeedGenerator) Generate(n int, now time.Time) []types.User {
	g.mu.Lock()
	defer g.mu.Unlock()

	users := make([]types.User, 0, n)
	seen := make(map[string]struct{}, n)
	for len(users) < n {
		user := g.person(now)
		if _, dup := seen[user.Email]; dup {
			continue
		}
		seen[user.Email] = struct{}{}
		users = append(users, user)
	}
	return users
}

func (g *SeedGenerator) person(now time.Time) types.User {
	given := pick(g.rng, seedGivenNames)
	family := pick(g.rng, seedFamilyNames)
	token := g.token()

	return types.User{
		Username:   g.username(given, family),
		GivenName:  given,
		FamilyName: family,
		DOB:        g.birthdate(now),
		Title:      pick(g.rng, seedTitleLevels) + " " + pick(g.rng, seedTitleAreas) + " " + pick(g.rng, seedTitleRoles),
		Department: types.Departments[g.rng.Intn(len(types.Departments))].Code,
		Email:      fmt.Sprintf("%s.%s.%s@%s", emailPart(given), emailPart(family), token, seedEmailDomain),
		CreatedAt:  now,
	}
}

func (g *SeedGenerator) username(given, family string) string {
	switch g.rng.Intn(3) {
	case 0:
		return fmt.Sprintf("%s_%s%d", given, family, g.rng.Intn(100))
	case 1:
		return fmt.Sprintf("%s.%s", given, family)
	default:
		return fmt.Sprintf("%s%d", family, 1000+g.rng.Intn(9000))
	}
}

func (g *SeedGenerator) birthdate(now time.Time) types.Date {
	oldest := now.AddDate(-maxSeedAgeYears, 0, 0)
	youngest := now.AddDate(-minSeedAgeYears, 0, 0)
	span := int(youngest.Sub(oldest).Hours() / 24)
	day := oldest.AddDate(0, 0, g.rng.Intn(span+1))
	return types.NewDate(day.Year(), day.Month(), day.Day())
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func emailPart(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
