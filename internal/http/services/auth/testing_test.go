package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maticastro/authgate/internal/cache"
	"github.com/maticastro/authgate/internal/domain/repository"
	jwtx "github.com/maticastro/authgate/internal/jwt"
	"github.com/maticastro/authgate/internal/security/password"
	tokens "github.com/maticastro/authgate/internal/security/token"
	"github.com/maticastro/authgate/internal/store/memory"
)

// captureSender records outgoing mail so tests can read the codes.
type captureSender struct {
	mu   sync.Mutex
	mail []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Text    string
}

func (s *captureSender) Send(to, subject, _ string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mail = append(s.mail, sentMail{To: to, Subject: subject, Text: text})
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mail)
}

var codeRe = regexp.MustCompile(`\b\d{5}\b`)

// lastCodeTo returns the code from the most recent mail to the address.
func (s *captureSender) lastCodeTo(t *testing.T, to string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.mail) - 1; i >= 0; i-- {
		if s.mail[i].To == to {
			if code := codeRe.FindString(s.mail[i].Text); code != "" {
				return code
			}
		}
	}
	t.Fatalf("no code mailed to %s", to)
	return ""
}

func newTestDeps(t *testing.T) (Deps, *memory.Store, *captureSender) {
	t.Helper()
	st := memory.New()
	sender := &captureSender{}
	deps := Deps{
		Store:  st,
		Cache:  cache.NewMemory("test:"),
		Issuer: &jwtx.Issuer{Secret: []byte("0123456789abcdef0123456789abcdef"), AccessTTL: 15 * time.Minute, AccessTTLRemember: 24 * time.Hour},
		Sender: sender,

		RefreshTTL:         7 * 24 * time.Hour,
		RefreshTTLRemember: 30 * 24 * time.Hour,
		OtpTTL:             10 * time.Minute,
	}
	return deps, st, sender
}

// seedUser creates a verified user with the given password.
func seedUser(t *testing.T, st *memory.Store, email, plain string) *repository.User {
	t.Helper()
	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		t.Fatal(err)
	}
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        email,
		Username:     "tester",
		PasswordHash: hash,
		IsVerified:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// seedDeactivatedUser creates a user with correct credentials but the
// account switched off.
func seedDeactivatedUser(t *testing.T, st *memory.Store, email, plain string) *repository.User {
	t.Helper()
	hash, err := password.Hash(password.Default, plain)
	if err != nil {
		t.Fatal(err)
	}
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        email,
		Username:     "tester",
		PasswordHash: hash,
		IsVerified:   false,
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// seedToken stores a refresh token for the user and returns the raw value.
func seedToken(t *testing.T, st *memory.Store, userID int64, ttl time.Duration) string {
	t.Helper()
	raw, err := tokens.GenerateOpaque(32)
	if err != nil {
		t.Fatal(err)
	}
	err = st.Tokens().Create(context.Background(), repository.CreateRefreshTokenInput{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokens.SHA256Hex(raw),
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func hasLive(t *testing.T, st *memory.Store, userID int64) bool {
	t.Helper()
	live, err := st.Tokens().HasLiveByUser(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return live
}
