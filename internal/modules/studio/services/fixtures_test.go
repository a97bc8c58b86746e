package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/addinfi/makemyposts-be/internal/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	tables := append([]interface{}{&auth.Profile{}}, models.All()...)
	return testutil.OpenGormDB(t, tables...)
}

func createProfile(t *testing.T, db *gorm.DB, credits int) string {
	t.Helper()
	id := uuid.NewString()
	p := &auth.Profile{Email: id + "@example.com", GoogleID: "g-" + id, Name: "Test", Credits: credits}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p.ID.String()
}

func newCredits(db *gorm.DB) *CreditService {
	return NewCreditService(repositories.NewCreditRepo(db))
}

func balanceOf(t *testing.T, credits *CreditService, userID string) int {
	t.Helper()
	b, err := credits.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	return b
}

// webhook records the JSON bodies posted to it and answers with status and reply
type webhook struct {
	mu     sync.Mutex
	bodies []map[string]interface{}
	status int
	reply  string
	srv    *httptest.Server
}

func newWebhook(t *testing.T, status int, reply string) *webhook {
	t.Helper()
	w := &webhook{status: status, reply: reply}
	w.srv = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.mu.Lock()
		w.bodies = append(w.bodies, body)
		w.mu.Unlock()
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(w.status)
		_, _ = rw.Write([]byte(w.reply))
	}))
	t.Cleanup(w.srv.Close)
	return w
}

func (w *webhook) calls() []map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]map[string]interface{}(nil), w.bodies...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
