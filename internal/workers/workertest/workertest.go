// internal/workers/workertest/workertest.go

// Package workertest holds fixtures shared by the job handler tests.
package workertest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"

	"recruitment-workers/internal/common/camunda"
	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/common/logger"
	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/rules"
	"recruitment-workers/internal/tasks"
	"recruitment-workers/internal/workflow"
)

// Now is the fixed clock every fixture uses.
var Now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

var (
	Admin = models.Actor{ID: "u-admin", Name: "Admin User", Role: models.RoleAdmin}
	Staff = models.Actor{ID: "u-staff", Name: "Staff User", Role: models.RoleStaff}
)

func Ptr(t time.Time) *time.Time { return &t }

func DaysFromNow(d int) *time.Time { return Ptr(Now.AddDate(0, 0, d)) }

func Evaluator() *compliance.Evaluator {
	return compliance.NewEvaluator(rules.DefaultCountryTable(), compliance.DefaultConfig(),
		compliance.WithClock(func() time.Time { return Now }))
}

func Engine(opts ...workflow.Option) *workflow.Engine {
	var n int64
	base := []workflow.Option{workflow.WithIDGenerator(func() string {
		return fmt.Sprintf("evt-%d", atomic.AddInt64(&n, 1))
	})}
	return workflow.NewEngine(workflow.DefaultRequirements(rules.DefaultCountryTable()), Evaluator(), workflow.DefaultSLATable(),
		append(base, opts...)...)
}

func Generator() *tasks.Generator {
	var n int64
	return tasks.NewGenerator(Engine(), tasks.DefaultConfig(), tasks.WithIDGenerator(func() string {
		return fmt.Sprintf("task-%d", atomic.AddInt64(&n, 1))
	}))
}

func Runtime(t testing.TB, taskType string) camunda.Runtime {
	return camunda.NewRuntime(taskType, 5*time.Second, nil, nil, logger.NewTestLogger(t))
}

// Redis starts a miniredis server that lives as long as the test.
func Redis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func Mutator(t testing.TB, store *database.MemoryStore) *database.Mutator {
	rdb, _ := Redis(t)
	return database.NewMutator(store, database.NewLocker(rdb, 5*time.Second))
}

// EligibleCandidate is a Qatar applicant at Registered who passes every
// compliance rule and may move to Verified.
func EligibleCandidate(id string) *models.Candidate {
	c := models.NewCandidate(id, gofakeit.Name(), "Qatar", Now.AddDate(0, 0, -1))
	c.JobRole = "Driver"
	c.DateOfBirth = Ptr(time.Date(1994, 3, 2, 0, 0, 0, 0, time.UTC))
	c.PassportData = &models.PassportData{Number: "N" + gofakeit.DigitN(7), ExpiryDate: DaysFromNow(900)}
	c.PCCData = &models.PCCData{IssueDate: DaysFromNow(-20)}
	c.MedicalData = &models.MedicalData{Status: models.MedicalCompleted}
	c.Documents = Approved(models.DocPassport, models.DocPassportPhotos, models.DocCV)
	return c
}

// Unprepared is a freshly registered candidate with nothing on file.
func Unprepared(id string) *models.Candidate {
	return models.NewCandidate(id, gofakeit.Name(), "Qatar", Now)
}

func Approved(types ...models.DocumentType) []models.CandidateDocument {
	docs := make([]models.CandidateDocument, len(types))
	for i, t := range types {
		docs[i] = models.CandidateDocument{ID: gofakeit.UUID(), Type: t, Status: models.DocStatusApproved}
	}
	return docs
}
