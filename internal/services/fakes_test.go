package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/knowledge"
	"github.com/policy-auditor/policy-auditor/internal/llm"
)

var errBoom = errors.New("boom")

type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
}

func (f *fakeProfiles) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[id], nil
}

type fakeUsage struct {
	mu        sync.Mutex
	count     int
	countErr  error
	createErr error
	created   []*models.UsageRecord
	from, to  time.Time
}

func (f *fakeUsage) CountUserRecords(_ context.Context, _ string, from, to time.Time) (int, error) {
	f.from, f.to = from, to
	return f.count, f.countErr
}

func (f *fakeUsage) CreateUsageRecord(_ context.Context, rec *models.UsageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	rec.ID = int64(len(f.created) + 1)
	f.created = append(f.created, rec)
	f.count++
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
	input string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.input = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

type fakeRetriever struct {
	context string
}

func (f *fakeRetriever) Context(context.Context, []float32) (string, []knowledge.Match) {
	if f.context == "" {
		return knowledge.NoContext, nil
	}
	return f.context, []knowledge.Match{{ID: "1", Content: f.context, Similarity: 0.9}}
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
	req   llm.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (*llm.Result, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{
		Text:     f.text,
		ModelID:  "gemini-2.5-flash",
		Provider: llm.ProviderGemini,
		Usage:    llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

type fakeShipper struct {
	shipped chan *models.UsageRecord
}

func (f *fakeShipper) Ship(_ context.Context, rec *models.UsageRecord) error {
	f.shipped <- rec
	return nil
}

func userProfile(id string, limit int) *models.Profile {
	return &models.Profile{ID: id, Role: models.RoleUser, DailyAuditLimit: limit}
}
