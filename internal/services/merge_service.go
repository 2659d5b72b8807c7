package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/rs/zerolog"

	"github.com/DickShmiggleTM/RepoFusion/internal/events"
	"github.com/DickShmiggleTM/RepoFusion/internal/llm/client"
	"github.com/DickShmiggleTM/RepoFusion/internal/llm/resolver"
	"github.com/DickShmiggleTM/RepoFusion/internal/models"
	"github.com/DickShmiggleTM/RepoFusion/internal/repositories"
)

const maxMergeRepositories = 10

// ErrSuperseded reports that a newer request replaced this one before it
// finished; its result was discarded without being persisted.
var ErrSuperseded = errors.New("superseded by a newer request")

// MergeService runs the generation pipeline: validate input, resolve the
// model, issue one structured generation call, validate the response, persist
// the accepted result, and push progress events to the UI.
type MergeService interface {
	Startup(ctx context.Context)
	Merge(repositoryURLs []string, targetLanguage, instructions string) (*models.MergeSessionView, error)
	RetryMerge(sessionID uint) (*models.MergeSessionView, error)
	Recommend(mode models.RecommendationMode, description string) ([]models.RepoRecommendation, error)
	Busy() bool
}

type mergeService struct {
	resolver *resolver.Resolver
	settings SettingsService
	sessions repositories.MergeSessionRepository
	log      zerolog.Logger

	ctx context.Context

	mu      sync.Mutex
	busy    int
	issued  map[string]uint64 // latest sequence handed out per slot
	current map[string]uint64 // sequence whose result is still wanted
}

func NewMergeService(res *resolver.Resolver, settings SettingsService, sessions repositories.MergeSessionRepository, log zerolog.Logger) MergeService {
	return &mergeService{
		resolver: res,
		settings: settings,
		sessions: sessions,
		log:      log,
		issued:   map[string]uint64{},
		current:  map[string]uint64{},
	}
}

func (s *mergeService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// Busy reports whether any generation is in flight. Advisory only: the UI
// uses it to disable buttons, but a second request is still accepted and
// supersedes the first.
func (s *mergeService) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy > 0
}

// begin hands out the next sequence number for a slot and marks it current.
// Any earlier in-flight request for the same slot becomes stale.
func (s *mergeService) begin(slot string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy++
	s.issued[slot]++
	seq := s.issued[slot]
	s.current[slot] = seq
	return seq
}

// finish reports whether seq is still the slot's current request.
func (s *mergeService) finish(slot string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy--
	return s.current[slot] == seq
}

func (s *mergeService) Merge(repositoryURLs []string, targetLanguage, instructions string) (*models.MergeSessionView, error) {
	urls, err := validateRepositoryURLs(repositoryURLs)
	if err != nil {
		return nil, err
	}

	req := &models.MergeRequest{
		RepositoryURLs: urls,
		TargetLanguage: strings.TrimSpace(targetLanguage),
		Instructions:   strings.TrimSpace(instructions),
		Settings:       s.settings.Get(),
	}
	return s.runMerge(req)
}

// RetryMerge re-issues the exact request a stored session was produced from,
// under the current settings snapshot.
func (s *mergeService) RetryMerge(sessionID uint) (*models.MergeSessionView, error) {
	stored, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("session %d not found", sessionID)
	}

	var urls []string
	if err := json.Unmarshal([]byte(stored.RepositoriesJSON), &urls); err != nil {
		return nil, fmt.Errorf("stored session %d is corrupt: %w", sessionID, err)
	}

	req := &models.MergeRequest{
		RepositoryURLs: urls,
		TargetLanguage: stored.TargetLanguage,
		Instructions:   stored.Instructions,
		Settings:       s.settings.Get(),
	}
	return s.runMerge(req)
}

func (s *mergeService) runMerge(req *models.MergeRequest) (*models.MergeSessionView, error) {
	seq := s.begin("merge")
	ctx := events.WithSession(s.opCtx(), fmt.Sprintf("merge-%d", seq))

	events.Emit(ctx, events.MergeProgress, events.NewProgress("resolving", "resolving model configuration"))
	resolution, err := s.resolver.ResolveRole(ctx, req.Settings, models.RoleMain)
	if err != nil {
		s.finish("merge", seq)
		events.Emit(ctx, events.MergeDone, events.NewError(err.Error()))
		return nil, err
	}
	for _, d := range resolution.Diagnostics {
		events.Emit(ctx, events.MergeProgress, events.NewInfo(d))
	}

	s.preflight(ctx, req.RepositoryURLs)

	events.Emit(ctx, events.MergeProgress, events.NewProgress("generating", "requesting merged project from "+resolution.Descriptor.ModelID))
	llmClient := client.New(resolution.ChatModel, resolution.Descriptor, s.log)
	result, diags, err := llmClient.GenerateMerge(ctx, req)

	if !s.finish("merge", seq) {
		s.log.Info().Uint64("seq", seq).Msg("merge result discarded, a newer request superseded it")
		return nil, ErrSuperseded
	}
	if err != nil {
		msg := client.ActionableMessage(err, resolution.Descriptor)
		events.Emit(ctx, events.MergeDone, events.NewError(msg))
		return nil, err
	}
	for _, d := range diags {
		events.Emit(ctx, events.MergeProgress, events.NewWarn(d))
	}

	view, err := s.persistMerge(req, resolution.Descriptor, result)
	if err != nil {
		// The generation succeeded; a persistence failure must not lose it.
		s.log.Error().Err(err).Msg("could not persist merge session")
		events.Emit(ctx, events.MergeProgress, events.NewWarn("result could not be saved to history"))
		view = &models.MergeSessionView{
			Repositories:   req.RepositoryURLs,
			TargetLanguage: req.TargetLanguage,
			Provider:       string(resolution.Descriptor.Provider),
			ModelID:        resolution.Descriptor.ModelID,
			Summary:        result.Summary,
			Files:          result.Files,
		}
	}

	events.Emit(ctx, events.MergeDone, events.NewSuccess(fmt.Sprintf("merge complete: %d files", len(result.Files))))
	return view, nil
}

func (s *mergeService) Recommend(mode models.RecommendationMode, description string) ([]models.RepoRecommendation, error) {
	seq := s.begin("recommend")
	ctx := events.WithSession(s.opCtx(), fmt.Sprintf("recommend-%d", seq))

	settings := s.settings.Get()
	resolution, err := s.resolver.ResolveRole(ctx, settings, models.RoleMain)
	if err != nil {
		s.finish("recommend", seq)
		return nil, err
	}

	llmClient := client.New(resolution.ChatModel, resolution.Descriptor, s.log)
	recs, diags, err := llmClient.GenerateRecommendations(ctx, mode, description)

	if !s.finish("recommend", seq) {
		return nil, ErrSuperseded
	}
	if err != nil {
		msg := client.ActionableMessage(err, resolution.Descriptor)
		events.Emit(ctx, events.RecommendDone, events.NewError(msg))
		return nil, err
	}
	for _, d := range diags {
		events.Emit(ctx, events.RecommendDone, events.NewWarn(d))
	}

	events.Emit(ctx, events.RecommendDone, events.NewSuccess("recommendations ready"))
	return recs, nil
}

// preflight checks each repository advertises refs over its remote protocol.
// Purely advisory: the generation call proceeds regardless, so a private or
// flaky remote costs a warning, not the request.
func (s *mergeService) preflight(ctx context.Context, urls []string) {
	for _, u := range urls {
		remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
			Name: "origin",
			URLs: []string{u},
		})
		if _, err := remote.ListContext(ctx, &git.ListOptions{}); err != nil {
			s.log.Warn().Err(err).Str("url", u).Msg("repository not reachable")
			events.Emit(ctx, events.MergeProgress, events.NewWarn("repository not reachable: "+u))
		}
	}
}

func (s *mergeService) persistMerge(req *models.MergeRequest, desc models.ResolvedDescriptor, result *models.MergeResult) (*models.MergeSessionView, error) {
	reposJSON, err := json.Marshal(req.RepositoryURLs)
	if err != nil {
		return nil, err
	}
	filesJSON, err := json.Marshal(result.Files)
	if err != nil {
		return nil, err
	}

	session := &models.MergeSession{
		RepositoriesJSON: string(reposJSON),
		TargetLanguage:   req.TargetLanguage,
		Instructions:     req.Instructions,
		Provider:         string(desc.Provider),
		ModelID:          desc.ModelID,
		Summary:          result.Summary,
		FilesJSON:        string(filesJSON),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	return &models.MergeSessionView{
		ID:             session.ID,
		Repositories:   req.RepositoryURLs,
		TargetLanguage: req.TargetLanguage,
		Provider:       session.Provider,
		ModelID:        session.ModelID,
		Summary:        session.Summary,
		Files:          result.Files,
		CreatedAt:      session.CreatedAt,
	}, nil
}

func (s *mergeService) opCtx() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

func validateRepositoryURLs(raw []string) ([]string, error) {
	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	if len(urls) == 0 {
		return nil, errors.New("at least one repository URL is required")
	}
	if len(urls) > maxMergeRepositories {
		return nil, fmt.Errorf("at most %d repositories per merge, got %d", maxMergeRepositories, len(urls))
	}
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("invalid repository URL: %q", u)
		}
	}
	return urls, nil
}
