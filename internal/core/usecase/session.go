package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/core/ports"
)

// SessionUseCase serves the interactive surface: one document at a time,
// questions answered against it with the conversation so far as context.
//
// Indexes are cached by file content, so re-uploading the same document is
// instant; uploading a different one swaps the active index and clears the
// chat history. Questions already in flight keep the index snapshot they
// started with.
type SessionUseCase struct {
	loader       ports.DocumentLoader
	chunker      ports.Chunker
	embedder     ports.Embedder
	synthesizer  *Synthesizer
	indexFactory func() ports.VectorIndex
	logger       *slog.Logger

	mu      sync.RWMutex
	active  ports.VectorIndex
	key     string
	history []domain.Message
	cache   map[string]ports.VectorIndex
}

func NewSessionUseCase(
	loader ports.DocumentLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	synthesizer *Synthesizer,
	indexFactory func() ports.VectorIndex,
	logger *slog.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		loader:       loader,
		chunker:      chunker,
		embedder:     embedder,
		synthesizer:  synthesizer,
		indexFactory: indexFactory,
		logger:       logger,
		cache:        make(map[string]ports.VectorIndex),
	}
}

func (uc *SessionUseCase) ProcessFile(ctx context.Context, path string) error {
	key, err := fileKey(path)
	if err != nil {
		return domain.WrapError(domain.ErrLoad, "hash file", err)
	}

	uc.mu.RLock()
	cached, ok := uc.cache[key]
	uc.mu.RUnlock()
	if ok {
		uc.activate(key, cached)
		uc.logger.Info("session index reused", "path", path)
		return nil
	}

	segments, err := uc.loader.Load(ctx, path)
	if err != nil {
		return err
	}
	chunks := uc.chunker.Split(segments)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrLoad, "process file", fmt.Errorf("document produced no text"))
	}

	index := uc.indexFactory()
	if err := indexChunks(ctx, uc.embedder, index, chunks); err != nil {
		return err
	}

	uc.mu.Lock()
	uc.cache[key] = index
	uc.mu.Unlock()
	uc.activate(key, index)

	uc.logger.Info("session index built", "path", path, "chunks", len(chunks))
	return nil
}

func (uc *SessionUseCase) Ask(ctx context.Context, question string) (domain.PolicyDecision, error) {
	uc.mu.RLock()
	index := uc.active
	history := append([]domain.Message(nil), uc.history...)
	uc.mu.RUnlock()

	decision, err := uc.synthesizer.DecideConversation(ctx, index, question, history)
	if err != nil {
		return domain.PolicyDecision{}, err
	}

	uc.mu.Lock()
	// The index may have been swapped while we were answering; the turn
	// still belongs to the conversation the user sees.
	uc.history = append(uc.history,
		domain.Message{Role: domain.RoleUser, Content: question},
		domain.Message{Role: domain.RoleAssistant, Content: decision.FormatAnswer()},
	)
	uc.mu.Unlock()
	return decision, nil
}

func (uc *SessionUseCase) History() []domain.Message {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return append([]domain.Message(nil), uc.history...)
}

// Reset drops the active document and the conversation. Cached indexes
// survive so re-uploading a known file stays cheap.
func (uc *SessionUseCase) Reset() {
	uc.mu.Lock()
	uc.active = nil
	uc.key = ""
	uc.history = nil
	uc.mu.Unlock()
}

// Invalidate discards every cached index along with the active session.
// The next ProcessFile rebuilds from scratch even for a known file.
func (uc *SessionUseCase) Invalidate() {
	uc.mu.Lock()
	uc.active = nil
	uc.key = ""
	uc.history = nil
	uc.cache = make(map[string]ports.VectorIndex)
	uc.mu.Unlock()
}

func (uc *SessionUseCase) activate(key string, index ports.VectorIndex) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.key == key {
		return
	}
	uc.active = index
	uc.key = key
	uc.history = nil
}

func fileKey(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
