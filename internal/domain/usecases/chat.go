package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/ports"
)

// NotInitializedMessage answers questions asked before any document is ingested.
const NotInitializedMessage = "The knowledge base is not initialized yet. Please upload a PDF first."

// DefaultHistoryWindow is the number of prior turns sent with a question.
const DefaultHistoryWindow = 3

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// ChatService answers questions against the knowledge base, keeping
// per-session history.
type ChatService struct {
	kb       *KnowledgeBase
	pipeline *RAGPipeline
	sessions *SessionStore
	window   int
	recorder Recorder
	logger   *zap.Logger
}

// NewChatService wires the chat flow. window < 0 falls back to DefaultHistoryWindow.
func NewChatService(kb *KnowledgeBase, pipeline *RAGPipeline, sessions *SessionStore, window int, logger *zap.Logger) *ChatService {
	if window < 0 {
		window = DefaultHistoryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		kb:       kb,
		pipeline: pipeline,
		sessions: sessions,
		window:   window,
		recorder: nopRecorder{},
		logger:   logger,
	}
}

// WithRecorder sets the metrics sink.
func (s *ChatService) WithRecorder(r Recorder) *ChatService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Sessions exposes the session store.
func (s *ChatService) Sessions() *SessionStore {
	return s.sessions
}

// Ask answers question in the context of the session's recent turns.
// Without an active knowledge base it returns NotInitializedMessage and no
// error. Only real answers are added to the history.
func (s *ChatService) Ask(ctx context.Context, question, sessionID string) (*entities.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	start := time.Now()
	var (
		answer        *entities.Answer
		uninitialized bool
	)
	err := s.kb.View(func(retriever ports.Retriever) error {
		if retriever == nil {
			uninitialized = true
			answer = &entities.Answer{Text: NotInitializedMessage, Fallback: true}
			return nil
		}

		conversation := FormatContext(s.sessions.History(sessionID), question, s.window)
		var err error
		answer, err = s.pipeline.Answer(ctx, question, conversation, retriever)
		return err
	})
	took := time.Since(start)

	switch {
	case err != nil:
		s.recorder.ObserveAsk(OutcomeError, took)
		s.logger.Warn("ask failed",
			zap.String("session", sessionID),
			zap.String("kind", string(errs.KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	case uninitialized:
		s.recorder.ObserveAsk(OutcomeNotInitialized, took)
	case answer.Fallback:
		s.recorder.ObserveAsk(OutcomeFallback, took)
	default:
		s.sessions.Append(sessionID, entities.Turn{
			Question:  question,
			Answer:    answer.Text,
			CreatedAt: time.Now(),
		})
		s.recorder.ObserveAsk(OutcomeAnswered, took)
	}

	s.logger.Debug("question answered",
		zap.String("session", sessionID),
		zap.Int("sources", len(answer.Sources)),
		zap.Bool("fallback", answer.Fallback),
		zap.Duration("took", took),
	)
	return answer, nil
}

// Reset clears the session's history.
func (s *ChatService) Reset(sessionID string) {
	s.sessions.Reset(sessionID)
}
