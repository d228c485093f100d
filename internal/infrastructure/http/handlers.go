package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0xcro3dile/pdfchat-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/errs"
	"github.com/0xcro3dile/pdfchat-go/internal/domain/usecases"
)

const sessionCookie = "session_id"

type askRequest struct {
	Question  string `json:"question" form:"question"`
	SessionID string `json:"session_id" form:"session_id"`
}

type source struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
}

type askResponse struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id"`
	Fallback  bool     `json:"fallback"`
	Sources   []source `json:"sources"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// handleUpload saves a PDF and, unless a watcher owns ingestion, rebuilds
// the knowledge base from it.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "no file part"})
		return
	}
	name := filepath.Base(file.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "no selected file"})
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "allowed file type is pdf"})
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.fail(c, err)
		return
	}
	path := filepath.Join(s.cfg.UploadDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("file uploaded", zap.String("path", path), zap.Int64("bytes", file.Size))

	if s.cfg.DeferIngest {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "document": name})
		return
	}

	chunks, err := s.kb.Ingest(c.Request.Context(), path)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ingested", "document": name, "chunks": chunks})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	sessionID := s.sessionID(c, req.SessionID)

	answer, err := s.chat.Ask(c.Request.Context(), req.Question, sessionID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, askResponse{
		Answer:    answer.Text,
		SessionID: sessionID,
		Fallback:  answer.Fallback,
		Sources:   sources(answer.Sources),
	})
}

// handleReset clears the caller's conversation history.
func (s *Server) handleReset(c *gin.Context) {
	var req askRequest
	_ = c.ShouldBind(&req)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID, _ = c.Cookie(sessionCookie)
	}
	if sessionID != "" {
		s.chat.Reset(sessionID)
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"knowledge_base": s.kb.Ready(),
		"document":       filepath.Base(s.kb.Source()),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

// sessionID resolves the caller's session from the request body, then the
// cookie, and mints one otherwise. The cookie is refreshed either way.
func (s *Server) sessionID(c *gin.Context, fromBody string) string {
	id := fromBody
	if id == "" {
		id, _ = c.Cookie(sessionCookie)
	}
	if id == "" {
		id = s.chat.Sessions().NewID()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	return id
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: string(errs.KindOf(err))}
	if status == http.StatusInternalServerError {
		resp.Error = "internal server error"
	}
	c.JSON(status, resp)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, usecases.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	}

	switch errs.KindOf(err) {
	case errs.KindIngestion:
		return http.StatusBadRequest
	case errs.KindNotInitialized:
		return http.StatusConflict
	case errs.KindEmbeddingService, errs.KindGeneration, errs.KindRetrieval:
		return http.StatusBadGateway
	case errs.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func sources(results []entities.QueryResult) []source {
	out := make([]source, len(results))
	for i, r := range results {
		excerpt := []rune(r.Chunk.Content)
		if len(excerpt) > 200 {
			excerpt = append(excerpt[:200], '…')
		}
		out[i] = source{
			Source:  r.Chunk.Source,
			Page:    r.Chunk.Page,
			Score:   r.Score,
			Excerpt: string(excerpt),
		}
	}
	return out
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>PDF Chat</title>
</head>
<body>
    <h1>PDF Chat</h1>
    <form action="/upload" method="post" enctype="multipart/form-data">
        <input type="file" name="file" accept=".pdf" required>
        <button type="submit">Upload</button>
    </form>
    <form id="ask" onsubmit="ask(event)">
        <input type="text" name="question" placeholder="Ask about the document..." autocomplete="off" required>
        <button type="submit">Ask</button>
        <button type="button" onclick="fetch('/reset', {method: 'POST'}); document.getElementById('messages').textContent = ''">Reset</button>
    </form>
    <pre id="messages"></pre>
    <script>
        async function ask(e) {
            e.preventDefault();
            const form = e.target;
            const question = form.question.value.trim();
            if (!question) return;
            form.question.value = '';
            const out = document.getElementById('messages');
            out.textContent += 'User: ' + question + '\n';
            const resp = await fetch('/ask', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({question})
            });
            const data = await resp.json();
            out.textContent += 'Bot: ' + (data.answer || data.error) + '\n';
        }
    </script>
</body>
</html>`
